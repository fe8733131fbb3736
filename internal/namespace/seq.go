package namespace

import (
	"fmt"
	"strconv"
	"strings"
)

// PadSequentialID renders a log position the way the coordination service
// renders sequential suffixes: decimal, left-padded with zeros to 10
// digits. Padded ids sort the same lexicographically and numerically for
// any position below 10^10.
func PadSequentialID(n int64) string {
	return fmt.Sprintf("%010d", n)
}

// ParseSequentialID extracts the position from a log-entry node name
// ("entry-0000000042" -> 42).
func ParseSequentialID(name string) (int64, error) {
	suffix := strings.TrimPrefix(name, "entry-")
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("namespace: bad sequential id %q: %w", name, err)
	}
	return n, nil
}
