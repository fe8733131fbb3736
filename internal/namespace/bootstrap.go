package namespace

import (
	"errors"
	"fmt"

	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
)

// Bootstrap creates the path skeleton for a tenancy and seeds the two
// singleton nodes. origin and params are the pre-encoded initial origin
// snapshot and log-parameters document; each is written only if its node
// does not exist yet. NodeExists from a concurrent bootstrap is swallowed
// here and nowhere else.
func Bootstrap(c coord.Client, p Paths, origin, params []byte) error {
	for _, root := range p.SubtreeRoots() {
		_, err := c.Create(root, nil, coord.ModePersistent)
		if err != nil && !errors.Is(err, coord.ErrNodeExists) {
			return fmt.Errorf("namespace: bootstrap %s: %w", root, coord.Guard(err))
		}
	}
	if err := seed(c, p.Origin(), origin); err != nil {
		return err
	}
	return seed(c, p.LogParameters(), params)
}

func seed(c coord.Client, path string, data []byte) error {
	stat, err := c.Exists(path)
	if err != nil {
		return fmt.Errorf("namespace: seed %s: %w", path, coord.Guard(err))
	}
	if stat != nil {
		debug.Logf("namespace: %s already seeded\n", path)
		return nil
	}
	_, err = c.Create(path, data, coord.ModePersistent)
	if err != nil && !errors.Is(err, coord.ErrNodeExists) {
		return fmt.Errorf("namespace: seed %s: %w", path, coord.Guard(err))
	}
	return nil
}
