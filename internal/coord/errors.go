package coord

import (
	"errors"
	"fmt"

	"github.com/go-zookeeper/zk"
)

// Error kinds surfaced by the adapter. Every error returned by a Client
// implementation wraps exactly one of these sentinels (or is nil).
var (
	ErrNoNode         = errors.New("coord: node does not exist")
	ErrNodeExists     = errors.New("coord: node already exists")
	ErrBadVersion     = errors.New("coord: version conflict")
	ErrConnectionLoss = errors.New("coord: connection loss")
	ErrSessionExpired = errors.New("coord: session expired")
	ErrOther          = errors.New("coord: other error")

	// ErrSubscriberClosed is the sentinel raised for connection failures
	// inside a guarded storage operation. Callers treat it as "reconnect
	// and retry at a higher level", never as a logical failure.
	ErrSubscriberClosed = errors.New("coord: subscriber closed")
)

// normalize maps go-zookeeper errors onto the adapter's error kinds.
// Unrecognized errors are ErrOther and also wrap the raw cause, so callers
// can still errors.Is against it.
func normalize(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var kind error
	switch {
	case errors.Is(err, zk.ErrNoNode):
		kind = ErrNoNode
	case errors.Is(err, zk.ErrNodeExists):
		kind = ErrNodeExists
	case errors.Is(err, zk.ErrBadVersion):
		kind = ErrBadVersion
	case errors.Is(err, zk.ErrConnectionClosed), errors.Is(err, zk.ErrClosing):
		kind = ErrConnectionLoss
	case errors.Is(err, zk.ErrSessionExpired):
		kind = ErrSessionExpired
	default:
		return fmt.Errorf("%w: %s %s: %w", ErrOther, op, path, err)
	}
	return fmt.Errorf("%w: %s %s", kind, op, path)
}

// Guard converts connection-failure kinds to ErrSubscriberClosed. All
// adapter calls made from storage operations run their results through
// Guard; other error kinds pass through untouched.
func Guard(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConnectionLoss) || errors.Is(err, ErrSessionExpired) {
		return fmt.Errorf("%w: %v", ErrSubscriberClosed, err)
	}
	return err
}

// IsConnectionError reports whether err is one of the two transient
// connection-failure kinds (before Guard translation).
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionLoss) || errors.Is(err, ErrSessionExpired)
}
