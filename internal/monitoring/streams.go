package monitoring

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	// StreamStorageEvents is the JetStream stream for storage events.
	StreamStorageEvents = "ONYX_STORAGE_EVENTS"

	// SubjectPrefix is the subject prefix for all storage events; the
	// symbolic op name is appended.
	SubjectPrefix = "onyx.storage."
)

// EnsureStream creates the storage-events stream if it doesn't already
// exist. Called once when JetStream publishing is enabled.
func EnsureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(StreamStorageEvents); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamStorageEvents,
		Subjects: []string{SubjectPrefix + ">"},
		Storage:  nats.FileStorage,
		// Retain last 100000 events or 50MB, whichever comes first.
		MaxMsgs:  100000,
		MaxBytes: 50 << 20,
	})
	if err != nil {
		return fmt.Errorf("create %s stream: %w", StreamStorageEvents, err)
	}
	return nil
}
