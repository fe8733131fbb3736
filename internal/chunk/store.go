package chunk

import (
	"fmt"
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

type Store struct {
	client coord.Client
	codec  codec.Codec
	paths  namespace.Paths
	bus    *monitoring.Bus
}

func NewStore(client coord.Client, c codec.Codec, paths namespace.Paths, bus *monitoring.Bus) *Store {
	return &Store{client: client, codec: c, paths: paths, bus: bus}
}

func (s *Store) resolve(kind Kind, id string, subID []string) (kindSpec, string, error) {
	spec, err := kind.spec()
	if err != nil {
		return spec, "", err
	}
	if spec.needsSub && len(subID) == 0 {
		return spec, "", fmt.Errorf("chunk: kind %s requires a sub id", spec.name)
	}
	sub := ""
	if len(subID) > 0 {
		sub = subID[0]
	}
	return spec, spec.path(s.paths, id, sub), nil
}

// Write stores value under the kind's subtree. Kinds are create-once:
// writing an id twice is ErrNodeExists.
func (s *Store) Write(kind Kind, id string, value any, subID ...string) error {
	start := time.Now()
	spec, node, err := s.resolve(kind, id, subID)
	if err != nil {
		return err
	}
	if spec.mode == writeManaged {
		return fmt.Errorf("chunk: kind %s is not writable through the chunk store", spec.name)
	}
	data, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	switch spec.mode {
	case writeCreateAll:
		_, err = s.client.CreateAll(node, data)
	default:
		_, err = s.client.Create(node, data, coord.ModePersistent)
	}
	if err != nil {
		return coord.Guard(err)
	}
	s.bus.Dispatch(monitoring.Event{
		Op:      "write-" + spec.name,
		Latency: time.Since(start),
		Bytes:   len(data),
		ID:      id,
	})
	return nil
}

// Read fetches and decodes the artifact at (kind, id[, subID]).
func (s *Store) Read(kind Kind, id string, subID ...string) (any, error) {
	var value any
	if err := s.ReadInto(kind, id, &value, subID...); err != nil {
		return nil, err
	}
	return value, nil
}

// ReadInto is Read decoding into v (a pointer), for callers that want a
// typed view of the payload.
func (s *Store) ReadInto(kind Kind, id string, v any, subID ...string) error {
	start := time.Now()
	spec, node, err := s.resolve(kind, id, subID)
	if err != nil {
		return err
	}
	data, _, err := s.client.Get(node)
	if err != nil {
		return coord.Guard(err)
	}
	if err := s.codec.Decode(data, v); err != nil {
		return err
	}
	s.bus.Dispatch(monitoring.Event{
		Op:      "read-" + spec.name,
		Latency: time.Since(start),
		ID:      id,
	})
	return nil
}

// ForceWrite overwrites the chunk-kind artifact at id via CAS: absent
// nodes are created, present ones are set at their observed version. A
// concurrent writer surfaces as ErrBadVersion (or ErrNodeExists on the
// create path); retrying is the caller's call, not this store's.
func (s *Store) ForceWrite(kind Kind, id string, value any) error {
	start := time.Now()
	spec, err := kind.spec()
	if err != nil {
		return err
	}
	if kind != KindChunk {
		return fmt.Errorf("chunk: kind %s does not support force writes", spec.name)
	}
	node := spec.path(s.paths, id, "")
	data, err := s.codec.Encode(value)
	if err != nil {
		return err
	}
	stat, err := s.client.Exists(node)
	if err != nil {
		return coord.Guard(err)
	}
	if stat == nil {
		_, err = s.client.CreateAll(node, data)
	} else {
		err = s.client.Set(node, data, stat.Version)
	}
	if err != nil {
		return coord.Guard(err)
	}
	s.bus.Dispatch(monitoring.Event{
		Op:      "force-write-chunk",
		Latency: time.Since(start),
		Bytes:   len(data),
		ID:      id,
	})
	return nil
}
