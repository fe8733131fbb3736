// Package onyx is the coordination-log backend of a stream-processing
// cluster: a durable, totally-ordered replicated log plus its auxiliary
// chunk, origin-snapshot and liveness namespaces, layered on an external
// coordination service.
//
// Most callers open a Backend from a Config and use the component handles
// it exposes. The internal packages carry the implementation; this
// package only wires them together.
package onyx

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mariusz-jachimowicz-83/onyx/internal/chunk"
	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/config"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/lifecycle"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
	"github.com/mariusz-jachimowicz-83/onyx/internal/oplog"
	"github.com/mariusz-jachimowicz-83/onyx/internal/origin"
	"github.com/mariusz-jachimowicz-83/onyx/internal/pulse"
	"github.com/mariusz-jachimowicz-83/onyx/internal/zkserver"
)

// Core types re-exported for callers.
type (
	Config       = config.Config
	Entry        = oplog.Entry
	SetReplica   = oplog.SetReplica
	InitialState = oplog.InitialState
	Parameters   = oplog.Parameters
	Snapshot     = origin.Snapshot
	Codec        = codec.Codec
	Kind         = chunk.Kind
	Event        = monitoring.Event
)

// Chunk kinds.
const (
	KindJobHash       = chunk.KindJobHash
	KindCatalog       = chunk.KindCatalog
	KindWorkflow      = chunk.KindWorkflow
	KindFlow          = chunk.KindFlow
	KindLifecycles    = chunk.KindLifecycles
	KindWindows       = chunk.KindWindows
	KindTriggers      = chunk.KindTriggers
	KindJobMetadata   = chunk.KindJobMetadata
	KindException     = chunk.KindException
	KindTask          = chunk.KindTask
	KindChunk         = chunk.KindChunk
	KindOrigin        = chunk.KindOrigin
	KindLogParameters = chunk.KindLogParameters
)

// Error sentinels callers match against.
var (
	ErrNoNode           = coord.ErrNoNode
	ErrNodeExists       = coord.ErrNodeExists
	ErrBadVersion       = coord.ErrBadVersion
	ErrSubscriberClosed = coord.ErrSubscriberClosed
)

// Backend is one peer's handle on the coordination namespace.
type Backend struct {
	Writer *oplog.Writer
	GC     *oplog.GC
	Chunks *chunk.Store
	Origin *origin.Manager
	Pulses *pulse.Tracker

	cfg     *config.Config
	client  coord.Client
	paths   namespace.Paths
	codec   codec.Codec
	bus     *monitoring.Bus
	manager *lifecycle.Manager
	server  *zkserver.Server
	nc      *nats.Conn
}

type options struct {
	client coord.Client
	codec  codec.Codec
}

type Option func(*options)

// WithClient substitutes the coordination client; tests use this to run
// against the in-memory fake.
func WithClient(c coord.Client) Option {
	return func(o *options) { o.client = c }
}

// WithCodec substitutes the payload codec. Every peer of a tenancy must
// use the same one.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// Open connects to the coordination service, bootstraps the tenancy's
// namespace if needed, and returns a ready Backend. baseReplica is the
// replica value a fresh tenancy's origin snapshot starts from.
func Open(ctx context.Context, cfg *config.Config, baseReplica any, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Backend{
		cfg:   cfg,
		paths: namespace.New(cfg.TenancyID),
		codec: o.codec,
		bus:   monitoring.NewBus(),
	}
	if b.codec == nil {
		b.codec = codec.GzipJSON{}
	}

	address := cfg.Address
	if cfg.Server.Enabled {
		server, err := zkserver.Start(ctx, cfg.Server.Port)
		if err != nil {
			return nil, err
		}
		b.server = server
		address = server.Addr()
	}

	b.client = o.client
	if b.client == nil {
		client, err := coord.Dial(address, time.Duration(cfg.SessionTimeoutMS)*time.Millisecond)
		if err != nil {
			b.closePartial(ctx)
			return nil, err
		}
		b.client = client
	}

	b.manager = lifecycle.New(b.client)
	if err := b.manager.Start(ctx); err != nil {
		b.closePartial(ctx)
		return nil, err
	}

	if cfg.NATSURL != "" {
		if err := b.connectNATS(cfg.NATSURL); err != nil {
			b.closePartial(ctx)
			return nil, err
		}
	}

	if err := b.bootstrap(baseReplica); err != nil {
		b.closePartial(ctx)
		return nil, err
	}

	b.Origin = origin.NewManager(b.client, b.codec, b.paths, b.bus)
	b.Writer = oplog.NewWriter(b.client, b.codec, b.paths, b.bus)
	b.GC = oplog.NewGC(b.client, b.paths, b.bus)
	b.Chunks = chunk.NewStore(b.client, b.codec, b.paths, b.bus)
	b.Pulses = pulse.NewTracker(b.client, b.paths, b.bus)
	return b, nil
}

func (b *Backend) connectNATS(url string) error {
	nc, err := nats.Connect(url, nats.Name("onyx-monitoring"))
	if err != nil {
		return fmt.Errorf("onyx: connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("onyx: jetstream: %w", err)
	}
	if err := monitoring.EnsureStream(js); err != nil {
		nc.Close()
		return err
	}
	b.nc = nc
	b.bus.SetJetStream(js)
	return nil
}

func (b *Backend) bootstrap(baseReplica any) error {
	originData, err := b.codec.Encode(origin.Initial(baseReplica))
	if err != nil {
		return err
	}
	paramsData, err := b.codec.Encode(oplog.DefaultParameters())
	if err != nil {
		return err
	}
	return namespace.Bootstrap(b.client, b.paths, originData, paramsData)
}

// NewTailer returns a fresh, unstarted log subscription. Tailers are
// single-use: after one terminates (error or Close) the caller makes a
// new one.
func (b *Backend) NewTailer() *oplog.Tailer {
	return oplog.NewTailer(b.client, b.codec, b.paths, b.Origin, b.Chunks, b.bus)
}

// NewEntryChannel allocates an output channel with the configured buffer.
func (b *Backend) NewEntryChannel() chan Entry {
	return make(chan Entry, b.cfg.SubscriberBufferSize)
}

// Monitoring exposes the event bus for handler registration.
func (b *Backend) Monitoring() *monitoring.Bus { return b.bus }

// Close shuts the backend down: membership watches stop, the connection
// manager tears down the listener and client, then the side services go.
func (b *Backend) Close(ctx context.Context) error {
	if b.Pulses != nil {
		b.Pulses.Close()
	}
	if b.manager != nil {
		b.manager.Shutdown()
	}
	return b.closeSide(ctx)
}

// closePartial unwinds a half-built Open.
func (b *Backend) closePartial(ctx context.Context) {
	if b.manager != nil {
		b.manager.Shutdown()
	} else if b.client != nil && b.client.Started() {
		_ = b.client.Close()
	}
	if err := b.closeSide(ctx); err != nil {
		log.Printf("onyx: cleanup after failed open: %v", err)
	}
}

func (b *Backend) closeSide(ctx context.Context) error {
	if b.nc != nil {
		b.nc.Close()
		b.nc = nil
	}
	if b.server != nil {
		err := b.server.Stop(ctx)
		b.server = nil
		return err
	}
	return nil
}
