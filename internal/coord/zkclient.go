package coord

import (
	"errors"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
)

// ZKClient is the production Client backed by go-zookeeper/zk.
type ZKClient struct {
	conn    *zk.Conn
	session chan SessionState
	done    chan struct{}
}

var _ Client = (*ZKClient)(nil)

// zkLogger routes the library's chatter through the env-gated debug log.
type zkLogger struct{}

func (zkLogger) Printf(format string, args ...interface{}) {
	debug.Logf("zk: "+format+"\n", args...)
}

// Dial connects to the coordination service at address (a comma-separated
// connect string). The session is established asynchronously; callers use
// BlockUntilConnected before issuing operations.
func Dial(address string, sessionTimeout time.Duration) (*ZKClient, error) {
	conn, events, err := zk.Connect(strings.Split(address, ","), sessionTimeout,
		zk.WithLogger(zkLogger{}))
	if err != nil {
		return nil, normalize("connect", address, err)
	}
	c := &ZKClient{
		conn:    conn,
		session: make(chan SessionState, 16),
		done:    make(chan struct{}),
	}
	go c.forwardSessionEvents(events)
	return c, nil
}

func (c *ZKClient) forwardSessionEvents(events <-chan zk.Event) {
	defer close(c.session)
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != zk.EventSession {
				continue
			}
			var state SessionState
			switch ev.State {
			case zk.StateHasSession:
				state = SessionConnected
			case zk.StateDisconnected:
				state = SessionSuspended
			case zk.StateExpired:
				state = SessionLost
			default:
				continue
			}
			select {
			case c.session <- state:
			default:
				debug.Logf("coord: dropping session event %v (listener slow)\n", state)
			}
		}
	}
}

func zkFlags(mode CreateMode) int32 {
	switch mode {
	case ModePersistentSequential:
		return zk.FlagSequence
	case ModeEphemeral:
		return zk.FlagEphemeral
	default:
		return 0
	}
}

func (c *ZKClient) Create(path string, data []byte, mode CreateMode) (string, error) {
	created, err := c.conn.Create(path, data, zkFlags(mode), zk.WorldACL(zk.PermAll))
	if err != nil {
		return "", normalize("create", path, err)
	}
	return created, nil
}

func (c *ZKClient) CreateAll(path string, data []byte) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	prefix := ""
	for _, part := range parts[:len(parts)-1] {
		prefix += "/" + part
		_, err := c.conn.Create(prefix, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return "", normalize("create-all", prefix, err)
		}
	}
	created, err := c.conn.Create(path, data, 0, zk.WorldACL(zk.PermAll))
	if err != nil {
		return "", normalize("create-all", path, err)
	}
	return created, nil
}

func (c *ZKClient) Exists(path string) (*Stat, error) {
	ok, stat, err := c.conn.Exists(path)
	if err != nil {
		return nil, normalize("exists", path, err)
	}
	if !ok {
		return nil, nil
	}
	return convertStat(stat), nil
}

func (c *ZKClient) ExistsW(path string) (*Stat, <-chan Event, error) {
	ok, stat, events, err := c.conn.ExistsW(path)
	if err != nil {
		return nil, nil, normalize("exists-w", path, err)
	}
	watch := translateWatch(events)
	if !ok {
		return nil, watch, nil
	}
	return convertStat(stat), watch, nil
}

func (c *ZKClient) Get(path string) ([]byte, *Stat, error) {
	data, stat, err := c.conn.Get(path)
	if err != nil {
		return nil, nil, normalize("get", path, err)
	}
	return data, convertStat(stat), nil
}

func (c *ZKClient) Set(path string, data []byte, expected int32) error {
	_, err := c.conn.Set(path, data, expected)
	return normalize("set", path, err)
}

func (c *ZKClient) Children(path string) ([]string, error) {
	names, _, err := c.conn.Children(path)
	if err != nil {
		return nil, normalize("children", path, err)
	}
	return names, nil
}

func (c *ZKClient) ChildrenW(path string) ([]string, <-chan Event, error) {
	names, _, events, err := c.conn.ChildrenW(path)
	if err != nil {
		return nil, nil, normalize("children-w", path, err)
	}
	return names, translateWatch(events), nil
}

func (c *ZKClient) Delete(path string) error {
	return normalize("delete", path, c.conn.Delete(path, -1))
}

func (c *ZKClient) SessionEvents() <-chan SessionState {
	return c.session
}

func (c *ZKClient) BlockUntilConnected(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.conn.State() == zk.StateHasSession {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (c *ZKClient) Started() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *ZKClient) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	close(c.done)
	c.conn.Close()
	return nil
}

// translateWatch adapts the library's one-shot watch channel. The returned
// channel delivers at most one event and is then closed.
func translateWatch(events <-chan zk.Event) <-chan Event {
	out := make(chan Event, 1)
	go func() {
		defer close(out)
		ev, ok := <-events
		if !ok {
			return
		}
		out <- Event{Type: translateEventType(ev.Type), Path: ev.Path}
	}()
	return out
}

func translateEventType(t zk.EventType) EventType {
	switch t {
	case zk.EventNodeCreated:
		return EventCreated
	case zk.EventNodeDeleted:
		return EventDeleted
	case zk.EventNodeDataChanged:
		return EventDataChanged
	case zk.EventNodeChildrenChanged:
		return EventChildrenChanged
	default:
		return EventSession
	}
}

func convertStat(stat *zk.Stat) *Stat {
	if stat == nil {
		return nil
	}
	return &Stat{
		Version: stat.Version,
		Ctime:   time.UnixMilli(stat.Ctime),
	}
}
