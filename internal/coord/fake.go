package coord

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fake is an in-memory Client for unit tests. It models the subset of
// coordination-service semantics the backend relies on: hierarchical
// persistent/ephemeral/sequential nodes, version counters, and one-shot
// exists/children watches. Session loss is injected with Disconnect and
// ExpireSession.
type Fake struct {
	mu           sync.Mutex
	nodes        map[string]*fakeNode
	seq          map[string]int64
	existsWatch  map[string][]chan Event
	childWatch   map[string][]chan Event
	session      chan SessionState
	disconnected bool
	closed       bool
}

type fakeNode struct {
	data      []byte
	version   int32
	ephemeral bool
	ctime     time.Time
}

var _ Client = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		nodes:       map[string]*fakeNode{},
		seq:         map[string]int64{},
		existsWatch: map[string][]chan Event{},
		childWatch:  map[string][]chan Event{},
		session:     make(chan SessionState, 16),
	}
}

// Disconnect makes every subsequent operation fail with ErrConnectionLoss
// and notifies session listeners. Reconnect undoes it.
func (f *Fake) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	f.notify(SessionSuspended)
}

func (f *Fake) Reconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = false
	f.notify(SessionConnected)
}

// ExpireSession drops the session: ephemeral nodes are deleted (firing
// their watches) and listeners observe SessionLost. The connection stays
// usable, modeling a fresh session on the same handle.
func (f *Fake) ExpireSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p, n := range f.nodes {
		if n.ephemeral {
			delete(f.nodes, p)
			f.fireExists(p, Event{Type: EventDeleted, Path: p})
			f.fireChildren(path.Dir(p), Event{Type: EventChildrenChanged, Path: path.Dir(p)})
		}
	}
	f.notify(SessionLost)
}

func (f *Fake) notify(state SessionState) {
	if f.closed {
		return
	}
	select {
	case f.session <- state:
	default:
	}
}

func (f *Fake) check() error {
	if f.closed {
		return fmt.Errorf("%w: client closed", ErrConnectionLoss)
	}
	if f.disconnected {
		return fmt.Errorf("%w: disconnected", ErrConnectionLoss)
	}
	return nil
}

func parentExists(nodes map[string]*fakeNode, p string) bool {
	dir := path.Dir(p)
	if dir == "/" {
		return true
	}
	_, ok := nodes[dir]
	return ok
}

func (f *Fake) Create(p string, data []byte, mode CreateMode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return "", err
	}
	if !parentExists(f.nodes, p) {
		return "", fmt.Errorf("%w: parent of %s", ErrNoNode, p)
	}
	created := p
	if mode == ModePersistentSequential {
		n := f.seq[path.Dir(p)]
		f.seq[path.Dir(p)] = n + 1
		created = fmt.Sprintf("%s%010d", p, n)
	}
	if _, ok := f.nodes[created]; ok {
		return "", fmt.Errorf("%w: %s", ErrNodeExists, created)
	}
	f.nodes[created] = &fakeNode{
		data:      append([]byte(nil), data...),
		ephemeral: mode == ModeEphemeral,
		ctime:     time.Now(),
	}
	f.fireExists(created, Event{Type: EventCreated, Path: created})
	f.fireChildren(path.Dir(created), Event{Type: EventChildrenChanged, Path: path.Dir(created)})
	return created, nil
}

func (f *Fake) CreateAll(p string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	prefix := ""
	for _, part := range parts[:len(parts)-1] {
		prefix += "/" + part
		if _, ok := f.nodes[prefix]; !ok {
			f.nodes[prefix] = &fakeNode{ctime: time.Now()}
			f.fireExists(prefix, Event{Type: EventCreated, Path: prefix})
			f.fireChildren(path.Dir(prefix), Event{Type: EventChildrenChanged, Path: path.Dir(prefix)})
		}
	}
	if _, ok := f.nodes[p]; ok {
		return "", fmt.Errorf("%w: %s", ErrNodeExists, p)
	}
	f.nodes[p] = &fakeNode{data: append([]byte(nil), data...), ctime: time.Now()}
	f.fireExists(p, Event{Type: EventCreated, Path: p})
	f.fireChildren(path.Dir(p), Event{Type: EventChildrenChanged, Path: path.Dir(p)})
	return p, nil
}

func (f *Fake) Exists(p string) (*Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	n, ok := f.nodes[p]
	if !ok {
		return nil, nil
	}
	return &Stat{Version: n.version, Ctime: n.ctime}, nil
}

func (f *Fake) ExistsW(p string) (*Stat, <-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, nil, err
	}
	ch := make(chan Event, 1)
	f.existsWatch[p] = append(f.existsWatch[p], ch)
	n, ok := f.nodes[p]
	if !ok {
		return nil, ch, nil
	}
	return &Stat{Version: n.version, Ctime: n.ctime}, ch, nil
}

func (f *Fake) Get(p string) ([]byte, *Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, nil, err
	}
	n, ok := f.nodes[p]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoNode, p)
	}
	return append([]byte(nil), n.data...), &Stat{Version: n.version, Ctime: n.ctime}, nil
}

func (f *Fake) Set(p string, data []byte, expected int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	n, ok := f.nodes[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoNode, p)
	}
	if expected != -1 && n.version != expected {
		return fmt.Errorf("%w: %s at version %d, expected %d", ErrBadVersion, p, n.version, expected)
	}
	n.data = append([]byte(nil), data...)
	n.version++
	f.fireExists(p, Event{Type: EventDataChanged, Path: p})
	return nil
}

func (f *Fake) Children(p string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.childrenLocked(p), nil
}

func (f *Fake) ChildrenW(p string) ([]string, <-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, nil, err
	}
	ch := make(chan Event, 1)
	f.childWatch[p] = append(f.childWatch[p], ch)
	return f.childrenLocked(p), ch, nil
}

func (f *Fake) childrenLocked(p string) []string {
	var names []string
	for candidate := range f.nodes {
		if path.Dir(candidate) == p {
			names = append(names, path.Base(candidate))
		}
	}
	sort.Strings(names)
	return names
}

func (f *Fake) Delete(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	if _, ok := f.nodes[p]; !ok {
		return fmt.Errorf("%w: %s", ErrNoNode, p)
	}
	delete(f.nodes, p)
	f.fireExists(p, Event{Type: EventDeleted, Path: p})
	f.fireChildren(path.Dir(p), Event{Type: EventChildrenChanged, Path: path.Dir(p)})
	return nil
}

func (f *Fake) SessionEvents() <-chan SessionState {
	return f.session
}

func (f *Fake) BlockUntilConnected(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		ok := !f.disconnected && !f.closed
		f.mu.Unlock()
		if ok {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (f *Fake) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.session)
	return nil
}

// fireExists delivers ev to all one-shot exists watches on p.
func (f *Fake) fireExists(p string, ev Event) {
	for _, ch := range f.existsWatch[p] {
		ch <- ev
		close(ch)
	}
	delete(f.existsWatch, p)
}

// fireChildren delivers ev to all one-shot children watches on p.
func (f *Fake) fireChildren(p string, ev Event) {
	for _, ch := range f.childWatch[p] {
		ch <- ev
		close(ch)
	}
	delete(f.childWatch, p)
}
