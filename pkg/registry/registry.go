package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quorumhq/notify/pkg/logger"
)

// Conn is the outbound channel handle for one connected recipient identity.
// Events are consumed by the transport layer (SSE handler) via Events().
type Conn struct {
	id       string
	identity string
	events   chan Event
	closed   bool
	mu       sync.Mutex
}

// ID returns the unique id of this connection, distinct across reconnects of
// the same identity.
func (c *Conn) ID() string { return c.id }

// Identity returns the recipient identity the connection is bound to.
func (c *Conn) Identity() string { return c.identity }

// Events returns the channel the transport reads pushed events from.
// The channel is closed when the connection is evicted or replaced.
func (c *Conn) Events() <-chan Event { return c.events }

// send delivers the event without blocking. It reports false when the
// connection is closed or its buffer is full.
func (c *Conn) send(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.events)
		c.closed = true
	}
}

// entry pairs a connection with its liveness bookkeeping.
type entry struct {
	conn     *Conn
	lastSeen time.Time
}

// Registry tracks at most one live connection per recipient identity and
// supports unicast push, broadcast, heartbeats, and periodic liveness sweeps.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	bufferSize    int
	heartbeatTTL  time.Duration
	sweepInterval time.Duration
	log           *slog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// New creates a Registry and starts its liveness sweep loop.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:       make(map[string]*entry),
		bufferSize:    defaultBufferSize,
		heartbeatTTL:  defaultHeartbeatTTL,
		sweepInterval: defaultSweepInterval,
		log:           slog.Default(),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.sweepInterval > 0 {
		r.wg.Add(1)
		go r.sweepLoop()
	}

	return r
}

// Connect registers a connection for the identity and returns its handle.
// An existing connection for the same identity is replaced; the superseded
// connection's channel is closed so its transport goroutine can unwind.
func (r *Registry) Connect(identity string) *Conn {
	conn := &Conn{
		id:       uuid.New().String(),
		identity: identity,
		events:   make(chan Event, r.bufferSize),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.close()
		return conn
	}
	prev := r.entries[identity]
	r.entries[identity] = &entry{conn: conn, lastSeen: time.Now()}
	r.mu.Unlock()

	if prev != nil {
		prev.conn.close()
		r.log.LogAttrs(context.Background(), slog.LevelDebug, "replaced live connection",
			logger.Recipient(identity),
		)
	}

	return conn
}

// Heartbeat refreshes the liveness timestamp for the identity.
// It reports whether the identity had a live connection.
func (r *Registry) Heartbeat(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[identity]
	if !ok {
		return false
	}
	e.lastSeen = time.Now()
	return true
}

// Push delivers the event to the identity's live connection. It returns false
// when the identity has no connection or the write fails; a failed write
// evicts the dead connection as a side effect.
func (r *Registry) Push(identity string, ev Event) bool {
	r.mu.RLock()
	e, ok := r.entries[identity]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	if !e.conn.send(ev) {
		r.evict(e.conn)
		r.log.LogAttrs(context.Background(), slog.LevelDebug, "evicted dead connection on failed push",
			logger.Recipient(identity),
			logger.EventType(ev.Type),
		)
		return false
	}
	return true
}

// Broadcast delivers the event to every live connection, evicting any whose
// write fails, and returns the number of successful pushes.
func (r *Registry) Broadcast(ev Event) int {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if conn.send(ev) {
			delivered++
			continue
		}
		r.evict(conn)
	}
	return delivered
}

// Disconnect removes the identity's connection and closes its channel.
// Unknown identities are a no-op.
func (r *Registry) Disconnect(identity string) {
	r.mu.Lock()
	e, ok := r.entries[identity]
	if ok {
		delete(r.entries, identity)
	}
	r.mu.Unlock()

	if ok {
		e.conn.close()
	}
}

// DisconnectConn removes the given connection and closes its channel. Unlike
// Disconnect it leaves a replacement connection for the same identity
// untouched, so transports can clean up after themselves safely.
func (r *Registry) DisconnectConn(conn *Conn) {
	r.evict(conn)
}

// Connected reports whether the identity currently has a live connection.
func (r *Registry) Connected(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[identity]
	return ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops the sweep loop and closes every connection.
// It is safe to call Close multiple times.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	conns := make([]*Conn, 0, len(r.entries))
	for _, e := range r.entries {
		conns = append(conns, e.conn)
	}
	clear(r.entries)
	r.mu.Unlock()

	close(r.done)
	for _, conn := range conns {
		conn.close()
	}
	r.wg.Wait()
}

// evict removes the connection from the registry and closes it. The id check
// keeps a concurrent replacement for the same identity untouched.
func (r *Registry) evict(conn *Conn) {
	r.mu.Lock()
	if e, ok := r.entries[conn.identity]; ok && e.conn.id == conn.id {
		delete(r.entries, conn.identity)
	}
	r.mu.Unlock()
	conn.close()
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep evicts connections that are already closed or whose heartbeat is
// older than the TTL. Best-effort cleanup, not a delivery guarantee.
func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.heartbeatTTL)

	r.mu.Lock()
	var stale []*Conn
	for identity, e := range r.entries {
		e.conn.mu.Lock()
		dead := e.conn.closed
		e.conn.mu.Unlock()

		if dead || e.lastSeen.Before(cutoff) {
			stale = append(stale, e.conn)
			delete(r.entries, identity)
		}
	}
	r.mu.Unlock()

	for _, conn := range stale {
		conn.close()
		r.log.LogAttrs(context.Background(), slog.LevelDebug, "swept stale connection",
			logger.Recipient(conn.identity),
		)
	}
}
