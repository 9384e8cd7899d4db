package presence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/localserve/notify/pkg/logger"
)

// Event is one realtime frame delivered to a connection.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Conn is one authenticated realtime connection. A connection belongs to
// exactly one broadcast group, named by its authenticated user id.
type Conn struct {
	id     string
	userID string
	events chan Event
	hub    *Hub

	mu     sync.RWMutex
	closed bool
}

// ID returns the unique connection id.
func (c *Conn) ID() string { return c.id }

// UserID returns the authenticated user id the connection is bound to.
func (c *Conn) UserID() string { return c.userID }

// Events returns the channel of events broadcast to this connection.
// The channel is closed when the connection leaves the hub.
func (c *Conn) Events() <-chan Event { return c.events }

// Close removes the connection from its group. The last connection of a user
// removes the group itself. Close is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()

	c.hub.leave(c)
	return nil
}

// send enqueues an event without blocking. It reports false when the event
// was dropped because the connection is closed or its buffer is full.
func (c *Conn) send(ev Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

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

// Hub is the in-process registry mapping user ids to their active realtime
// connections. It is created at server start, injected into the transport
// layer and the notification service, and torn down at shutdown.
type Hub struct {
	groups map[string]map[*Conn]struct{}
	mu     sync.RWMutex
	closed bool

	bufferSize int
	log        *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the logger for the Hub.
func WithLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.log = log }
}

// WithBufferSize sets the per-connection event buffer. When a consumer falls
// behind by more than this many events, further events are dropped for that
// connection rather than blocking the broadcaster. Default is 32.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// NewHub creates an empty presence hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		groups:     make(map[string]map[*Conn]struct{}),
		bufferSize: 32,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join registers a new connection for the authenticated user and adds it to
// the user's broadcast group.
func (h *Hub) Join(userID string) (*Conn, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	conn := &Conn{
		id:     uuid.New().String(),
		userID: userID,
		events: make(chan Event, h.bufferSize),
		hub:    h,
	}

	group, ok := h.groups[userID]
	if !ok {
		group = make(map[*Conn]struct{})
		h.groups[userID] = group
	}
	group[conn] = struct{}{}

	return conn, nil
}

// Broadcast delivers an event to every connection currently joined to the
// user's group. A user with no active connections is a true no-op, not an
// error. Events are dropped per connection when its buffer is full.
func (h *Hub) Broadcast(ctx context.Context, userID, event string, payload any) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	group := h.groups[userID]
	conns := make([]*Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !conn.send(Event{Name: event, Payload: payload}) {
			h.log.WarnContext(ctx, "Dropping realtime event",
				logger.UserID(userID),
				logger.ConnectionID(conn.id),
				logger.EventType(event),
			)
		}
	}

	return nil
}

// ConnectionCount returns the number of active connections for the user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}

// Close tears down the hub and closes every connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := make([]*Conn, 0)
	for _, group := range h.groups {
		for conn := range group {
			conns = append(conns, conn)
		}
	}
	h.groups = make(map[string]map[*Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.mu.Lock()
		if !conn.closed {
			conn.closed = true
			close(conn.events)
		}
		conn.mu.Unlock()
	}
	return nil
}

// leave removes the connection from its group, deleting the group when it
// was the last member.
func (h *Hub) leave(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[c.userID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.userID)
	}
}
