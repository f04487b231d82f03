// Package relay is the client for the external push event relay. The relay
// is a plain fan-out socket: it guarantees no delivery, no ordering, and no
// room membership enforcement. Anything that must be correct is re-read
// from the record store; this client only makes things fast.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hailo/internal/config"
	"hailo/internal/domain"
	"hailo/internal/observability"
)

// Handler receives a validated ride event.
type Handler func(ev RideEvent)

// ErrNotConnected is returned by Publish when the client has no live
// connection. Publishes are fire-and-forget; callers may ignore this.
var ErrNotConnected = errors.New("relay not connected")

// Client is a process-wide connection to the push relay, shared by all
// active sessions. Room membership is counted per joiner so overlapping
// screens can join and leave the same room independently.
type Client struct {
	cfg    config.RelayConfig
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu       sync.Mutex
	handlers map[string]map[int]Handler
	nextID   int
	rooms    map[string]int
	hooks    map[int]func()

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient creates a relay client. Call Connect before use.
func NewClient(cfg config.RelayConfig) *Client {
	return &Client{
		cfg:      cfg,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string]map[int]Handler),
		rooms:    make(map[string]int),
		hooks:    make(map[int]func()),
		closed:   make(chan struct{}),
	}
}

// Connect dials the relay and starts the read loop. It returns once the
// initial connection is established.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	go c.readPump(conn)
	return nil
}

// Close shuts the connection down and stops reconnecting.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.writeMu.Unlock()
	})
	return err
}

// Subscribe registers a handler for an event name and returns a function
// that removes it. Handlers run on the read loop goroutine, in arrival
// order.
func (c *Client) Subscribe(event string, h Handler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	id := c.nextID
	c.nextID++
	c.handlers[event][id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// OnReconnect registers a hook fired after every successful reconnection
// and returns a function that removes it. The relay keeps no backlog, so
// hooks should re-read state from the record store.
func (c *Client) OnReconnect(fn func()) (unregister func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.hooks[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.hooks, id)
	}
}

// JoinRoom announces interest in a room. Membership is counted: joining a
// room twice requires leaving it twice.
func (c *Client) JoinRoom(room string) {
	c.mu.Lock()
	c.rooms[room]++
	first := c.rooms[room] == 1
	c.mu.Unlock()

	if first {
		if err := c.send(eventJoinRoom, map[string]string{"room": room}); err != nil {
			log.Printf("relay: join_room %s: %v", room, err)
		}
	}
}

// LeaveRoom releases one membership on a room, announcing the leave once
// the last member is gone.
func (c *Client) LeaveRoom(room string) {
	c.mu.Lock()
	n, ok := c.rooms[room]
	if !ok {
		c.mu.Unlock()
		return
	}
	n--
	if n <= 0 {
		delete(c.rooms, room)
	} else {
		c.rooms[room] = n
	}
	last := n <= 0
	c.mu.Unlock()

	if last {
		if err := c.send(eventLeaveRoom, map[string]string{"room": room}); err != nil {
			log.Printf("relay: leave_room %s: %v", room, err)
		}
	}
}

// Publish sends an event with an arbitrary JSON payload. At-most-once from
// this client's perspective; there is no ack.
func (c *Client) Publish(event string, payload any) error {
	return c.send(event, payload)
}

// PublishRide sends a ride event carrying the full record snapshot.
func (c *Client) PublishRide(event string, ride *domain.Ride) error {
	return c.send(event, ridePayload(ride))
}

func (c *Client) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteJSON(envelope{Event: event, Data: data})
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-c.closed:
				return
			default:
			}
			log.Printf("relay: connection lost: %v", err)
			if !c.reconnect() {
				return
			}
			c.writeMu.Lock()
			conn = c.conn
			c.writeMu.Unlock()
			continue
		}
		c.dispatch(env)
	}
}

// dispatch validates the payload and fans it out to subscribers.
func (c *Client) dispatch(env envelope) {
	var ev RideEvent
	var err error

	switch env.Event {
	case EventDriverOnline, EventDriverOffline:
		ev, err = decodeDriverEvent(env.Data)
	default:
		ev, err = decodeRideEvent(env.Data)
	}
	if err != nil {
		observability.RelayEventsDropped.WithLabelValues(dropReason(err)).Inc()
		log.Printf("relay: dropping %s payload: %v", env.Event, err)
		return
	}
	observability.RelayEventsReceived.WithLabelValues(env.Event).Inc()

	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers[env.Event]))
	for _, h := range c.handlers[env.Event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// reconnect retries the dial with capped exponential backoff. Returns false
// when the client is closed or attempts are exhausted.
func (c *Client) reconnect() bool {
	delay := c.cfg.ReconnectBaseDelay

	for attempt := 1; attempt <= c.cfg.ReconnectMaxAttempts; attempt++ {
		select {
		case <-c.closed:
			return false
		case <-time.After(delay):
		}

		conn, _, err := c.dialer.DialContext(context.Background(), c.cfg.URL, nil)
		if err != nil {
			log.Printf("relay: reconnect attempt %d/%d failed: %v", attempt, c.cfg.ReconnectMaxAttempts, err)
			delay *= 2
			if delay > c.cfg.ReconnectMaxDelay {
				delay = c.cfg.ReconnectMaxDelay
			}
			continue
		}

		c.writeMu.Lock()
		c.conn = conn
		c.writeMu.Unlock()

		c.rejoinRooms()
		observability.RelayReconnects.Inc()

		c.mu.Lock()
		hooks := make([]func(), 0, len(c.hooks))
		for _, fn := range c.hooks {
			hooks = append(hooks, fn)
		}
		c.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}

		log.Printf("relay: reconnected after %d attempt(s)", attempt)
		return true
	}

	log.Printf("relay: giving up after %d reconnect attempts", c.cfg.ReconnectMaxAttempts)
	return false
}

// rejoinRooms re-announces every held room on the fresh connection. The
// relay forgot us when the socket dropped.
func (c *Client) rejoinRooms() {
	c.mu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	for _, room := range rooms {
		if err := c.send(eventJoinRoom, map[string]string{"room": room}); err != nil {
			log.Printf("relay: rejoin %s: %v", room, err)
		}
	}
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, errMissingRideID):
		return "missing_ride_id"
	case errors.Is(err, errBadStatus):
		return "bad_status"
	case errors.Is(err, errMissingDriverID):
		return "missing_driver_id"
	default:
		return "malformed"
	}
}
