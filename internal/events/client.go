package events

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultReconnectDelay = 4 * time.Second

// ConnectionSource builds credentialed requests against the SSE endpoint.
// *api.Client satisfies it.
type ConnectionSource interface {
	NewEventsRequest(ctx context.Context, topics []string) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
}

// Handler receives every message published to a subscribed topic, in
// server-send order.
type Handler func(msg Message)

// Client multiplexes one live SSE connection across logical topics. It is
// constructed once and shared by every consumer; the topic set is declared at
// connect time, so any change to it tears the connection down and reopens it
// with the updated list. Connection errors are retried forever at a fixed
// delay with a single armed timer.
//
// Invariant: the connection is open iff at least one handler is subscribed.
type Client struct {
	source         ConnectionSource
	logger         zerolog.Logger
	reconnectDelay time.Duration

	mu             sync.Mutex
	handlers       map[string]map[uuid.UUID]Handler
	generation     uint64
	cancelConn     context.CancelFunc
	reconnectTimer *time.Timer
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func NewClient(source ConnectionSource, opts ...Option) *Client {
	c := &Client{
		source:         source,
		logger:         zerolog.Nop(),
		reconnectDelay: DefaultReconnectDelay,
		handlers:       make(map[string]map[uuid.UUID]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function. The first handler for a new topic reconnects with the expanded
// topic list; removing the last handler for a topic reconnects with the
// reduced list, and removing the last handler overall closes the connection.
func (c *Client) Subscribe(topic string, handler Handler) func() {
	id := uuid.New()

	c.mu.Lock()
	set := c.handlers[topic]
	if set == nil {
		set = make(map[uuid.UUID]Handler)
		c.handlers[topic] = set
		set[id] = handler
		c.connectLocked()
	} else {
		set[id] = handler
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(topic, id) })
	}
}

func (c *Client) unsubscribe(topic string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.handlers[topic]
	if set == nil {
		return
	}
	delete(set, id)
	if len(set) > 0 {
		return
	}
	delete(c.handlers, topic)
	if len(c.handlers) == 0 {
		c.teardownLocked()
	} else {
		c.connectLocked()
	}
}

// Close drops every subscription and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = make(map[string]map[uuid.UUID]Handler)
	c.teardownLocked()
}

func (c *Client) topicsLocked() []string {
	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// connectLocked replaces the current connection with a fresh one carrying the
// full current topic list. Callers hold c.mu.
func (c *Client) connectLocked() {
	c.teardownLocked()

	c.generation++
	gen := c.generation
	topics := c.topicsLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelConn = cancel

	go c.run(ctx, gen, topics)
}

// teardownLocked cancels the live connection and any armed reconnect timer.
func (c *Client) teardownLocked() {
	if c.cancelConn != nil {
		c.cancelConn()
		c.cancelConn = nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.generation++
}

func (c *Client) run(ctx context.Context, gen uint64, topics []string) {
	err := c.stream(ctx, gen, topics)
	if ctx.Err() != nil {
		return // deliberate teardown or topic-set reconnect
	}
	c.logger.Debug().Err(err).Strs("topics", topics).Msg("event stream lost, scheduling reconnect")
	c.scheduleReconnect(gen)
}

func (c *Client) stream(ctx context.Context, gen uint64, topics []string) error {
	req, err := c.source.NewEventsRequest(ctx, topics)
	if err != nil {
		return err
	}
	resp, err := c.source.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream status %d", resp.StatusCode)
	}

	connectionsTotal.Inc()

	return readFrames(resp.Body, func(event string, data []byte) {
		c.dispatch(gen, event, data)
	})
}

// scheduleReconnect arms the single reconnect timer. Repeated stream errors
// before it fires do not stack additional attempts.
func (c *Client) scheduleReconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || len(c.handlers) == 0 || c.reconnectTimer != nil {
		return
	}
	reconnectsTotal.Inc()
	c.reconnectTimer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.reconnectTimer = nil
		if len(c.handlers) > 0 {
			c.connectLocked()
		}
	})
}

// dispatch fans a message out to every current handler of its topic. Each
// invocation is isolated so one faulty subscriber cannot starve the rest.
func (c *Client) dispatch(gen uint64, topic string, data []byte) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return // frame from a connection that has been replaced
	}
	set := c.handlers[topic]
	handlers := make([]Handler, 0, len(set))
	for _, h := range set {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	if len(handlers) == 0 {
		return
	}
	messagesTotal.WithLabelValues(topic).Inc()
	msg := Message{Topic: topic, Data: data}
	for _, h := range handlers {
		c.invoke(h, msg)
	}
}

func (c *Client) invoke(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("topic", msg.Topic).Msg("event handler panicked")
		}
	}()
	h(msg)
}
