// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hub is the client side of the catalog's push-notification hub. It
// speaks the JSON hub protocol over a WebSocket, fans server events out to
// registered handlers, and invokes server methods such as the per-article
// subscribe and unsubscribe calls.
//
// One Client is created per process and shared by every view that needs
// notifications. Connection failures never block callers for longer than a
// single attempt: the client keeps one background task that reconnects with
// exponential backoff until it succeeds or the client is closed.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/pdiddy/article-catalog/pkg/types"
)

// Server event and method names.
const (
	EventArticleUpdated = "NotifyArticleUpdated"
	MethodSubscribe     = "SubscribeArticle"
	MethodUnsubscribe   = "UnsubscribeArticle"
)

// Defaults applied when the configuration leaves a value unset.
const (
	DefaultRetryDelay    = 3 * time.Second
	DefaultMaxRetryDelay = 30 * time.Second
	DefaultKeepAlive     = 15 * time.Second
	DefaultServerTimeout = 30 * time.Second
)

var (
	// ErrNotConnected is returned by Invoke when no connection is up.
	ErrNotConnected = errors.New("hub: not connected")
	// ErrConnectionLost fails invocations still waiting when the connection drops.
	ErrConnectionLost = errors.New("hub: connection lost")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("hub: client closed")
)

// State is the connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ServerError is a completion that carried an error from the server.
type ServerError struct {
	Method  string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("hub: %s failed: %s", e.Method, e.Message)
}

// ArticleUpdated is the payload of NotifyArticleUpdated.
type ArticleUpdated struct {
	ArticleProviderID string `json:"articleProviderId"`
	Title             string `json:"title"`
}

// HandlerID identifies one registration made with On.
type HandlerID uint64

// Handler receives the raw arguments of a server event.
type Handler func(args []json.RawMessage)

type registration struct {
	id HandlerID
	fn Handler
}

type completion struct {
	result json.RawMessage
	err    error
}

// call is an invocation waiting for its completion.
type call struct {
	method string
	ch     chan completion
}

// attempt is one connect try shared by every caller that arrives while it runs.
type attempt struct {
	done chan struct{}
	err  error
}

// connection is one live WebSocket session.
type connection struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
}

func (cn *connection) write(data []byte) error {
	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	return cn.ws.WriteMessage(websocket.TextMessage, data)
}

// Client is a hub connection with automatic reconnect. It is safe for
// concurrent use.
type Client struct {
	cfg        types.HubConfig
	log        *logrus.Entry
	httpClient *http.Client
	dialer     *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	conn         *connection
	current      *attempt
	closed       bool
	reconnecting bool
	nextHandler  HandlerID
	handlers     map[string][]registration
	nextCall     uint64
	pending      map[string]*call
	topics       map[string]struct{}
	wg           sync.WaitGroup
}

// New creates a disconnected client. Nothing is dialed until Start.
func New(cfg types.HubConfig, log *logrus.Entry) *Client {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = DefaultMaxRetryDelay
		if cfg.MaxRetryDelay < cfg.RetryDelay {
			cfg.MaxRetryDelay = cfg.RetryDelay
		}
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.ServerTimeout <= 0 {
		cfg.ServerTimeout = DefaultServerTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: cfg.ServerTimeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: cfg.ServerTimeout},
		ctx:        ctx,
		cancel:     cancel,
		handlers:   make(map[string][]registration),
		pending:    make(map[string]*call),
		topics:     make(map[string]struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start connects if needed. It returns nil at once when connected, and
// callers arriving while an attempt is in progress wait for that attempt's
// result instead of dialing again. On failure the reconnect task is armed.
func (c *Client) Start(ctx context.Context) error {
	err := c.connectOnce(ctx)
	if err != nil && !errors.Is(err, ErrClosed) {
		c.mu.Lock()
		c.armReconnectLocked()
		c.mu.Unlock()
	}
	return err
}

// Close stops reconnecting, closes the connection, and fails pending
// invocations. It waits for the client's goroutines to exit, so it must not
// be called from an event handler.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cn := c.conn
	c.mu.Unlock()

	c.cancel()
	if cn != nil {
		cn.writeMu.Lock()
		_ = cn.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		cn.writeMu.Unlock()
		c.dropConnection(cn, ErrClosed)
	}
	c.wg.Wait()
	c.log.Debug("hub client closed")
	return nil
}

// On registers fn for a server event. Registrations are additive; the
// returned id removes exactly this one via Off.
func (c *Client) On(event string, fn Handler) HandlerID {
	key := strings.ToLower(event)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHandler++
	id := c.nextHandler
	c.handlers[key] = append(c.handlers[key], registration{id: id, fn: fn})
	return id
}

// Off removes one registration. Unknown ids are ignored.
func (c *Client) Off(event string, id HandlerID) {
	key := strings.ToLower(event)
	c.mu.Lock()
	defer c.mu.Unlock()
	regs := c.handlers[key]
	for i, r := range regs {
		if r.id == id {
			c.handlers[key] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(c.handlers[key]) == 0 {
		delete(c.handlers, key)
	}
}

// OnArticleUpdated registers a typed NotifyArticleUpdated handler.
func (c *Client) OnArticleUpdated(fn func(ArticleUpdated)) HandlerID {
	return c.On(EventArticleUpdated, func(args []json.RawMessage) {
		if len(args) == 0 {
			c.log.Warn("article update without payload")
			return
		}
		var ev ArticleUpdated
		if err := json.Unmarshal(args[0], &ev); err != nil {
			c.log.WithError(err).Warn("malformed article update")
			return
		}
		fn(ev)
	})
}

// Invoke calls a server method and waits for its completion.
func (c *Client) Invoke(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	cn := c.conn
	if c.state != Connected || cn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.nextCall++
	id := strconv.FormatUint(c.nextCall, 10)
	ch := make(chan completion, 1)
	c.pending[id] = &call{method: method, ch: ch}
	c.mu.Unlock()

	if args == nil {
		args = []any{}
	}
	data, err := encodeRecord(invocation{Type: typeInvocation, InvocationID: id, Target: method, Arguments: args})
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	if err := cn.write(data); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

// Subscribe asks the server for updates about one provider record. The
// topic is remembered and subscribed again after a reconnect.
func (c *Client) Subscribe(ctx context.Context, providerID string) error {
	if _, err := c.Invoke(ctx, MethodSubscribe, providerID); err != nil {
		return err
	}
	c.mu.Lock()
	c.topics[providerID] = struct{}{}
	c.mu.Unlock()
	return nil
}

// Follow records providerID as a topic. When connected it subscribes at
// once; otherwise the subscription is sent by the next connect.
func (c *Client) Follow(ctx context.Context, providerID string) error {
	c.mu.Lock()
	c.topics[providerID] = struct{}{}
	connected := c.state == Connected
	c.mu.Unlock()
	if !connected {
		return nil
	}
	_, err := c.Invoke(ctx, MethodSubscribe, providerID)
	return err
}

// Unsubscribe stops updates about one provider record.
func (c *Client) Unsubscribe(ctx context.Context, providerID string) error {
	if _, err := c.Invoke(ctx, MethodUnsubscribe, providerID); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.topics, providerID)
	c.mu.Unlock()
	return nil
}

// Topics returns the subscribed provider ids, sorted.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// connectOnce runs or joins a connect attempt.
func (c *Client) connectOnce(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.state {
	case Connected:
		c.mu.Unlock()
		return nil
	case Connecting:
		a := c.current
		c.mu.Unlock()
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a := &attempt{done: make(chan struct{})}
	c.current = a
	c.state = Connecting
	c.mu.Unlock()

	cn, leftover, err := c.dial(ctx)

	c.mu.Lock()
	if err == nil && c.closed {
		_ = cn.ws.Close()
		err = ErrClosed
	}
	if err != nil {
		c.state = Disconnected
	} else {
		c.state = Connected
		c.conn = cn
		c.wg.Add(2)
		go c.readLoop(cn, leftover)
		go c.pingLoop(cn)
	}
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	if err == nil && len(topics) > 0 {
		c.wg.Add(1)
		go c.resubscribe(topics)
	}
	a.err = err
	close(a.done)
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Warn("hub connection failed")
		return err
	}
	c.log.WithField("url", c.cfg.URL).Info("hub connected")
	return nil
}

// dial negotiates, opens the socket and completes the handshake. It returns
// any records that arrived in the same frame as the handshake reply.
func (c *Client) dial(ctx context.Context) (*connection, [][]byte, error) {
	token := ""
	if !c.cfg.SkipNegotiation {
		var err error
		if token, err = c.negotiate(ctx); err != nil {
			return nil, nil, err
		}
	}
	wsURL, err := websocketURL(c.cfg.URL, token)
	if err != nil {
		return nil, nil, err
	}

	ws, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("dialing hub: %w", err)
	}

	if err := ws.WriteMessage(websocket.TextMessage, handshakeRequest); err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("sending handshake: %w", err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("reading handshake: %w", err)
	}
	records := splitRecords(data)
	if len(records) == 0 {
		ws.Close()
		return nil, nil, errors.New("empty handshake response")
	}
	var hs handshakeResponse
	if err := json.Unmarshal(records[0], &hs); err != nil {
		ws.Close()
		return nil, nil, fmt.Errorf("decoding handshake: %w", err)
	}
	if hs.Error != "" {
		ws.Close()
		return nil, nil, fmt.Errorf("handshake rejected: %s", hs.Error)
	}

	return &connection{ws: ws, done: make(chan struct{})}, records[1:], nil
}

func (c *Client) negotiate(ctx context.Context) (string, error) {
	u, err := negotiateURL(c.cfg.URL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating negotiate request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("negotiating: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("negotiating: server returned HTTP %d", resp.StatusCode)
	}
	var nr negotiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return "", fmt.Errorf("decoding negotiate response: %w", err)
	}
	if nr.Error != "" {
		return "", fmt.Errorf("negotiate rejected: %s", nr.Error)
	}
	if nr.ConnectionToken != "" {
		return nr.ConnectionToken, nil
	}
	return nr.ConnectionID, nil
}

func (c *Client) readLoop(cn *connection, leftover [][]byte) {
	defer c.wg.Done()
	for _, rec := range leftover {
		if err := c.dispatch(rec); err != nil {
			c.dropConnection(cn, err)
			return
		}
	}
	for {
		_ = cn.ws.SetReadDeadline(time.Now().Add(c.cfg.ServerTimeout))
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			c.dropConnection(cn, err)
			return
		}
		for _, rec := range splitRecords(data) {
			if err := c.dispatch(rec); err != nil {
				c.dropConnection(cn, err)
				return
			}
		}
	}
}

// dispatch handles one record on the read goroutine. A non-nil error means
// the server asked to close the connection.
func (c *Client) dispatch(rec []byte) error {
	var msg message
	if err := json.Unmarshal(rec, &msg); err != nil {
		c.log.WithError(err).Warn("skipping malformed hub message")
		return nil
	}

	switch msg.Type {
	case typeInvocation:
		c.mu.Lock()
		regs := append([]registration(nil), c.handlers[strings.ToLower(msg.Target)]...)
		c.mu.Unlock()
		if len(regs) == 0 {
			c.log.WithField("target", msg.Target).Debug("no handler for hub event")
		}
		for _, r := range regs {
			r.fn(msg.Arguments)
		}
	case typeCompletion:
		c.mu.Lock()
		pc, ok := c.pending[msg.InvocationID]
		delete(c.pending, msg.InvocationID)
		c.mu.Unlock()
		if !ok {
			return nil
		}
		if msg.Error != "" {
			pc.ch <- completion{err: &ServerError{Method: pc.method, Message: msg.Error}}
		} else {
			pc.ch <- completion{result: msg.Result}
		}
	case typePing:
	case typeClose:
		if msg.Error != "" {
			return fmt.Errorf("server closed connection: %s", msg.Error)
		}
		return errors.New("server closed connection")
	default:
		c.log.WithField("type", msg.Type).Debug("ignoring hub message")
	}
	return nil
}

func (c *Client) pingLoop(cn *connection) {
	defer c.wg.Done()
	ping, _ := encodeRecord(message{Type: typePing})
	ticker := time.NewTicker(c.cfg.KeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-cn.done:
			return
		case <-ticker.C:
			if err := cn.write(ping); err != nil {
				c.dropConnection(cn, err)
				return
			}
		}
	}
}

// dropConnection tears down cn if it is still current, fails pending
// invocations, and arms the reconnect task unless the client is closed.
func (c *Client) dropConnection(cn *connection, cause error) {
	c.mu.Lock()
	if c.conn != cn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = Disconnected
	pending := c.pending
	c.pending = make(map[string]*call)
	close(cn.done)
	if !c.closed {
		c.armReconnectLocked()
	}
	c.mu.Unlock()

	_ = cn.ws.Close()
	for _, pc := range pending {
		pc.ch <- completion{err: ErrConnectionLost}
	}
	if !errors.Is(cause, ErrClosed) {
		c.log.WithError(cause).Warn("hub connection lost")
	}
}

// armReconnectLocked starts the reconnect task unless one is running.
// c.mu must be held.
func (c *Client) armReconnectLocked() {
	if c.closed || c.reconnecting {
		return
	}
	c.reconnecting = true
	c.wg.Add(1)
	go c.reconnectLoop()
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryDelay
	b.MaxInterval = c.cfg.MaxRetryDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Client) reconnectLoop() {
	defer c.wg.Done()
	b := c.newBackOff()
	for {
		delay := b.NextBackOff()
		c.log.WithField("delay", delay).Info("hub reconnect scheduled")
		timer := time.NewTimer(delay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			c.mu.Lock()
			c.reconnecting = false
			c.mu.Unlock()
			return
		case <-timer.C:
		}

		err := c.connectOnce(c.ctx)

		c.mu.Lock()
		if c.closed || (err == nil && c.state == Connected) {
			c.reconnecting = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		if err == nil {
			// Connected and dropped again before we looked; start over.
			b.Reset()
		}
	}
}

func (c *Client) resubscribe(topics []string) {
	defer c.wg.Done()
	for _, t := range topics {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.ServerTimeout)
		_, err := c.Invoke(ctx, MethodSubscribe, t)
		cancel()
		if err != nil {
			c.log.WithError(err).WithField("provider", t).Warn("resubscribe failed")
		}
	}
}
