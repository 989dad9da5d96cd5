package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/goclaw-node/internal/trust"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 10 * time.Second
	connectTimeout   = 10 * time.Second
	maxMessageSize   = 16 << 20
	sendBuffer       = 64

	defaultRequestRate  = 20
	defaultRequestBurst = 40
)

// ErrClosed is returned by calls on a closed connection.
var ErrClosed = errors.New("gateway connection closed")

// Options configures Dial.
type Options struct {
	URL     string
	TLS     *trust.TLSParams // nil: no TLS enforcement
	Connect protocol.ConnectParams
	Header  http.Header

	// Outbound request limit. Zero values use the defaults.
	RequestRate  rate.Limit
	RequestBurst int
}

// Client is one connected gateway session speaking protocol v3 frames.
// It implements the RPC channel used by chat and the node runtime.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	hello   *protocol.HelloOK

	closeOnce sync.Once
	closing   chan struct{}

	mu      sync.Mutex
	pending map[string]chan *protocol.ResponseFrame
	subs    map[int]*subscriber
	nextSub int
	lastSeq *int64
	err     error
}

// Dial connects, starts the read/write pumps and performs the connect
// handshake.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if opts.TLS != nil {
		u, err := url.Parse(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse gateway url: %w", err)
		}
		if u.Scheme != "wss" {
			return nil, fmt.Errorf("gateway %s requires TLS but url scheme is %q", opts.TLS.StableID, u.Scheme)
		}
		host, _, err := net.SplitHostPort(u.Host)
		if err != nil {
			host = u.Host
		}
		dialer.TLSClientConfig = opts.TLS.ClientConfig(host)
	}

	conn, resp, err := dialer.DialContext(ctx, opts.URL, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed: status=%d, err=%w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := newClient(conn, opts)
	c.start()

	hello, err := c.handshake(ctx, opts.Connect)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.hello = hello
	slog.Info("gateway: connected", "url", opts.URL, "role", opts.Connect.Role, "protocol", hello.Protocol, "server", hello.Server.Version)
	return c, nil
}

func newClient(conn *websocket.Conn, opts Options) *Client {
	limit, burst := opts.RequestRate, opts.RequestBurst
	if limit == 0 {
		limit = defaultRequestRate
	}
	if burst == 0 {
		burst = defaultRequestBurst
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
		limiter: rate.NewLimiter(limit, burst),
		pending: make(map[string]chan *protocol.ResponseFrame),
		subs:    make(map[int]*subscriber),
	}
}

func (c *Client) start() {
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return c.writePump(gctx) })
	g.Go(func() error { return c.readPump() })
	go func() {
		err := g.Wait()
		select {
		case <-c.closing:
			err = ErrClosed
		default:
		}
		c.shutdown(err)
	}()
}

func (c *Client) handshake(ctx context.Context, params protocol.ConnectParams) (*protocol.HelloOK, error) {
	raw, err := c.Request(ctx, protocol.MethodConnect, params, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect handshake: %w", err)
	}
	var hello protocol.HelloOK
	if err := json.Unmarshal(raw, &hello); err != nil {
		return nil, fmt.Errorf("decode hello: %w", err)
	}
	return &hello, nil
}

// Hello returns the handshake response.
func (c *Client) Hello() *protocol.HelloOK { return c.hello }

// CanvasHostURL returns the canvas host advertised in the hello, if any.
func (c *Client) CanvasHostURL() string {
	if c.hello == nil {
		return ""
	}
	return c.hello.CanvasHostURL
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait blocks until the connection ends and returns the cause.
func (c *Client) Wait() error {
	<-c.done
	return c.Err()
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closing) })
	<-c.done
	return nil
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	if c.err == nil {
		if err == nil {
			err = ErrClosed
		}
		c.err = err
	}
	c.pending = make(map[string]chan *protocol.ResponseFrame)
	c.mu.Unlock()
	c.conn.Close()
	close(c.done)
}

// Request sends one RPC and waits for its response or the timeout.
func (c *Client) Request(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	id := uuid.NewString()
	frame, err := protocol.NewRequestFrame(id, method, params)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}

	ch := make(chan *protocol.ResponseFrame, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	select {
	case c.send <- data:
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return nil, fmt.Errorf("%s: %w", method, c.Err())
	}

	select {
	case res := <-ch:
		if !res.OK {
			gerr := &protocol.GatewayError{Method: method, Code: "UNKNOWN", Message: "request failed"}
			if res.Error != nil {
				gerr.Code, gerr.Message, gerr.Retryable = res.Error.Code, res.Error.Message, res.Error.Retryable
			}
			return nil, gerr
		}
		return res.Payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return nil, fmt.Errorf("%s: %w", method, c.Err())
	}
}

// Subscribe returns server events in arrival order, including synthesized
// seqGap events. The channel closes when ctx is cancelled or the connection
// ends; events already received are still delivered in the latter case.
func (c *Client) Subscribe(ctx context.Context) (<-chan protocol.EventFrame, error) {
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	id := c.nextSub
	c.nextSub++
	sub := newSubscriber(ctx)
	c.subs[id] = sub
	c.mu.Unlock()

	go func() {
		sub.run(c.done)
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}()
	return sub.out, nil
}

func (c *Client) readPump() error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	var peek protocol.InboundFrame
	if err := json.Unmarshal(data, &peek); err != nil {
		slog.Debug("gateway: malformed frame", "error", err)
		return
	}
	switch peek.Type {
	case protocol.FrameTypeResponse:
		var res protocol.ResponseFrame
		if err := json.Unmarshal(data, &res); err != nil {
			slog.Debug("gateway: malformed response", "error", err)
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[res.ID]
		delete(c.pending, res.ID)
		c.mu.Unlock()
		if ok {
			ch <- &res
		}
	case protocol.FrameTypeEvent:
		var ev protocol.EventFrame
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Debug("gateway: malformed event", "error", err)
			return
		}
		c.dispatchEvent(ev)
	default:
		slog.Debug("gateway: ignoring frame", "type", peek.Type)
	}
}

type seqGapPayload struct {
	Expected int64 `json:"expected"`
	Received int64 `json:"received"`
}

func (c *Client) dispatchEvent(ev protocol.EventFrame) {
	c.mu.Lock()
	var gap *protocol.EventFrame
	if ev.Seq != nil {
		if c.lastSeq != nil && *ev.Seq > *c.lastSeq+1 {
			payload, _ := json.Marshal(seqGapPayload{Expected: *c.lastSeq + 1, Received: *ev.Seq})
			gap = &protocol.EventFrame{Type: protocol.FrameTypeEvent, Event: protocol.EventSeqGap, Payload: payload}
			slog.Warn("gateway: event sequence gap", "expected", *c.lastSeq+1, "received", *ev.Seq)
		}
		seq := *ev.Seq
		c.lastSeq = &seq
	}
	subs := make([]*subscriber, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		if gap != nil {
			s.push(*gap)
		}
		s.push(ev)
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// Unblocks the read pump.
			c.conn.Close()
			return ErrClosed
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}
