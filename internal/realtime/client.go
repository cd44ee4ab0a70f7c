package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	initialReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
	handshakeTimeout      = 10 * time.Second
	writeTimeout          = 10 * time.Second
	sendBuffer            = 16

	// Fallbacks when the server handshake omits its keepalive intervals.
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
)

// State is a point-in-time view of the connection.
type State struct {
	Connected           bool
	Reconnecting        bool
	LastError           string
	LastSeen            time.Time
	SID                 string
	ConsecutiveFailures int
}

// Client maintains the Socket.IO connection to the server, reconnecting
// with exponential backoff, and fans received events out to subscribers.
type Client struct {
	socketURL string
	origin    string
	header    http.Header
	hub       *hub

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	// out is the current connection's outbound queue. Each connection gets
	// its own so a stale write loop can never steal frames meant for its
	// successor; frames still queued when a connection drops go down with it.
	out   chan []byte
	state State
}

// NewClient builds a client from the server's HTTP base URL.
func NewClient(baseURL *url.URL) (*Client, error) {
	if baseURL == nil {
		return nil, fmt.Errorf("realtime: nil base url")
	}
	ws := *baseURL
	switch ws.Scheme {
	case "http":
		ws.Scheme = "ws"
	case "https":
		ws.Scheme = "wss"
	default:
		return nil, fmt.Errorf("realtime: unsupported scheme %q", ws.Scheme)
	}
	ws.Path = "/socket.io/"
	ws.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()

	header := http.Header{}
	header.Set("Origin", baseURL.String())

	return &Client{
		socketURL: ws.String(),
		origin:    baseURL.String(),
		header:    header,
		hub:       newHub(),
	}, nil
}

// Subscribe returns a channel of incoming server events and a cancel func.
// Subscribers that fall behind lose events rather than stalling the reader.
func (c *Client) Subscribe() (<-chan Event, func()) {
	return c.hub.subscribe()
}

// State returns a snapshot of the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Emit queues an event for the server. It fails immediately when the client
// is disconnected or the outgoing queue is full; it never blocks.
func (c *Client) Emit(event string, payload any) error {
	c.mu.Lock()
	out := c.out
	connected := c.connected
	c.mu.Unlock()
	if !connected || out == nil {
		return fmt.Errorf("emit %s: not connected", event)
	}
	frame, err := marshalEvent(event, payload)
	if err != nil {
		return err
	}
	select {
	case out <- frame:
		return nil
	default:
		return fmt.Errorf("emit %s: send queue full", event)
	}
}

// Run connects and keeps reconnecting with exponential backoff until ctx is
// cancelled. It blocks; callers run it in a goroutine.
func (c *Client) Run(ctx context.Context) {
	delay := initialReconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		established, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if established {
			delay = initialReconnectDelay
		}

		c.mu.Lock()
		c.connected = false
		c.state.Connected = false
		c.state.Reconnecting = true
		c.state.ConsecutiveFailures++
		if err != nil {
			c.state.LastError = err.Error()
		}
		c.mu.Unlock()

		log.Printf("socket disconnected: %v, reconnecting in %v", err, delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// Dial performs a single connect attempt: websocket dial, Engine.IO open,
// Socket.IO namespace connect. On success the caller owns the connection
// through pumpConnection.
func (c *Client) Dial(ctx context.Context) (*websocket.Conn, handshake, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.socketURL, c.header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, handshake{}, fmt.Errorf("dial %s: %w (status %d)", c.socketURL, err, resp.StatusCode)
		}
		return nil, handshake{}, fmt.Errorf("dial %s: %w", c.socketURL, err)
	}

	hs, err := openSession(conn)
	if err != nil {
		_ = conn.Close()
		return nil, handshake{}, err
	}
	return conn, hs, nil
}

// openSession drives the Engine.IO/Socket.IO opening sequence on a fresh
// websocket connection.
func openSession(conn *websocket.Conn) (handshake, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return handshake{}, fmt.Errorf("read open packet: %w", err)
	}
	if len(raw) == 0 || raw[0] != engineOpen {
		return handshake{}, fmt.Errorf("unexpected opening frame %q", raw)
	}
	var hs handshake
	if err := json.Unmarshal(raw[1:], &hs); err != nil {
		return handshake{}, fmt.Errorf("decode handshake: %w", err)
	}

	connect := append([]byte{engineMessage}, encodePacket(Packet{Type: Connect, Namespace: defaultNamespace, AckID: -1})...)
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, connect); err != nil {
		return handshake{}, fmt.Errorf("send namespace connect: %w", err)
	}

	_, raw, err = conn.ReadMessage()
	if err != nil {
		return handshake{}, fmt.Errorf("read namespace ack: %w", err)
	}
	if len(raw) < 1 || raw[0] != engineMessage {
		return handshake{}, fmt.Errorf("unexpected namespace ack %q", raw)
	}
	pkt, err := parsePacket(raw[1:])
	if err != nil {
		return handshake{}, err
	}
	switch pkt.Type {
	case Connect:
	case ConnectError:
		return handshake{}, fmt.Errorf("namespace connect refused: %s", strings.TrimSpace(string(pkt.Data)))
	default:
		return handshake{}, fmt.Errorf("unexpected packet type %d during connect", pkt.Type)
	}
	return hs, nil
}

// runOnce dials and services one connection until it drops. The bool
// reports whether a session was actually established, which resets the
// reconnect backoff.
func (c *Client) runOnce(ctx context.Context) (bool, error) {
	conn, hs, err := c.Dial(ctx)
	if err != nil {
		return false, err
	}

	out := make(chan []byte, sendBuffer)

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.out = out
	c.state = State{
		Connected: true,
		LastSeen:  time.Now(),
		SID:       hs.SID,
	}
	c.mu.Unlock()
	log.Printf("socket connected, sid %s", hs.SID)

	err = c.pumpConnection(ctx, conn, hs, out)

	c.mu.Lock()
	c.conn = nil
	c.connected = false
	c.out = nil
	c.mu.Unlock()
	_ = conn.Close()
	return true, err
}

// pumpConnection runs the read and write loops for an established
// connection and returns when either side fails or ctx is cancelled.
func (c *Client) pumpConnection(ctx context.Context, conn *websocket.Conn, hs handshake, out chan []byte) error {
	pingInterval := time.Duration(hs.PingInterval) * time.Millisecond
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	pingTimeout := time.Duration(hs.PingTimeout) * time.Millisecond
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	// The server must produce at least a ping inside this window; a silent
	// connection is torn down so the reconnect loop can take over.
	idleLimit := pingInterval + pingTimeout

	errc := make(chan error, 2)
	done := make(chan struct{})

	go func() {
		for {
			_ = conn.SetReadDeadline(time.Now().Add(idleLimit))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errc <- fmt.Errorf("read: %w", err)
				return
			}
			c.touch()
			if err := c.handleFrame(raw, out); err != nil {
				errc <- err
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case frame := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					errc <- fmt.Errorf("write: %w", err)
					return
				}
			}
		}
	}()

	err := <-errc
	// The write loop must not outlive its connection; closing the
	// connection unblocks a pending read or write.
	close(done)
	_ = conn.Close()
	return err
}

// handleFrame dispatches one Engine.IO frame from the read loop. Pongs go
// out through the frame's own connection queue.
func (c *Client) handleFrame(raw []byte, out chan<- []byte) error {
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case enginePing:
		select {
		case out <- []byte{enginePong}:
		default:
		}
		return nil
	case engineClose:
		return fmt.Errorf("server closed the session")
	case engineMessage:
		pkt, err := parsePacket(raw[1:])
		if err != nil {
			log.Printf("socket: dropping malformed packet: %v", err)
			return nil
		}
		if pkt.Type == Disconnect {
			return fmt.Errorf("server disconnected the namespace")
		}
		if pkt.Type != EventPacket {
			return nil
		}
		ev, err := parseEvent(pkt)
		if err != nil {
			log.Printf("socket: dropping malformed event: %v", err)
			return nil
		}
		c.hub.publish(ev)
		return nil
	default:
		// Pong, noop and upgrade frames need no action client-side.
		return nil
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.state.LastSeen = time.Now()
	c.mu.Unlock()
}
