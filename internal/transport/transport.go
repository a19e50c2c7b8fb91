// ABOUTME: WebSocket Transport implementing the Manager/TimeSync capability set (§6)
// ABOUTME: Adapted from the teacher's internal/client/websocket.go connect/handshake/read-pump shape
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/go-syncplay/syncplay/internal/wire"
)

// Config holds the connection parameters for a SyncPlay server.
type Config struct {
	ServerAddr string
	ClientID   string
	UserID     string
	DeviceName string
}

// envelope is the wire-level message wrapper: a type tag plus a
// type-specific payload, mirroring the teacher's protocol.Message shape.
type envelope struct {
	Type string          `json:"Type"`
	Data json.RawMessage `json:"Data"`
}

// Client is a WebSocket-backed Transport and TimeSync Prober.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	Commands     chan wire.PlaybackCommand
	GroupUpdates chan wire.SyncPlayGroupUpdate

	pingResp chan wire.Instant

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a Client. Call Connect to dial and start the read pump.
func New(config Config) *Client {
	return &Client{
		config:       config,
		Commands:     make(chan wire.PlaybackCommand, 16),
		GroupUpdates: make(chan wire.SyncPlayGroupUpdate, 16),
		pingResp:     make(chan wire.Instant, 1),
	}
}

// Connect dials the server and performs the client/server hello handshake.
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/syncplay"}
	log.Printf("transport: connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("transport: dial failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.ctx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("transport: handshake failed: %w", err)
	}

	go c.readLoop()

	return nil
}

func (c *Client) handshake() error {
	hello := struct {
		ClientID   string `json:"ClientId"`
		UserID     string `json:"UserId"`
		DeviceName string `json:"DeviceName"`
	}{ClientID: c.config.ClientID, UserID: c.config.UserID, DeviceName: c.config.DeviceName}

	if err := c.send("ClientHello", hello); err != nil {
		return fmt.Errorf("send ClientHello: %w", err)
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read ServerHello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse ServerHello: %w", err)
	}
	if env.Type != "ServerHello" {
		return fmt.Errorf("expected ServerHello, got %s", env.Type)
	}

	log.Printf("transport: handshake complete")
	return nil
}

// readLoop reads and routes incoming envelopes until the connection closes.
func (c *Client) readLoop() {
	defer c.Close()

	c.mu.RLock()
	conn, ctx := c.conn, c.ctx
	c.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("transport: read error: %v", err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("transport: malformed envelope: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env envelope) {
	switch env.Type {
	case "SyncPlayCommand":
		var cmd wire.PlaybackCommand
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			log.Printf("transport: bad SyncPlayCommand: %v", err)
			return
		}
		c.deliverCommand(cmd)

	case "SyncPlayGroupUpdate":
		update, err := decodeGroupUpdate(env.Data)
		if err != nil {
			log.Printf("transport: bad SyncPlayGroupUpdate: %v", err)
			return
		}
		c.deliverGroupUpdate(update)

	case "TimeSyncResponse":
		var resp struct {
			RemoteTime wire.Instant `json:"RemoteTime"`
		}
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			log.Printf("transport: bad TimeSyncResponse: %v", err)
			return
		}
		select {
		case c.pingResp <- resp.RemoteTime:
		default:
			// A stale response for a ping nobody is waiting on anymore.
		}

	default:
		log.Printf("transport: unknown message type %q", env.Type)
	}
}

// decodeGroupUpdate unmarshals the Type-dependent Data payload of a
// SyncPlayGroupUpdate into its concrete Go type (§6).
func decodeGroupUpdate(raw json.RawMessage) (wire.SyncPlayGroupUpdate, error) {
	var shell struct {
		Type wire.GroupUpdateType `json:"Type"`
		Data json.RawMessage      `json:"Data"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return wire.SyncPlayGroupUpdate{}, err
	}

	update := wire.SyncPlayGroupUpdate{Type: shell.Type}
	if len(shell.Data) == 0 || string(shell.Data) == "null" {
		return update, nil
	}

	switch shell.Type {
	case wire.UpdateGroupJoined, wire.UpdateGroupUpdate:
		var g wire.GroupInfo
		if err := json.Unmarshal(shell.Data, &g); err != nil {
			return update, err
		}
		update.Data = g
	case wire.UpdatePlayQueue:
		var q wire.QueueUpdate
		if err := json.Unmarshal(shell.Data, &q); err != nil {
			return update, err
		}
		update.Data = q
	case wire.UpdateStateUpdate:
		var m map[string]string
		if err := json.Unmarshal(shell.Data, &m); err != nil {
			return update, err
		}
		update.Data = m
	default:
		var m map[string]any
		_ = json.Unmarshal(shell.Data, &m)
		update.Data = m
	}
	return update, nil
}

func (c *Client) deliverCommand(cmd wire.PlaybackCommand) {
	select {
	case c.Commands <- cmd:
	case <-c.ctx.Done():
	}
}

func (c *Client) deliverGroupUpdate(u wire.SyncPlayGroupUpdate) {
	select {
	case c.GroupUpdates <- u:
	case <-c.ctx.Done():
	}
}

func (c *Client) send(msgType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.sendEnvelope(envelope{Type: msgType, Data: data})
}

func (c *Client) sendEnvelope(env envelope) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("transport: not connected")
	}
	return c.conn.WriteJSON(env)
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("transport: connection closed")
	}
}

// IsConnected reports whether the underlying socket is currently live.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Ping implements timesync.Prober by round-tripping a timestamped probe and
// returning the server-stamped remote instant from its response.
func (c *Client) Ping(ctx context.Context) (time.Time, error) {
	if err := c.SendSyncPlayPing(time.Now().UnixMicro()); err != nil {
		return time.Time{}, err
	}

	select {
	case remote := <-c.pingResp:
		return remote.Time(), nil
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case <-time.After(5 * time.Second):
		return time.Time{}, fmt.Errorf("transport: ping timeout")
	}
}
