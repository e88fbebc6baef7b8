package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/rs/zerolog/log"
)

// ConnectionHooks receives what the connection pumps read and when a session pool drains
type ConnectionHooks interface {
	HandleMessage(c *Connection, raw []byte)
	SessionDrained(sessionID uuid.UUID)
}

// ConnectionManager manages WebSocket connections per session
type ConnectionManager struct {
	// Connection pools organized by session ID
	sessionConnections map[uuid.UUID]map[*Connection]bool
	mu                 sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	hooks    ConnectionHooks

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID        string
	ClientID  string
	SessionID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time

	// set by the broadcast loop once the greeting is queued; guarded by Manager.mu
	greeted bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	SessionID    uuid.UUID
	Event        events.Event
	ConnectionID string // Optional: if set, only send to this connection

	// Greeting, when non-nil, is the opening frames for ConnectionID.
	// Broadcasts queued ahead of it are not delivered to that connection.
	Greeting []events.Event
}

// ConnectionStats summarizes the live pools
type ConnectionStats struct {
	TotalConnections   int            `json:"total_connections"`
	ActiveSessions     int            `json:"active_sessions"`
	SessionConnections map[string]int `json:"session_connections"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		BroadcastBuffer: 1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sessionConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, config.BroadcastBuffer),
	}
}

// SetHooks installs the receiver for client messages and drained pools.
// Must be called before any connection is accepted.
func (cm *ConnectionManager) SetHooks(hooks ConnectionHooks) {
	cm.hooks = hooks
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Upgrade upgrades an HTTP connection to WebSocket without registering it
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return conn, nil
}

// Attach registers an upgraded socket with a session pool and starts its pumps.
// greeting, if set, builds the frames the connection receives before any broadcast
// queued after this call. Attach fails without registering when the broadcast
// channel is full.
func (cm *ConnectionManager) Attach(conn *websocket.Conn, sessionID uuid.UUID, clientID string, greeting func(c *Connection) []events.Event) (*Connection, error) {
	connection := &Connection{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		SessionID:   sessionID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	frames := []events.Event{}
	if greeting != nil {
		frames = append(frames, greeting(connection)...)
	}
	if err := cm.registerConnection(connection, frames); err != nil {
		return nil, err
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("client_id", clientID).
		Str("session_id", sessionID.String()).
		Msg("WebSocket connection established")

	return connection, nil
}

// ConnectionCount returns the number of connections in a session pool
func (cm *ConnectionManager) ConnectionCount(sessionID uuid.UUID) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.sessionConnections[sessionID])
}

// registerConnection queues the greeting and adds conn to its pool in one step,
// so the broadcast loop cannot see the greeting before the connection
func (cm *ConnectionManager) registerConnection(conn *Connection, greeting []events.Event) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	select {
	case cm.broadcastCh <- BroadcastMessage{SessionID: conn.SessionID, ConnectionID: conn.ID, Greeting: greeting}:
	default:
		return fmt.Errorf("%w: cannot greet connection %s", ErrBroadcastFull, conn.ID)
	}

	if cm.sessionConnections[conn.SessionID] == nil {
		cm.sessionConnections[conn.SessionID] = make(map[*Connection]bool)
	}
	cm.sessionConnections[conn.SessionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("session_id", conn.SessionID.String()).
		Int("total_connections", len(cm.sessionConnections[conn.SessionID])).
		Msg("connection registered")
	return nil
}

// unregisterConnection removes a connection; the drained hook runs after the lock is released
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	drained := false

	cm.mu.Lock()
	if connections, exists := cm.sessionConnections[conn.SessionID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			close(conn.Send)

			if len(connections) == 0 {
				delete(cm.sessionConnections, conn.SessionID)
				drained = true
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("client_id", conn.ClientID).
				Str("session_id", conn.SessionID.String()).
				Dur("connected_for", time.Since(conn.ConnectedAt)).
				Msg("connection unregistered")
		}
	}
	cm.mu.Unlock()

	if drained && cm.hooks != nil {
		cm.hooks.SessionDrained(conn.SessionID)
	}
}

// BroadcastToSession queues an event for every connection on the session
func (cm *ConnectionManager) BroadcastToSession(sessionID uuid.UUID, event events.Event) {
	select {
	case cm.broadcastCh <- BroadcastMessage{SessionID: sessionID, Event: event}:
	default:
		log.Warn().Str("session_id", sessionID.String()).Msg("broadcast channel full, dropping message")
	}
}

// SendToConnection queues an event for a single connection
func (cm *ConnectionManager) SendToConnection(c *Connection, event events.Event) {
	select {
	case cm.broadcastCh <- BroadcastMessage{SessionID: c.SessionID, Event: event, ConnectionID: c.ID}:
	default:
		log.Warn().
			Str("session_id", c.SessionID.String()).
			Str("connection_id", c.ID).
			Msg("broadcast channel full, dropping connection message")
	}
}

// Sink returns an events.Sink that broadcasts into the event's session pool
func (cm *ConnectionManager) Sink() events.Sink {
	return events.SinkFunc(func(e events.Event) {
		cm.BroadcastToSession(e.SessionID, e)
	})
}

// handleBroadcast sends under the read lock so no Send channel can be closed mid-send
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	if message.Greeting != nil {
		cm.handleGreeting(message)
		return
	}

	eventData, err := message.Event.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	var delivered int
	var slow []*Connection

	cm.mu.RLock()
	for conn := range cm.sessionConnections[message.SessionID] {
		if !conn.greeted || (message.ConnectionID != "" && conn.ID != message.ConnectionID) {
			continue
		}
		select {
		case conn.Send <- eventData:
			delivered++
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("client_id", conn.ClientID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("session_id", message.SessionID.String()).
		Int("connections", delivered).
		Msg("event broadcasted")
}

// handleGreeting queues the opening frames and opens the connection to broadcasts
func (cm *ConnectionManager) handleGreeting(message BroadcastMessage) {
	var target *Connection
	overflow := false

	cm.mu.Lock()
	for conn := range cm.sessionConnections[message.SessionID] {
		if conn.ID == message.ConnectionID {
			target = conn
			break
		}
	}
	if target != nil {
		target.greeted = true
		for _, e := range message.Greeting {
			data, err := e.Marshal()
			if err != nil {
				log.Error().Err(err).Str("event_type", string(e.Type)).Msg("failed to marshal greeting")
				continue
			}
			select {
			case target.Send <- data:
			default:
				overflow = true
			}
		}
	}
	cm.mu.Unlock()

	// the connection left before its greeting was processed
	if target == nil {
		return
	}
	if overflow {
		log.Warn().
			Str("connection_id", target.ID).
			Msg("connection send buffer full during greeting, closing connection")
		cm.unregisterConnection(target)
		target.Conn.Close()
		return
	}

	log.Debug().
		Str("connection_id", target.ID).
		Str("session_id", message.SessionID.String()).
		Int("frames", len(message.Greeting)).
		Msg("connection greeted")
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveSessions:     len(cm.sessionConnections),
		SessionConnections: make(map[string]int, len(cm.sessionConnections)),
	}
	for sessionID, connections := range cm.sessionConnections {
		stats.TotalConnections += len(connections)
		stats.SessionConnections[sessionID.String()] = len(connections)
	}
	return stats
}

// closeAll drops every connection; used on shutdown
func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.sessionConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		conn.Conn.Close()
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds client frames to the hooks until the socket closes
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.hooks != nil {
			c.Manager.hooks.HandleMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
