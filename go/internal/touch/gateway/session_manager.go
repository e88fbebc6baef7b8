package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/rs/zerolog/log"
)

// SessionManager owns the live sessions and routes client commands to them.
// A session lives while at least one connection is attached to it.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*touch.Session

	options     touch.Options
	newRand     func() *rand.Rand
	connections *ConnectionManager
	relay       events.Sink
}

// SessionSummary is one row of the active sessions listing
type SessionSummary struct {
	SessionID    string     `json:"session_id"`
	Phase        string     `json:"phase"`
	Mode         string     `json:"mode"`
	GroupCount   int        `json:"group_count"`
	PointerCount int        `json:"pointer_count"`
	Connections  int        `json:"connections"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// SessionStateResponse is the full state of one session
type SessionStateResponse struct {
	SessionID    string                `json:"session_id"`
	Phase        string                `json:"phase"`
	Mode         string                `json:"mode"`
	GroupCount   int                   `json:"group_count"`
	Pointers     []events.PointerState `json:"pointers"`
	LastActivity *time.Time            `json:"last_activity,omitempty"`
	Outcome      *touch.Outcome        `json:"outcome,omitempty"`
	Surface      *touch.Surface        `json:"surface,omitempty"`
	Connections  int                   `json:"connections"`
	InactivityMs int64                 `json:"inactivity_ms"`
}

// NewSessionManager creates a manager and installs itself as the connection hooks.
// options is the template for every new session; its ID, Rand and Sink are replaced.
// relay may be nil.
func NewSessionManager(options touch.Options, newRand func() *rand.Rand, cm *ConnectionManager, relay events.Sink) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[uuid.UUID]*touch.Session),
		options:     options,
		newRand:     newRand,
		connections: cm,
		relay:       relay,
	}
	cm.SetHooks(sm)
	return sm
}

// CreateSession starts a new idle session with no connections
func (sm *SessionManager) CreateSession(ctx context.Context) (uuid.UUID, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, err := sm.createLocked(uuid.New())
	if err != nil {
		return uuid.Nil, err
	}
	return s.ID(), nil
}

// Join attaches an upgraded socket to a session, creating the session when
// sessionID is Nil or unknown. The new connection receives Welcome, the current
// mode, a pointer snapshot and, when resolved, the outcome; after that it sees
// exactly the events emitted after the snapshot.
func (sm *SessionManager) Join(conn *websocket.Conn, sessionID uuid.UUID, clientID string) (*Connection, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}
	s, ok := sm.sessions[sessionID]
	created := !ok
	if created {
		var err error
		if s, err = sm.createLocked(sessionID); err != nil {
			return nil, err
		}
	}

	inactivity := s.Inactivity()
	var c *Connection
	var err error
	s.WithState(func(st touch.SessionState) {
		c, err = sm.connections.Attach(conn, sessionID, clientID, func(c *Connection) []events.Event {
			return greetingEvents(sessionID, c.ID, inactivity, st)
		})
	})
	if err != nil {
		if created {
			s.Close()
			delete(sm.sessions, sessionID)
		}
		return nil, err
	}
	return c, nil
}

// Get returns a live session
func (sm *SessionManager) Get(sessionID uuid.UUID) (*touch.Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[sessionID]
	return s, ok
}

// Len returns the number of live sessions
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// GetSessionState implements StateProvider
func (sm *SessionManager) GetSessionState(ctx context.Context, sessionID uuid.UUID) (*SessionStateResponse, error) {
	s, ok := sm.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	st := s.State()
	resp := &SessionStateResponse{
		SessionID:    sessionID.String(),
		Phase:        st.Phase.String(),
		Mode:         string(st.Mode),
		GroupCount:   st.GroupCount,
		Pointers:     pointerStates(st.Pointers),
		LastActivity: optionalTime(st.LastActivity),
		Outcome:      st.Outcome,
		Surface:      st.Surface,
		Connections:  sm.connections.ConnectionCount(sessionID),
		InactivityMs: s.Inactivity().Milliseconds(),
	}
	return resp, nil
}

// GetActiveSessions implements StateProvider
func (sm *SessionManager) GetActiveSessions(ctx context.Context) ([]SessionSummary, error) {
	sm.mu.RLock()
	ids := make([]uuid.UUID, 0, len(sm.sessions))
	live := make([]*touch.Session, 0, len(sm.sessions))
	for id, s := range sm.sessions {
		ids = append(ids, id)
		live = append(live, s)
	}
	sm.mu.RUnlock()

	summaries := make([]SessionSummary, len(live))
	for i, s := range live {
		st := s.State()
		summaries[i] = SessionSummary{
			SessionID:    ids[i].String(),
			Phase:        st.Phase.String(),
			Mode:         string(st.Mode),
			GroupCount:   st.GroupCount,
			PointerCount: len(st.Pointers),
			Connections:  sm.connections.ConnectionCount(ids[i]),
			LastActivity: optionalTime(st.LastActivity),
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SessionID < summaries[j].SessionID
	})
	return summaries, nil
}

// HandleMessage decodes a client frame and applies it to the connection's session
func (sm *SessionManager) HandleMessage(c *Connection, raw []byte) {
	name, cmd, err := DecodeCommand(raw)
	if err != nil {
		sm.reject(c, name, err)
		return
	}

	s, ok := sm.Get(c.SessionID)
	if !ok {
		sm.reject(c, name, ErrSessionNotFound)
		return
	}

	if err := cmd.Apply(s); err != nil {
		sm.reject(c, name, err)
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("session_id", c.SessionID.String()).
		Str("command", name).
		Msg("applied client command")
}

// SessionDrained closes a session once its last connection is gone
func (sm *SessionManager) SessionDrained(sessionID uuid.UUID) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	// a new connection may have joined since the pool emptied
	if sm.connections.ConnectionCount(sessionID) > 0 {
		return
	}
	s, ok := sm.sessions[sessionID]
	if !ok {
		return
	}
	s.Close()
	delete(sm.sessions, sessionID)

	log.Info().Str("session_id", sessionID.String()).Msg("session closed")
}

// CloseAll closes every session; used on shutdown
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, s := range sm.sessions {
		s.Close()
		delete(sm.sessions, id)
	}
}

func (sm *SessionManager) createLocked(id uuid.UUID) (*touch.Session, error) {
	opts := sm.options
	opts.ID = id
	opts.Sink = events.MultiSink{sm.connections.Sink(), sm.relay}
	if sm.newRand != nil {
		opts.Rand = sm.newRand()
	}

	s, err := touch.NewSession(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sm.sessions[id] = s

	log.Info().
		Str("session_id", id.String()).
		Str("mode", string(opts.Mode)).
		Msg("session created")
	return s, nil
}

func (sm *SessionManager) reject(c *Connection, command string, err error) {
	log.Debug().
		Err(err).
		Str("connection_id", c.ID).
		Str("command", command).
		Msg("rejected client command")

	sm.connections.SendToConnection(c, events.New(c.SessionID, events.TypeCommandRejected, time.Now(), events.CommandRejectedPayload{
		Command: command,
		Reason:  err.Error(),
	}))
}

func greetingEvents(sessionID uuid.UUID, connectionID string, inactivity time.Duration, st touch.SessionState) []events.Event {
	now := time.Now()
	greeting := []events.Event{
		events.New(sessionID, events.TypeWelcome, now, events.WelcomePayload{
			SessionID:    sessionID.String(),
			ConnectionID: connectionID,
			InactivityMs: inactivity.Milliseconds(),
		}),
		events.New(sessionID, events.TypeModeChanged, now, events.ModeChangedPayload{
			Mode:       string(st.Mode),
			GroupCount: st.GroupCount,
			ChangedAt:  now,
		}),
		events.New(sessionID, events.TypePointersUpdated, now, pointersPayload(st)),
	}
	if st.Outcome != nil {
		greeting = append(greeting, touch.OutcomeEvent(sessionID, now, st.Outcome))
	}
	return greeting
}

func pointersPayload(st touch.SessionState) events.PointersUpdatedPayload {
	return events.PointersUpdatedPayload{
		Phase:        st.Phase.String(),
		Pointers:     pointerStates(st.Pointers),
		LastActivity: st.LastActivity,
	}
}

func pointerStates(pointers []touch.Pointer) []events.PointerState {
	out := make([]events.PointerState, len(pointers))
	for i, p := range pointers {
		out[i] = events.PointerState{
			ID:    int64(p.ID),
			X:     p.Position.X,
			Y:     p.Position.Y,
			Color: p.Color,
		}
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
