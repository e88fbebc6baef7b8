package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type represents the type of session event
type Type string

const (
	TypePointersUpdated Type = "PointersUpdated"
	TypePhaseChanged    Type = "PhaseChanged"
	TypeGroupsAssigned  Type = "GroupsAssigned"
	TypeWinnerPicked    Type = "WinnerPicked"
	TypeModeChanged     Type = "ModeChanged"
	TypeWelcome         Type = "Welcome"
	TypeCommandRejected Type = "CommandRejected"
)

// Event is one outbound notification from a session
type Event struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Type      Type
	Timestamp time.Time
	Payload   any
}

// New stamps a fresh event id on the payload
func New(sessionID uuid.UUID, t Type, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      t,
		Timestamp: at,
		Payload:   payload,
	}
}

// IsOutcome reports whether events of this type carry a resolution
func (t Type) IsOutcome() bool {
	return t == TypeGroupsAssigned || t == TypeWinnerPicked
}

// Wire is the JSON form sent to websocket clients
type Wire struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Marshal encodes the event into its wire form
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.Type, err)
	}
	return json.Marshal(Wire{
		ID:        e.ID.String(),
		SessionID: e.SessionID.String(),
		Type:      e.Type,
		Timestamp: e.Timestamp,
		Data:      data,
	})
}

// ParsePayload decodes wire data into the payload struct for its type
func ParsePayload(w Wire) (any, error) {
	switch w.Type {
	case TypePointersUpdated:
		return decode[PointersUpdatedPayload](w.Data)
	case TypePhaseChanged:
		return decode[PhaseChangedPayload](w.Data)
	case TypeGroupsAssigned:
		return decode[GroupsAssignedPayload](w.Data)
	case TypeWinnerPicked:
		return decode[WinnerPickedPayload](w.Data)
	case TypeModeChanged:
		return decode[ModeChangedPayload](w.Data)
	case TypeWelcome:
		return decode[WelcomePayload](w.Data)
	case TypeCommandRejected:
		return decode[CommandRejectedPayload](w.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", w.Type)
	}
}

func decode[T any](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 {
		return out, fmt.Errorf("empty payload")
	}
	err := json.Unmarshal(data, &out)
	return out, err
}
