package events

import (
	"time"
)

// Event payload types that are shared between the touch core, the gateway and the relay

// PointerState is one circle as the presentation layer draws it
type PointerState struct {
	ID    int64   `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// PointersUpdatedPayload is the payload for a PointersUpdated event
type PointersUpdatedPayload struct {
	Phase        string         `json:"phase"`
	Pointers     []PointerState `json:"pointers"`
	LastActivity time.Time      `json:"last_activity"`
}

// PhaseChangedPayload is the payload for a PhaseChanged event
type PhaseChangedPayload struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// GroupAssignment places one pointer into a group
type GroupAssignment struct {
	PointerID  int64  `json:"pointer_id"`
	GroupIndex int    `json:"group_index"`
	Color      string `json:"color"`
}

// GroupsAssignedPayload is the payload for a GroupsAssigned event
type GroupsAssignedPayload struct {
	GroupCount  int               `json:"group_count"`
	Assignments []GroupAssignment `json:"assignments"`
	ResolvedAt  time.Time         `json:"resolved_at"`
}

// WinnerPickedPayload is the payload for a WinnerPicked event
type WinnerPickedPayload struct {
	WinnerID     int64     `json:"winner_id"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Color        string    `json:"color"`
	ExpandRadius float64   `json:"expand_radius"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// ModeChangedPayload is the payload for a ModeChanged event
type ModeChangedPayload struct {
	Mode       string    `json:"mode"`
	GroupCount int       `json:"group_count"`
	ChangedAt  time.Time `json:"changed_at"`
}

// WelcomePayload is sent to a connection right after the upgrade
type WelcomePayload struct {
	SessionID    string `json:"session_id"`
	ConnectionID string `json:"connection_id"`
	InactivityMs int64  `json:"inactivity_ms"`
}

// CommandRejectedPayload tells a single connection its message was not applied
type CommandRejectedPayload struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}
