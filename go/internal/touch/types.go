package touch

import (
	"fmt"
	"time"
)

// PointerID is the identifier the input source assigns to one contact
type PointerID int64

// Point is a surface-local coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pointer is one tracked contact and the circle drawn for it
type Pointer struct {
	ID       PointerID `json:"id"`
	Position Point     `json:"position"`
	Color    string    `json:"color"`
}

// Phase is the coarse state of a session
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Mode selects how an active round resolves
type Mode string

const (
	ModeGroupSplitter Mode = "groupSplitter"
	ModePickOne       Mode = "pickOne"
)

// ParseMode accepts the wire names of the two modes
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGroupSplitter, ModePickOne:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Surface is the drawable area a session's coordinates refer to
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SessionState is a read-only copy of everything a session holds
type SessionState struct {
	Phase        Phase     `json:"phase"`
	Mode         Mode      `json:"mode"`
	GroupCount   int       `json:"group_count"`
	Pointers     []Pointer `json:"pointers"`
	LastActivity time.Time `json:"last_activity"`
	Outcome      *Outcome  `json:"outcome,omitempty"`
	Surface      *Surface  `json:"surface,omitempty"`
}
