package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/chooser/go/internal/touch"
)

// Client message types
const (
	CommandPointerDown   = "pointer_down"
	CommandPointerMove   = "pointer_move"
	CommandPointerUp     = "pointer_up"
	CommandPointerCancel = "pointer_cancel"
	CommandSetMode       = "set_mode"
	CommandSetSurface    = "set_surface"
)

// ClientMessage is the JSON frame a client sends over the websocket
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PointerPayload carries pointer_down and pointer_move
type PointerPayload struct {
	ID *int64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PointerIDPayload carries pointer_up and pointer_cancel
type PointerIDPayload struct {
	ID *int64 `json:"id"`
}

type SetModePayload struct {
	Mode       string `json:"mode"`
	GroupCount int    `json:"group_count"`
}

type SetSurfacePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Command is a decoded client message ready to run against a session
type Command interface {
	Name() string
	Apply(s *touch.Session) error
}

type pointerDown struct {
	id   touch.PointerID
	x, y float64
}

func (c pointerDown) Name() string { return CommandPointerDown }
func (c pointerDown) Apply(s *touch.Session) error {
	return s.PointerDown(c.id, c.x, c.y)
}

type pointerMove struct {
	id   touch.PointerID
	x, y float64
}

func (c pointerMove) Name() string { return CommandPointerMove }
func (c pointerMove) Apply(s *touch.Session) error {
	return s.PointerMove(c.id, c.x, c.y)
}

type pointerUp struct{ id touch.PointerID }

func (c pointerUp) Name() string                 { return CommandPointerUp }
func (c pointerUp) Apply(s *touch.Session) error { return s.PointerUp(c.id) }

type pointerCancel struct{ id touch.PointerID }

func (c pointerCancel) Name() string                 { return CommandPointerCancel }
func (c pointerCancel) Apply(s *touch.Session) error { return s.PointerCancel(c.id) }

type setMode struct {
	mode       touch.Mode
	groupCount int
}

func (c setMode) Name() string { return CommandSetMode }
func (c setMode) Apply(s *touch.Session) error {
	return s.SetMode(c.mode, c.groupCount)
}

type setSurface struct{ width, height float64 }

func (c setSurface) Name() string { return CommandSetSurface }
func (c setSurface) Apply(s *touch.Session) error {
	return s.SetSurface(c.width, c.height)
}

// DecodeCommand parses a raw client frame. The returned type name is set
// whenever the envelope itself parsed, so rejections can echo it back.
func DecodeCommand(raw []byte) (string, Command, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	switch msg.Type {
	case CommandPointerDown, CommandPointerMove:
		var p PointerPayload
		if err := decodeData(msg, &p); err != nil {
			return msg.Type, nil, err
		}
		if p.ID == nil {
			return msg.Type, nil, fmt.Errorf("%w: %s requires id", ErrMalformedCommand, msg.Type)
		}
		if msg.Type == CommandPointerDown {
			return msg.Type, pointerDown{id: touch.PointerID(*p.ID), x: p.X, y: p.Y}, nil
		}
		return msg.Type, pointerMove{id: touch.PointerID(*p.ID), x: p.X, y: p.Y}, nil

	case CommandPointerUp, CommandPointerCancel:
		var p PointerIDPayload
		if err := decodeData(msg, &p); err != nil {
			return msg.Type, nil, err
		}
		if p.ID == nil {
			return msg.Type, nil, fmt.Errorf("%w: %s requires id", ErrMalformedCommand, msg.Type)
		}
		if msg.Type == CommandPointerUp {
			return msg.Type, pointerUp{id: touch.PointerID(*p.ID)}, nil
		}
		return msg.Type, pointerCancel{id: touch.PointerID(*p.ID)}, nil

	case CommandSetMode:
		var p SetModePayload
		if err := decodeData(msg, &p); err != nil {
			return msg.Type, nil, err
		}
		mode, err := touch.ParseMode(p.Mode)
		if err != nil {
			return msg.Type, nil, err
		}
		return msg.Type, setMode{mode: mode, groupCount: p.GroupCount}, nil

	case CommandSetSurface:
		var p SetSurfacePayload
		if err := decodeData(msg, &p); err != nil {
			return msg.Type, nil, err
		}
		return msg.Type, setSurface{width: p.Width, height: p.Height}, nil

	default:
		return msg.Type, nil, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
	}
}

func decodeData(msg ClientMessage, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformedCommand, msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedCommand, msg.Type, err)
	}
	return nil
}
