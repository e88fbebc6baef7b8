package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/chooser/go/internal/touch"
)

// cellAspect stretches rows so circles look round in a terminal
const cellAspect = 2.0

// Action is what a key press asks the app to do
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionReset
	ActionSetMode
)

// KeyCommand is a decoded key press
type KeyCommand struct {
	Action     Action
	Mode       touch.Mode
	GroupCount int
}

// DecodeKey maps p, 2-4, r, q and Ctrl-C onto app actions
func DecodeKey(ev *tcell.EventKey) KeyCommand {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return KeyCommand{Action: ActionQuit}
	case tcell.KeyRune:
	default:
		return KeyCommand{}
	}

	switch r := ev.Rune(); r {
	case 'q', 'Q':
		return KeyCommand{Action: ActionQuit}
	case 'r', 'R':
		return KeyCommand{Action: ActionReset}
	case 'p', 'P':
		return KeyCommand{Action: ActionSetMode, Mode: touch.ModePickOne}
	case '2', '3', '4':
		return KeyCommand{Action: ActionSetMode, Mode: touch.ModeGroupSplitter, GroupCount: int(r - '0')}
	default:
		return KeyCommand{}
	}
}

// PointerEventKind is the contact transition a mouse event produced
type PointerEventKind int

const (
	PointerDown PointerEventKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is one synthesized contact transition
type PointerEvent struct {
	Kind     PointerEventKind
	ID       touch.PointerID
	Position touch.Point
}

// left, middle and right buttons act as pointers 1, 2 and 3
var mouseButtons = []struct {
	mask tcell.ButtonMask
	id   touch.PointerID
}{
	{mask: tcell.Button1, id: 1},
	{mask: tcell.Button3, id: 2},
	{mask: tcell.Button2, id: 3},
}

// MouseTracker turns tcell button masks into pointer down/move/up transitions
type MouseTracker struct {
	held map[touch.PointerID]touch.Point
}

func NewMouseTracker() *MouseTracker {
	return &MouseTracker{held: make(map[touch.PointerID]touch.Point)}
}

// Update compares the pressed buttons at cell (x, y) with what was held before
func (m *MouseTracker) Update(buttons tcell.ButtonMask, x, y int) []PointerEvent {
	pos := CellToPoint(x, y)

	var out []PointerEvent
	for _, b := range mouseButtons {
		prev, held := m.held[b.id]
		pressed := buttons&b.mask != 0

		switch {
		case pressed && !held:
			m.held[b.id] = pos
			out = append(out, PointerEvent{Kind: PointerDown, ID: b.id, Position: pos})
		case pressed && prev != pos:
			m.held[b.id] = pos
			out = append(out, PointerEvent{Kind: PointerMove, ID: b.id, Position: pos})
		case !pressed && held:
			delete(m.held, b.id)
			out = append(out, PointerEvent{Kind: PointerUp, ID: b.id, Position: pos})
		}
	}
	return out
}

// Reset forgets every held button
func (m *MouseTracker) Reset() {
	clear(m.held)
}

// CellToPoint returns the surface coordinates of a cell's center
func CellToPoint(x, y int) touch.Point {
	return touch.Point{
		X: float64(x) + 0.5,
		Y: (float64(y) + 0.5) * cellAspect,
	}
}
