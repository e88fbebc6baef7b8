package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/stretchr/testify/assert"
)

func TestDecodeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want KeyCommand
	}{
		{name: "quit", ev: tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), want: KeyCommand{Action: ActionQuit}},
		{name: "ctrl-c", ev: tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), want: KeyCommand{Action: ActionQuit}},
		{name: "reset", ev: tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), want: KeyCommand{Action: ActionReset}},
		{name: "pick one", ev: tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), want: KeyCommand{Action: ActionSetMode, Mode: touch.ModePickOne}},
		{name: "two groups", ev: tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone), want: KeyCommand{Action: ActionSetMode, Mode: touch.ModeGroupSplitter, GroupCount: 2}},
		{name: "four groups", ev: tcell.NewEventKey(tcell.KeyRune, '4', tcell.ModNone), want: KeyCommand{Action: ActionSetMode, Mode: touch.ModeGroupSplitter, GroupCount: 4}},
		{name: "five is nothing", ev: tcell.NewEventKey(tcell.KeyRune, '5', tcell.ModNone), want: KeyCommand{}},
		{name: "arrow is nothing", ev: tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), want: KeyCommand{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DecodeKey(tc.ev))
		})
	}
}

func TestMouseTracker(t *testing.T) {
	t.Parallel()

	m := NewMouseTracker()

	got := m.Update(tcell.Button1, 4, 2)
	assert.Equal(t, []PointerEvent{{Kind: PointerDown, ID: 1, Position: CellToPoint(4, 2)}}, got)

	// holding still produces nothing
	assert.Empty(t, m.Update(tcell.Button1, 4, 2))

	got = m.Update(tcell.Button1|tcell.Button2, 6, 2)
	assert.Equal(t, []PointerEvent{
		{Kind: PointerMove, ID: 1, Position: CellToPoint(6, 2)},
		{Kind: PointerDown, ID: 3, Position: CellToPoint(6, 2)},
	}, got)

	got = m.Update(tcell.Button2, 6, 3)
	assert.Equal(t, []PointerEvent{
		{Kind: PointerUp, ID: 1, Position: CellToPoint(6, 3)},
		{Kind: PointerMove, ID: 3, Position: CellToPoint(6, 3)},
	}, got)

	got = m.Update(tcell.ButtonNone, 6, 3)
	assert.Equal(t, []PointerEvent{{Kind: PointerUp, ID: 3, Position: CellToPoint(6, 3)}}, got)

	got = m.Update(tcell.Button3, 1, 1)
	assert.Equal(t, []PointerEvent{{Kind: PointerDown, ID: 2, Position: CellToPoint(1, 1)}}, got)

	m.Reset()
	assert.Empty(t, m.Update(tcell.ButtonNone, 1, 1))
}

func TestCellToPoint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, touch.Point{X: 10.5, Y: 11}, CellToPoint(10, 5))
}
