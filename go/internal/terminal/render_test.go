package terminal

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)
	return screen
}

func background(screen tcell.Screen, x, y int) tcell.Color {
	_, _, style, _ := screen.GetContent(x, y)
	_, bg, _ := style.Decompose()
	return bg
}

func statusLine(screen tcell.Screen) string {
	w, h := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, h-1)
		b.WriteRune(r)
	}
	return b.String()
}

func TestHexColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tcell.NewRGBColor(0xFF, 0x3B, 0x30), HexColor("#FF3B30"))
	assert.Equal(t, tcell.ColorWhite, HexColor("not a color"))
}

func TestExpandedRadius(t *testing.T) {
	t.Parallel()

	assert.Equal(t, discRadius, expandedRadius(50, 0))
	assert.Equal(t, discRadius, expandedRadius(1, time.Second))
	assert.InDelta(t, 50, expandedRadius(50, expandPeriod), 1e-9)
	assert.InDelta(t, 50, expandedRadius(50, 3*expandPeriod), 1e-9)

	half := expandedRadius(50, expandPeriod/2)
	assert.Greater(t, half, discRadius)
	assert.Less(t, half, 50.0)
}

func TestDrawPointers(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen)

	st := touch.SessionState{
		Phase:      touch.PhaseActive,
		Mode:       touch.ModeGroupSplitter,
		GroupCount: 3,
		Pointers: []touch.Pointer{
			{ID: 1, Position: CellToPoint(20, 6), Color: "#FF3B30"},
		},
	}
	r.Draw(st, time.Now())

	red := HexColor("#FF3B30")
	assert.Equal(t, red, background(screen, 20, 6))
	assert.Equal(t, red, background(screen, 22, 6))
	assert.NotEqual(t, red, background(screen, 40, 12))
	assert.Contains(t, statusLine(screen), "groupSplitter(3)")
	assert.Contains(t, statusLine(screen), "active")
}

func TestDrawBlinksResolvedGroups(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen)

	resolvedAt := time.Now()
	st := touch.SessionState{
		Phase:      touch.PhaseResolved,
		Mode:       touch.ModeGroupSplitter,
		GroupCount: 2,
		Pointers: []touch.Pointer{
			{ID: 1, Position: CellToPoint(10, 4), Color: "#D92626"},
		},
		Outcome: &touch.Outcome{
			Mode:       touch.ModeGroupSplitter,
			Groups:     &touch.GroupOutcome{GroupCount: 2},
			ResolvedAt: resolvedAt,
		},
	}

	r.Draw(st, resolvedAt.Add(blinkInterval/2))
	assert.Equal(t, HexColor("#D92626"), background(screen, 10, 4))

	r.Draw(st, resolvedAt.Add(blinkInterval+blinkInterval/2))
	assert.NotEqual(t, HexColor("#D92626"), background(screen, 10, 4))
}

func TestDrawExpandsWinner(t *testing.T) {
	screen := newScreen(t)
	r := NewRenderer(screen)

	resolvedAt := time.Now()
	winner := touch.Pointer{ID: 2, Position: CellToPoint(5, 5), Color: "#007AFF"}
	st := touch.SessionState{
		Phase:    touch.PhaseResolved,
		Mode:     touch.ModePickOne,
		Pointers: []touch.Pointer{winner},
		Outcome: &touch.Outcome{
			Mode: touch.ModePickOne,
			Pick: &touch.PickOutcome{
				WinnerID:     winner.ID,
				Position:     winner.Position,
				Color:        winner.Color,
				ExpandRadius: 100,
			},
			ResolvedAt: resolvedAt,
		},
	}

	blue := HexColor("#007AFF")

	r.Draw(st, resolvedAt)
	assert.NotEqual(t, blue, background(screen, 30, 5))

	r.Draw(st, resolvedAt.Add(expandPeriod))
	assert.Equal(t, blue, background(screen, 30, 5))
	assert.Equal(t, blue, background(screen, 60, 20))
}
