package terminal

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mcdev12/chooser/go/internal/touch"
)

const (
	discRadius    = 3.0
	expandPeriod  = time.Second
	blinkInterval = 400 * time.Millisecond
)

var statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)

// Renderer paints a session state onto a tcell screen
type Renderer struct {
	screen tcell.Screen
	colors map[string]tcell.Color
}

func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		colors: make(map[string]tcell.Color),
	}
}

// Surface is the drawable area in surface units; the last row holds the status line
func (r *Renderer) Surface() (float64, float64) {
	w, h := r.screen.Size()
	return float64(w), float64(max(h-1, 1)) * cellAspect
}

// Draw renders st as it should look at now
func (r *Renderer) Draw(st touch.SessionState, now time.Time) {
	r.screen.Clear()
	w, h := r.screen.Size()
	rows := h - 1

	radius := discRadius
	visible := true
	if st.Outcome != nil {
		elapsed := now.Sub(st.Outcome.ResolvedAt)
		switch {
		case st.Outcome.Pick != nil:
			radius = expandedRadius(st.Outcome.Pick.ExpandRadius, elapsed)
		case st.Outcome.Groups != nil:
			visible = elapsed < 0 || (elapsed/blinkInterval)%2 == 0
		}
	}

	if visible {
		for _, p := range st.Pointers {
			r.drawDisc(p, radius, w, rows)
		}
	}

	r.drawStatus(st, w, h)
	r.screen.Show()
}

func (r *Renderer) drawDisc(p touch.Pointer, radius float64, w, rows int) {
	style := tcell.StyleDefault.Background(r.color(p.Color))

	minX := max(int(math.Floor(p.Position.X-radius)), 0)
	maxX := min(int(math.Ceil(p.Position.X+radius)), w-1)
	minY := max(int(math.Floor((p.Position.Y-radius)/cellAspect)), 0)
	maxY := min(int(math.Ceil((p.Position.Y+radius)/cellAspect)), rows-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c := CellToPoint(x, y)
			if math.Hypot(c.X-p.Position.X, c.Y-p.Position.Y) <= radius {
				r.screen.SetContent(x, y, ' ', nil, style)
			}
		}
	}
}

func (r *Renderer) drawStatus(st touch.SessionState, w, h int) {
	mode := string(st.Mode)
	if st.Mode == touch.ModeGroupSplitter {
		mode = fmt.Sprintf("%s(%d)", st.Mode, st.GroupCount)
	}
	line := fmt.Sprintf(" %s  %s  pointers:%d   [p] pick one  [2-4] groups  [r] reset  [q] quit",
		mode, st.Phase, len(st.Pointers))

	y := h - 1
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(line) {
			ch = rune(line[x])
		}
		r.screen.SetContent(x, y, ch, nil, statusStyle)
	}
}

// color converts a #RRGGBB palette entry, caching the result
func (r *Renderer) color(hex string) tcell.Color {
	if c, ok := r.colors[hex]; ok {
		return c
	}
	c := HexColor(hex)
	r.colors[hex] = c
	return c
}

// HexColor converts a palette entry to a true-color tcell color, white if unparsable
func HexColor(hex string) tcell.Color {
	col, err := colorful.Hex(hex)
	if err != nil {
		return tcell.ColorWhite
	}
	cr, cg, cb := col.RGB255()
	return tcell.NewRGBColor(int32(cr), int32(cg), int32(cb))
}

// expandedRadius eases the winner's disc out to target over expandPeriod
func expandedRadius(target float64, elapsed time.Duration) float64 {
	if target <= discRadius || elapsed <= 0 {
		return discRadius
	}
	t := math.Min(float64(elapsed)/float64(expandPeriod), 1)
	eased := 1 - (1-t)*(1-t)
	return discRadius + (target-discRadius)*eased
}
