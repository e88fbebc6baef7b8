package touch

import (
	"fmt"
	"math/rand"
)

const (
	MinGroupCount = 2
	MaxGroupCount = 4
)

// DefaultPalette holds the distinguishable pointer colors
var DefaultPalette = []string{
	"#FF3B30", // red
	"#007AFF", // blue
	"#4CD964", // green
	"#FF9500", // orange
	"#5856D6", // purple
	"#FFD60A", // yellow
	"#00C7BE", // teal
	"#FF2D55", // pink
	"#8E8E93", // gray
	"#34C759", // lime
}

// GroupPalettes maps a group count to the fixed color of each group index
type GroupPalettes map[int][]string

// DefaultGroupPalettes returns hues spaced evenly around the wheel at 70% saturation, 50% lightness
func DefaultGroupPalettes() GroupPalettes {
	return GroupPalettes{
		2: {"#D92626", "#26D9D9"},
		3: {"#D92626", "#26D926", "#2626D9"},
		4: {"#D92626", "#80D926", "#26D9D9", "#8026D9"},
	}
}

// ValidGroupCount reports whether n groups can be assigned
func ValidGroupCount(n int) bool {
	return n >= MinGroupCount && n <= MaxGroupCount
}

// Validate checks that every supported group count has exactly that many colors
func (g GroupPalettes) Validate() error {
	for n := MinGroupCount; n <= MaxGroupCount; n++ {
		colors, ok := g[n]
		if !ok {
			return fmt.Errorf("%w: no colors for %d groups", ErrInvalidPalette, n)
		}
		if len(colors) != n {
			return fmt.Errorf("%w: %d groups need %d colors, got %d", ErrInvalidPalette, n, n, len(colors))
		}
	}
	return nil
}

// Color returns the color of group index for groupCount groups
func (g GroupPalettes) Color(groupCount, index int) string {
	return g[groupCount][index%groupCount]
}

// Palette hands out colors so that no two holders share one
type Palette struct {
	colors []string
	inUse  map[string]bool
	rng    *rand.Rand
}

// NewPalette builds a palette over colors, drawing free colors with rng
func NewPalette(colors []string, rng *rand.Rand) (*Palette, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: no colors", ErrInvalidPalette)
	}
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate color %s", ErrInvalidPalette, c)
		}
		seen[c] = true
	}
	return &Palette{
		colors: append([]string(nil), colors...),
		inUse:  make(map[string]bool, len(colors)),
		rng:    rng,
	}, nil
}

// Allocate picks a random free color and marks it used
func (p *Palette) Allocate() (string, error) {
	free := make([]string, 0, len(p.colors))
	for _, c := range p.colors {
		if !p.inUse[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return "", ErrPaletteExhausted
	}
	c := free[p.rng.Intn(len(free))]
	p.inUse[c] = true
	return c, nil
}

// Release returns a color to the free set
func (p *Palette) Release(color string) {
	delete(p.inUse, color)
}

// Reset frees every color
func (p *Palette) Reset() {
	clear(p.inUse)
}

func (p *Palette) Cap() int  { return len(p.colors) }
func (p *Palette) Free() int { return len(p.colors) - len(p.inUse) }
