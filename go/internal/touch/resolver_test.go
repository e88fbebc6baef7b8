package touch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointersN(n int) []Pointer {
	out := make([]Pointer, n)
	for i := range out {
		out[i] = Pointer{
			ID:       PointerID(100 + i),
			Position: Point{X: float64(i * 10), Y: float64(i * 20)},
			Color:    DefaultPalette[i%len(DefaultPalette)],
		}
	}
	return out
}

func TestResolveGroupsIsBalanced(t *testing.T) {
	t.Parallel()

	r := NewResolver(rand.New(rand.NewSource(42)), nil)
	for n := 1; n <= 10; n++ {
		for g := MinGroupCount; g <= MaxGroupCount; g++ {
			out := r.ResolveGroups(pointersN(n), g)
			require.Len(t, out.Assignments, n)
			assert.Equal(t, g, out.GroupCount)

			for _, a := range out.Assignments {
				assert.GreaterOrEqual(t, a.GroupIndex, 0)
				assert.Less(t, a.GroupIndex, g)
				assert.Equal(t, DefaultGroupPalettes()[g][a.GroupIndex], a.Color)
			}

			sizes := out.Sizes()
			lo, hi := sizes[0], sizes[0]
			for _, s := range sizes {
				lo = min(lo, s)
				hi = max(hi, s)
			}
			assert.LessOrEqual(t, hi-lo, 1, "n=%d g=%d sizes=%v", n, g, sizes)
		}
	}
}

func TestResolveGroupsCoversEveryPointerOnce(t *testing.T) {
	t.Parallel()

	r := NewResolver(rand.New(rand.NewSource(9)), nil)
	in := pointersN(7)
	out := r.ResolveGroups(in, 3)

	colors := out.Colors()
	require.Len(t, colors, len(in))
	for _, p := range in {
		_, ok := colors[p.ID]
		assert.True(t, ok, "pointer %d missing", p.ID)
	}
}

func TestResolveGroupsShufflesWithSeed(t *testing.T) {
	t.Parallel()

	a := NewResolver(rand.New(rand.NewSource(5)), nil).ResolveGroups(pointersN(8), 2)
	b := NewResolver(rand.New(rand.NewSource(5)), nil).ResolveGroups(pointersN(8), 2)
	assert.Equal(t, a, b)
}

func TestResolvePickReturnsInputPointer(t *testing.T) {
	t.Parallel()

	in := pointersN(5)
	byID := make(map[PointerID]Pointer)
	for _, p := range in {
		byID[p.ID] = p
	}

	r := NewResolver(rand.New(rand.NewSource(3)), nil)
	for i := 0; i < 50; i++ {
		out := r.ResolvePick(in)
		p, ok := byID[out.WinnerID]
		require.True(t, ok)
		assert.Equal(t, p.Position, out.Position)
		assert.Equal(t, p.Color, out.Color)
	}
}

func TestResolvePickDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	in := pointersN(6)
	a := NewResolver(rand.New(rand.NewSource(11)), nil).ResolvePick(in)
	b := NewResolver(rand.New(rand.NewSource(11)), nil).ResolvePick(in)
	assert.Equal(t, a.WinnerID, b.WinnerID)
}

func TestResolvePickSinglePointer(t *testing.T) {
	t.Parallel()

	in := pointersN(1)
	out := NewResolver(rand.New(rand.NewSource(1)), nil).ResolvePick(in)
	assert.Equal(t, in[0].ID, out.WinnerID)
}

func TestResolveOnEmptyPanics(t *testing.T) {
	t.Parallel()

	r := NewResolver(rand.New(rand.NewSource(1)), nil)
	assert.PanicsWithValue(t, ErrResolveOnEmpty, func() { r.ResolvePick(nil) })
	assert.PanicsWithValue(t, ErrResolveOnEmpty, func() { r.ResolveGroups(nil, 2) })
	assert.Panics(t, func() { r.ResolveGroups(pointersN(3), 5) })
}
