package touch

import (
	"fmt"
	"math/rand"
	"time"
)

// GroupAssignment places one pointer into a group
type GroupAssignment struct {
	PointerID  PointerID `json:"pointer_id"`
	GroupIndex int       `json:"group_index"`
	Color      string    `json:"color"`
}

// GroupOutcome lists assignments in shuffled order
type GroupOutcome struct {
	GroupCount  int               `json:"group_count"`
	Assignments []GroupAssignment `json:"assignments"`
}

// Colors maps each pointer to its group color
func (g GroupOutcome) Colors() map[PointerID]string {
	out := make(map[PointerID]string, len(g.Assignments))
	for _, a := range g.Assignments {
		out[a.PointerID] = a.Color
	}
	return out
}

// Sizes counts members per group index
func (g GroupOutcome) Sizes() []int {
	sizes := make([]int, g.GroupCount)
	for _, a := range g.Assignments {
		sizes[a.GroupIndex]++
	}
	return sizes
}

// PickOutcome is the single surviving pointer
type PickOutcome struct {
	WinnerID     PointerID `json:"winner_id"`
	Position     Point     `json:"position"`
	Color        string    `json:"color"`
	ExpandRadius float64   `json:"expand_radius"`
}

// Outcome is what a resolved session shows; exactly one of Groups and Pick is set
type Outcome struct {
	Mode       Mode          `json:"mode"`
	Groups     *GroupOutcome `json:"groups,omitempty"`
	Pick       *PickOutcome  `json:"pick,omitempty"`
	ResolvedAt time.Time     `json:"resolved_at"`
}

// Resolver turns an active pointer set into an outcome
type Resolver struct {
	rng    *rand.Rand
	groups GroupPalettes
}

// NewResolver uses rng for every draw; pass a fixed seed for reproducible results
func NewResolver(rng *rand.Rand, groups GroupPalettes) *Resolver {
	if groups == nil {
		groups = DefaultGroupPalettes()
	}
	return &Resolver{rng: rng, groups: groups}
}

// ResolveGroups shuffles the pointers and deals them round-robin into groupCount groups.
// Callers must not pass an empty set or an unsupported group count.
func (r *Resolver) ResolveGroups(pointers []Pointer, groupCount int) GroupOutcome {
	if len(pointers) == 0 {
		panic(ErrResolveOnEmpty)
	}
	if !ValidGroupCount(groupCount) {
		panic(fmt.Errorf("%w: %d", ErrInvalidGroupCount, groupCount))
	}

	order := make([]PointerID, len(pointers))
	for i, p := range pointers {
		order[i] = p.ID
	}
	r.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	out := GroupOutcome{
		GroupCount:  groupCount,
		Assignments: make([]GroupAssignment, len(order)),
	}
	for i, id := range order {
		g := i % groupCount
		out.Assignments[i] = GroupAssignment{
			PointerID:  id,
			GroupIndex: g,
			Color:      r.groups.Color(groupCount, g),
		}
	}
	return out
}

// ResolvePick draws one pointer uniformly. Callers must not pass an empty set.
func (r *Resolver) ResolvePick(pointers []Pointer) PickOutcome {
	if len(pointers) == 0 {
		panic(ErrResolveOnEmpty)
	}
	w := pointers[r.rng.Intn(len(pointers))]
	return PickOutcome{
		WinnerID: w.ID,
		Position: w.Position,
		Color:    w.Color,
	}
}
