package touch

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/rs/zerolog/log"
)

// Options configures a new session. Zero fields take defaults.
type Options struct {
	ID            uuid.UUID
	Clock         clockwork.Clock
	Rand          *rand.Rand
	Inactivity    time.Duration
	Palette       []string
	GroupPalettes GroupPalettes
	Mode          Mode
	GroupCount    int
	Sink          events.Sink
}

// Session is the phase machine for one surface: idle -> active -> resolved -> idle.
// Every handler runs to completion under mu; the inactivity callback is the only
// asynchronous entry and is validated against the current arm token.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	clock    clockwork.Clock
	sink     events.Sink
	registry *Registry
	timer    *InactivityTimer
	resolver *Resolver

	phase        Phase
	mode         Mode
	groupCount   int
	armed        uint64
	lastActivity time.Time
	outcome      *Outcome
	surface      *Surface
	closed       bool
}

// NewSession validates opts and returns an idle session
func NewSession(opts Options) (*Session, error) {
	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Palette == nil {
		opts.Palette = DefaultPalette
	}
	if opts.GroupPalettes == nil {
		opts.GroupPalettes = DefaultGroupPalettes()
	}
	if opts.Mode == "" {
		opts.Mode = ModeGroupSplitter
	}
	if opts.GroupCount == 0 {
		opts.GroupCount = MinGroupCount
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}

	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if !ValidGroupCount(opts.GroupCount) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupCount, opts.GroupCount)
	}
	if err := opts.GroupPalettes.Validate(); err != nil {
		return nil, err
	}
	palette, err := NewPalette(opts.Palette, opts.Rand)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:         opts.ID,
		clock:      opts.Clock,
		sink:       opts.Sink,
		registry:   NewRegistry(palette),
		resolver:   NewResolver(opts.Rand, opts.GroupPalettes),
		phase:      PhaseIdle,
		mode:       opts.Mode,
		groupCount: opts.GroupCount,
	}
	s.timer = NewInactivityTimer(opts.Clock, opts.Inactivity, s.handleInactivity)
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Inactivity is the resolve delay this session was built with
func (s *Session) Inactivity() time.Duration { return s.timer.Duration() }

// PointerDown registers a new contact or moves a known one. A down while
// resolved discards the outcome and starts a new round with this pointer.
func (s *Session) PointerDown(id PointerID, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.phase == PhaseResolved {
		s.reset()
		log.Debug().
			Str("session_id", s.id.String()).
			Int64("pointer_id", int64(id)).
			Msg("new touch discarded previous outcome")
	}

	if _, err := s.registry.Upsert(id, Point{X: x, Y: y}); err != nil {
		// palette exhausted: no circle, but still activity
		log.Debug().
			Err(err).
			Str("session_id", s.id.String()).
			Int64("pointer_id", int64(id)).
			Msg("ignoring pointer")
		if s.phase == PhaseIdle {
			return nil
		}
	}

	s.markActivity()
	if s.phase != PhaseActive {
		s.setPhase(PhaseActive)
	}
	s.emitPointers()
	return nil
}

// PointerMove updates the position of a known pointer while active
func (s *Session) PointerMove(id PointerID, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseActive {
		return nil
	}
	if !s.registry.Move(id, Point{X: x, Y: y}) {
		return nil
	}

	s.markActivity()
	s.emitPointers()
	return nil
}

// PointerUp removes a pointer while active. While resolved the circle stays.
func (s *Session) PointerUp(id PointerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseActive {
		return nil
	}
	if !s.registry.Remove(id) {
		return nil
	}

	if s.registry.Len() == 0 {
		s.timer.Cancel()
		s.armed = 0
		s.setPhase(PhaseIdle)
	}
	s.emitPointers()
	return nil
}

// PointerCancel handles a contact the platform aborted; same as PointerUp
func (s *Session) PointerCancel(id PointerID) error {
	return s.PointerUp(id)
}

// SetMode switches the resolution mode. groupCount is only read for
// ModeGroupSplitter. An accepted change while a round is running resets to idle.
func (s *Session) SetMode(mode Mode, groupCount int) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if mode == ModeGroupSplitter {
		if !ValidGroupCount(groupCount) {
			return fmt.Errorf("%w: %d", ErrInvalidGroupCount, groupCount)
		}
	} else {
		groupCount = s.groupCount
	}
	if mode == s.mode && groupCount == s.groupCount {
		return nil
	}

	s.mode = mode
	s.groupCount = groupCount

	if s.phase != PhaseIdle {
		s.reset()
		s.setPhase(PhaseIdle)
		s.emitPointers()
	}

	log.Info().
		Str("session_id", s.id.String()).
		Str("mode", string(mode)).
		Int("group_count", groupCount).
		Msg("mode changed")

	s.emit(events.TypeModeChanged, events.ModeChangedPayload{
		Mode:       string(mode),
		GroupCount: groupCount,
		ChangedAt:  s.clock.Now(),
	})
	return nil
}

// SetSurface records the drawable area so pick-one can size its expansion
func (s *Session) SetSurface(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %.0fx%.0f", ErrInvalidSurface, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.surface = &Surface{Width: width, Height: height}
	return nil
}

// State returns a copy of the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// WithState runs f on a copy of the state while holding the session lock.
// No event is emitted while f runs, so anything f subscribes to the sink sees
// exactly the events that follow the snapshot. f must not call back into s.
func (s *Session) WithState(f func(st SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.stateLocked())
}

func (s *Session) stateLocked() SessionState {
	st := SessionState{
		Phase:        s.phase,
		Mode:         s.mode,
		GroupCount:   s.groupCount,
		Pointers:     s.registry.Snapshot(),
		LastActivity: s.lastActivity,
	}
	if s.outcome != nil {
		o := *s.outcome
		if o.Groups != nil {
			g := *o.Groups
			g.Assignments = append([]GroupAssignment(nil), g.Assignments...)
			o.Groups = &g
		}
		if o.Pick != nil {
			p := *o.Pick
			o.Pick = &p
		}
		st.Outcome = &o
	}
	if s.surface != nil {
		sf := *s.surface
		st.Surface = &sf
	}
	return st
}

// Close cancels the pending deadline; later events return ErrSessionClosed
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.timer.Cancel()
	s.armed = 0
}

func (s *Session) handleInactivity(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token != s.armed || s.phase != PhaseActive {
		return
	}
	s.armed = 0

	pointers := s.registry.Snapshot()
	if len(pointers) == 0 {
		return
	}

	now := s.clock.Now()
	outcome := &Outcome{Mode: s.mode, ResolvedAt: now}

	switch s.mode {
	case ModeGroupSplitter:
		groups := s.resolver.ResolveGroups(pointers, s.groupCount)
		for _, a := range groups.Assignments {
			s.registry.Recolor(a.PointerID, a.Color)
		}
		outcome.Groups = &groups
	case ModePickOne:
		pick := s.resolver.ResolvePick(pointers)
		pick.ExpandRadius = s.expandRadius(pick.Position)
		s.registry.RetainOnly(pick.WinnerID)
		outcome.Pick = &pick
	}

	s.outcome = outcome
	s.setPhase(PhaseResolved)
	s.emitOutcome(outcome)
	s.emitPointers()
}

// reset clears pointers, outcome and deadline without announcing a phase
func (s *Session) reset() {
	s.registry.Clear()
	s.outcome = nil
	s.timer.Cancel()
	s.armed = 0
}

func (s *Session) markActivity() {
	s.lastActivity = s.clock.Now()
	s.armed = s.timer.Touch()
}

func (s *Session) setPhase(to Phase) {
	from := s.phase
	s.phase = to

	log.Debug().
		Str("session_id", s.id.String()).
		Stringer("from", from).
		Stringer("to", to).
		Msg("phase changed")

	s.emit(events.TypePhaseChanged, events.PhaseChangedPayload{
		From:      from.String(),
		To:        to.String(),
		ChangedAt: s.clock.Now(),
	})
}

// expandRadius reaches the farthest surface corner from p, or 0 without a surface
func (s *Session) expandRadius(p Point) float64 {
	if s.surface == nil {
		return 0
	}
	dx := math.Max(p.X, s.surface.Width-p.X)
	dy := math.Max(p.Y, s.surface.Height-p.Y)
	return math.Hypot(dx, dy)
}

func (s *Session) emitPointers() {
	pointers := s.registry.Snapshot()
	states := make([]events.PointerState, len(pointers))
	for i, p := range pointers {
		states[i] = events.PointerState{
			ID:    int64(p.ID),
			X:     p.Position.X,
			Y:     p.Position.Y,
			Color: p.Color,
		}
	}
	s.emit(events.TypePointersUpdated, events.PointersUpdatedPayload{
		Phase:        s.phase.String(),
		Pointers:     states,
		LastActivity: s.lastActivity,
	})
}

func (s *Session) emitOutcome(o *Outcome) {
	switch {
	case o.Groups != nil:
		log.Info().
			Str("session_id", s.id.String()).
			Int("group_count", o.Groups.GroupCount).
			Int("pointers", len(o.Groups.Assignments)).
			Msg("groups assigned")
	case o.Pick != nil:
		log.Info().
			Str("session_id", s.id.String()).
			Int64("winner_id", int64(o.Pick.WinnerID)).
			Msg("winner picked")
	default:
		return
	}
	s.sink.Deliver(OutcomeEvent(s.id, s.clock.Now(), o))
}

// OutcomeEvent renders o as the GroupsAssigned or WinnerPicked event
func OutcomeEvent(sessionID uuid.UUID, at time.Time, o *Outcome) events.Event {
	if o.Groups != nil {
		assignments := make([]events.GroupAssignment, len(o.Groups.Assignments))
		for i, a := range o.Groups.Assignments {
			assignments[i] = events.GroupAssignment{
				PointerID:  int64(a.PointerID),
				GroupIndex: a.GroupIndex,
				Color:      a.Color,
			}
		}
		return events.New(sessionID, events.TypeGroupsAssigned, at, events.GroupsAssignedPayload{
			GroupCount:  o.Groups.GroupCount,
			Assignments: assignments,
			ResolvedAt:  o.ResolvedAt,
		})
	}
	return events.New(sessionID, events.TypeWinnerPicked, at, events.WinnerPickedPayload{
		WinnerID:     int64(o.Pick.WinnerID),
		X:            o.Pick.Position.X,
		Y:            o.Pick.Position.Y,
		Color:        o.Pick.Color,
		ExpandRadius: o.Pick.ExpandRadius,
		ResolvedAt:   o.ResolvedAt,
	})
}

func (s *Session) emit(t events.Type, payload any) {
	s.sink.Deliver(events.New(s.id, t, s.clock.Now(), payload))
}
