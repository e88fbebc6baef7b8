package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/rs/zerolog/log"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// App drives one local session from the mouse and keyboard
type App struct {
	screen   tcell.Screen
	renderer *Renderer
	tracker  *MouseTracker
	clock    clockwork.Clock
	options  touch.Options
	session  *touch.Session
}

// New builds an app on an initialized screen. options seeds every session the app creates.
func New(screen tcell.Screen, options touch.Options) (*App, error) {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}

	a := &App{
		screen:   screen,
		renderer: NewRenderer(screen),
		tracker:  NewMouseTracker(),
		clock:    options.Clock,
		options:  options,
	}
	if err := a.newSession(); err != nil {
		return nil, err
	}
	return a, nil
}

// Session returns the session currently on screen
func (a *App) Session() *touch.Session { return a.session }

// Run handles input and redraws until ctx is cancelled or the user quits
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse(tcell.MouseMotionEvents)
	defer a.screen.DisableMouse()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go a.screen.ChannelEvents(eventChan, ctx.Done())

	for {
		select {
		case <-ctx.Done():
			a.session.Close()
			return nil
		case ev, ok := <-eventChan:
			if !ok {
				a.session.Close()
				return nil
			}
			if !a.HandleEvent(ev) {
				a.session.Close()
				return nil
			}
		case <-ticker.C:
			a.renderer.Draw(a.session.State(), a.clock.Now())
		}
	}
}

// HandleEvent applies one tcell event; false means quit
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(DecodeKey(ev))
	case *tcell.EventMouse:
		x, y := ev.Position()
		for _, pe := range a.tracker.Update(ev.Buttons(), x, y) {
			a.applyPointer(pe)
		}
	case *tcell.EventResize:
		a.screen.Sync()
		a.updateSurface()
	}
	return true
}

func (a *App) handleKey(cmd KeyCommand) bool {
	switch cmd.Action {
	case ActionQuit:
		return false
	case ActionReset:
		a.session.Close()
		if err := a.newSession(); err != nil {
			log.Error().Err(err).Msg("failed to reset session")
			return false
		}
	case ActionSetMode:
		if err := a.session.SetMode(cmd.Mode, cmd.GroupCount); err != nil {
			log.Warn().Err(err).Str("mode", string(cmd.Mode)).Msg("mode change rejected")
			return true
		}
		a.options.Mode = cmd.Mode
		if cmd.Mode == touch.ModeGroupSplitter {
			a.options.GroupCount = cmd.GroupCount
		}
	}
	return true
}

func (a *App) applyPointer(pe PointerEvent) {
	var err error
	switch pe.Kind {
	case PointerDown:
		err = a.session.PointerDown(pe.ID, pe.Position.X, pe.Position.Y)
	case PointerMove:
		err = a.session.PointerMove(pe.ID, pe.Position.X, pe.Position.Y)
	case PointerUp:
		err = a.session.PointerUp(pe.ID)
	}
	if err != nil {
		log.Error().Err(err).Int64("pointer_id", int64(pe.ID)).Msg("pointer event failed")
	}
}

// newSession replaces the current session, keeping mode and group count
func (a *App) newSession() error {
	s, err := touch.NewSession(a.options)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.session = s
	a.tracker.Reset()
	a.updateSurface()

	log.Info().
		Str("session_id", s.ID().String()).
		Str("mode", string(a.options.Mode)).
		Msg("terminal session started")
	return nil
}

func (a *App) updateSurface() {
	w, h := a.renderer.Surface()
	if err := a.session.SetSurface(w, h); err != nil {
		log.Warn().Err(err).Msg("failed to set surface")
	}
}
