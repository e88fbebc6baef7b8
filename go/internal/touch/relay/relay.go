package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/rs/zerolog/log"
)

// Envelope is the JSON body of every relayed message
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher is the outbound side of the relay
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type Config struct {
	BufferSize     int
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
	}
}

// Relay forwards phase changes and outcomes to a Publisher. Deliver never blocks:
// it queues onto a buffered channel that Run drains.
type Relay struct {
	publisher Publisher
	config    Config
	queue     chan events.Event

	mu            sync.Mutex
	published     uint64
	failed        uint64
	dropped       uint64
	lastPublished time.Time
}

func New(publisher Publisher, cfg Config) *Relay {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &Relay{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan events.Event, cfg.BufferSize),
	}
}

// Relayed reports whether events of type t leave the process.
// Pointer snapshots are too chatty and stay local.
func Relayed(t events.Type) bool {
	return t.IsOutcome() || t == events.TypePhaseChanged || t == events.TypeModeChanged
}

// Deliver implements events.Sink
func (r *Relay) Deliver(e events.Event) {
	if !Relayed(e.Type) {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		log.Warn().
			Str("session_id", e.SessionID.String()).
			Str("event_type", string(e.Type)).
			Msg("relay queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	log.Info().Msg("event relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event relay shutting down")
			return
		case e := <-r.queue:
			r.publish(ctx, e)
		}
	}
}

func (r *Relay) publish(ctx context.Context, e events.Event) {
	env, err := NewEnvelope(e)
	if err != nil {
		log.Error().Err(err).Str("event_id", e.ID.String()).Msg("failed to build relay envelope")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
	defer cancel()

	err = r.publisher.Publish(ctx, env)

	r.mu.Lock()
	if err != nil {
		r.failed++
	} else {
		r.published++
		r.lastPublished = time.Now()
	}
	r.mu.Unlock()

	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", env.SessionID).
			Str("event_type", env.EventType).
			Msg("failed to relay event")
	}
}

// NewEnvelope wraps a session event for the wire
func NewEnvelope(e events.Event) (Envelope, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", e.Type, err)
	}
	return Envelope{
		EventID:   e.ID.String(),
		EventType: string(e.Type),
		SessionID: e.SessionID.String(),
		Timestamp: e.Timestamp.UTC(),
		Payload:   payload,
	}, nil
}
