package gateway

import (
	"context"
	"math/rand"
	"net/http"

	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Service is the chooser gateway: session hosting, WebSocket fan-out and the REST state API
type Service struct {
	connectionManager *ConnectionManager
	sessionManager    *SessionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	// Session is the template for new sessions
	Session touch.Options
	// NewRand seeds each session; nil uses a time-seeded source
	NewRand func() *rand.Rand
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService wires the gateway. relay receives every session event and may be nil.
func NewService(config Config, relay events.Sink) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	sessionManager := NewSessionManager(config.Session, config.NewRand, connectionManager, relay)

	return &Service{
		connectionManager: connectionManager,
		sessionManager:    sessionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, sessionManager),
		stateHandler:      NewStateHandler(sessionManager),
	}
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting chooser gateway service")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("chooser gateway service shutting down")
	return s.Stop()
}

// Stop closes every session and connection
func (s *Service) Stop() error {
	s.sessionManager.CloseAll()
	s.connectionManager.closeAll()
	log.Info().Msg("chooser gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("chooser gateway routes registered")
}

// Handler returns every gateway route plus /health behind CORS
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// Sessions exposes the session manager
func (s *Service) Sessions() *SessionManager {
	return s.sessionManager
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
