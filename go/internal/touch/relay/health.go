package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy       bool       `json:"healthy"`
	NATSConnected bool       `json:"nats_connected"`
	Published     uint64     `json:"published"`
	Failed        uint64     `json:"failed"`
	Dropped       uint64     `json:"dropped"`
	Pending       int        `json:"pending"`
	LastPublished *time.Time `json:"last_published,omitempty"`
	Errors        []string   `json:"errors"`
}

// ConnectionChecker reports whether the broker connection is up
type ConnectionChecker interface {
	IsConnected() bool
}

// IsConnected implements ConnectionChecker
func (p *JetStreamPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Health reports relay counters; it is unhealthy while conn is down or the queue is full
func (r *Relay) Health(conn ConnectionChecker) HealthStatus {
	r.mu.Lock()
	status := HealthStatus{
		Healthy:   true,
		Published: r.published,
		Failed:    r.failed,
		Dropped:   r.dropped,
		Pending:   len(r.queue),
		Errors:    []string{},
	}
	if !r.lastPublished.IsZero() {
		last := r.lastPublished
		status.LastPublished = &last
	}
	r.mu.Unlock()

	if conn != nil {
		status.NATSConnected = conn.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}
	if status.Pending == cap(r.queue) {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay queue full")
	}
	return status
}

// HealthHandler serves Health as JSON, 503 when unhealthy
func HealthHandler(r *Relay, conn ConnectionChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		status := r.Health(conn)

		w.Header().Set("Content-Type", "application/json")
		if status.Healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Error().Err(err).Msg("failed to encode relay health")
		}
	}
}
