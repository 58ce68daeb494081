package service

import (
	"context"
	"errors"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	auditBreakerFailures = 5
	auditBreakerCooldown = 30 * time.Second
)

type auditService struct {
	repo    ports.AuditRepository
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger. Writes to repo
// go through a circuit breaker that stops calling it after repeated failures.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	s := &auditService{repo: repo, log: log}
	if repo != nil {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "audit-sink",
			Timeout: auditBreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= auditBreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		})
	}
	return s
}

// Log records an audit entry without blocking the caller.
func (s *auditService) Log(ctx context.Context, entry *domain.AuditLog) {
	go func() {
		s.log.Info().
			Str("action", string(entry.Action)).
			Str("username", entry.Username).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress).
			Msg("audit")

		if s.repo == nil {
			return
		}

		_, err := s.breaker.Execute(func() (interface{}, error) {
			// The request context is gone by now.
			return nil, s.repo.Create(context.WithoutCancel(ctx), entry)
		})
		switch {
		case err == nil:
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			s.log.Debug().Str("action", string(entry.Action)).Msg("audit sink unavailable, entry not persisted")
		default:
			s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
		}
	}()
}
