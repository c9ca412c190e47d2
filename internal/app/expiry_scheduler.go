package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/THARA-2106/n-libMgmtSys/internal/clock"
	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// ExpiryLister is the slice of ReservationRepository the sweep reads.
type ExpiryLister interface {
	ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// Transitioner is the slice of ReservationService the sweep drives, so
// expiry goes through exactly the same legality checks as every other
// transition.
type Transitioner interface {
	Transition(ctx context.Context, id string, target domain.Status, actor domain.ActorRole) (domain.Reservation, error)
}

// ExpiryScheduler periodically moves overdue pending/active reservations
// to expired, releasing their held copies. Overlapping sweeps are safe:
// a reservation already expired by a previous run fails the terminal
// check and is skipped.
type ExpiryScheduler struct {
	lister   ExpiryLister
	svc      Transitioner
	clock    clock.Clock
	logger   *zap.Logger
	interval time.Duration
}

const defaultSweepInterval = time.Minute

type ExpirySchedulerOption func(*ExpiryScheduler)

// WithSweepInterval overrides how often the sweep runs. The interval is
// an operational knob, not a correctness parameter.
func WithSweepInterval(d time.Duration) ExpirySchedulerOption {
	return func(s *ExpiryScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func NewExpiryScheduler(
	lister ExpiryLister,
	svc Transitioner,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...ExpirySchedulerOption,
) *ExpiryScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExpiryScheduler{
		lister:   lister,
		svc:      svc,
		clock:    clk,
		logger:   logger,
		interval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is cancelled.
func (s *ExpiryScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce expires every overdue reservation it can and returns how many
// it transitioned. Individual failures are logged and skipped so one bad
// record never stalls the rest of the sweep.
func (s *ExpiryScheduler) SweepOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()
	overdue, err := s.lister.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, res := range overdue {
		if _, err := s.svc.Transition(ctx, res.ID, domain.StatusExpired, domain.RoleSystem); err != nil {
			// Lost races with staff or a concurrent sweep are expected.
			if errors.Is(err, domain.ErrInvalidTransition) ||
				errors.Is(err, domain.ErrStatusConflict) ||
				errors.Is(err, domain.ErrReservationNotFound) {
				s.logger.Debug("reservation already transitioned",
					zap.String("reservation_id", res.ID),
					zap.Error(err),
				)
				continue
			}
			s.logger.Warn("expire reservation failed",
				zap.String("reservation_id", res.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("expiry sweep finished",
			zap.Int("expired", expired),
			zap.Int("overdue", len(overdue)),
		)
	}
	return expired, nil
}
