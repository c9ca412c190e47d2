package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/THARA-2106/n-libMgmtSys/internal/clock"
	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// ReservationRepository is the durable record store for reservations.
// It enforces no business rules beyond the conditional status update.
type ReservationRepository interface {
	Insert(ctx context.Context, res domain.Reservation) error
	Get(ctx context.Context, id string) (domain.Reservation, error)
	// UpdateStatus applies the status change only when the stored status
	// still equals expected, returning domain.ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, id string, to, expected domain.Status, at time.Time) error
	ListByBook(ctx context.Context, bookID string, statuses []domain.Status) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
	List(ctx context.Context, statuses []domain.Status) ([]domain.Reservation, error)
	ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// Ledger is the slice of LedgerService the reservation flow needs.
type Ledger interface {
	TryHold(ctx context.Context, bookID string) (bool, error)
	Release(ctx context.Context, bookID string) error
	Stats(ctx context.Context, bookID string) (total, held int, err error)
}

// Publisher delivers reservation events to the notification sink.
// Delivery is best-effort and never transactional with state changes.
type Publisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

// ReservationService enacts the reservation state machine: it validates
// transition legality, keeps ledger and store consistent, and emits
// domain events.
type ReservationService struct {
	repo       ReservationRepository
	ledger     Ledger
	publisher  Publisher
	clock      clock.Clock
	logger     *zap.Logger
	holdWindow time.Duration
}

const defaultHoldWindow = 72 * time.Hour

type ReservationServiceOption func(*ReservationService)

// WithHoldWindow overrides how long a new reservation stays claimable
// before the expiry sweep reclaims its copy.
func WithHoldWindow(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdWindow = d
		}
	}
}

func NewReservationService(
	repo ReservationRepository,
	ledger Ledger,
	publisher Publisher,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...ReservationServiceOption,
) *ReservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReservationService{
		repo:       repo,
		ledger:     ledger,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
		holdWindow: defaultHoldWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create places a pending reservation for one copy of the book. The hold
// is taken first; if persisting the record then fails, the hold is
// released again so no copy stays attached to a record that never
// existed.
func (s *ReservationService) Create(ctx context.Context, bookID, userID string) (domain.Reservation, error) {
	if bookID == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	if userID == "" {
		return domain.Reservation{}, domain.ErrUserIDRequired
	}

	ok, err := s.ledger.TryHold(ctx, bookID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !ok {
		return domain.Reservation{}, domain.ErrOutOfStock
	}

	now := s.clock.Now()
	res := domain.Reservation{
		ID:               uuid.NewString(),
		BookID:           bookID,
		UserID:           userID,
		Status:           domain.StatusPending,
		ReservedAt:       now,
		ExpiresAt:        now.Add(s.holdWindow),
		LastTransitionAt: now,
	}

	if err := s.repo.Insert(ctx, res); err != nil {
		// The insert may have failed because the caller went away; the
		// compensating release must still land or the copy stays held
		// with no record for the sweep to reclaim.
		if relErr := s.ledger.Release(context.WithoutCancel(ctx), bookID); relErr != nil {
			s.logger.Error("compensating release failed",
				zap.String("book_id", bookID),
				zap.Error(relErr),
			)
		}
		return domain.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}

	s.publish(ctx, domain.EventReservationCreated, res)
	return res, nil
}

// Transition moves the reservation to target on behalf of actor. The
// store's conditional update is the commit point; the ledger release, if
// the transition calls for one, happens only after it succeeds. A
// conflicting concurrent transition is retried once by reloading, then
// surfaced as domain.ErrStatusConflict.
func (s *ReservationService) Transition(ctx context.Context, id string, target domain.Status, actor domain.ActorRole) (domain.Reservation, error) {
	if id == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	if !target.Valid() {
		return domain.Reservation{}, domain.ErrInvalidStatus
	}
	if !actor.Valid() {
		return domain.Reservation{}, domain.ErrInvalidActorRole
	}

	res, err := s.transitionOnce(ctx, id, target, actor)
	if errors.Is(err, domain.ErrStatusConflict) {
		res, err = s.transitionOnce(ctx, id, target, actor)
	}
	return res, err
}

func (s *ReservationService) transitionOnce(ctx context.Context, id string, target domain.Status, actor domain.ActorRole) (domain.Reservation, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}

	if err := domain.CheckTransition(res.Status, target, actor); err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, id, target, res.Status, now); err != nil {
		return domain.Reservation{}, err
	}

	if domain.ReleasesHold(res.Status, target) {
		// The status change is already committed; the release must not
		// be lost to a caller cancellation or the terminal record keeps
		// its copy counted as held forever.
		if err := s.ledger.Release(context.WithoutCancel(ctx), res.BookID); err != nil {
			s.logger.Error("release after committed transition failed",
				zap.String("reservation_id", id),
				zap.String("book_id", res.BookID),
				zap.Error(err),
			)
			return domain.Reservation{}, err
		}
	}

	from := res.Status
	res.Status = target
	res.LastTransitionAt = now

	s.logger.Info("reservation transitioned",
		zap.String("reservation_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", string(actor)),
	)
	s.publish(ctx, domain.EventReservationTransitioned, res)
	return res, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	if id == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *ReservationService) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *ReservationService) List(ctx context.Context, statuses []domain.Status) ([]domain.Reservation, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, statuses)
}

// BookStats exposes the ledger's read-only snapshot to presentation.
func (s *ReservationService) BookStats(ctx context.Context, bookID string) (total, held int, err error) {
	return s.ledger.Stats(ctx, bookID)
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res domain.Reservation) {
	event := domain.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		BookID:        res.BookID,
		UserID:        res.UserID,
		ToStatus:      res.Status,
		Timestamp:     s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish reservation event failed",
			zap.String("type", eventType),
			zap.String("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}
