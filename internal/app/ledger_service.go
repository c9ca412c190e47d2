package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// BookRepository is the storage contract for per-book copy accounting.
// TryHold and Release must be atomic per book with respect to concurrent
// callers; the Postgres implementation relies on row-level locking of the
// conditional UPDATE.
type BookRepository interface {
	TryHold(ctx context.Context, bookID string) (bool, error)
	Release(ctx context.Context, bookID string) error
	GetBook(ctx context.Context, bookID string) (domain.Book, error)
	CreateBook(ctx context.Context, book domain.Book) error
	UpdateTotalCopies(ctx context.Context, bookID string, total int) error
	ListBooks(ctx context.Context) ([]domain.Book, error)
}

// LedgerService is the authoritative available-copy ledger. All hold and
// release traffic for reservations goes through it.
type LedgerService struct {
	repo   BookRepository
	logger *zap.Logger
}

func NewLedgerService(repo BookRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:   repo,
		logger: logger,
	}
}

// TryHold attempts to attach one copy of the book to a reservation.
// ok=false means no copy is available, which is a normal outcome, not a
// fault.
func (s *LedgerService) TryHold(ctx context.Context, bookID string) (bool, error) {
	if bookID == "" {
		return false, domain.ErrInvalidID
	}
	return s.repo.TryHold(ctx, bookID)
}

// Release hands one held copy back. A release that would push the held
// count below zero indicates a bug; it is rejected and logged, never
// clamped silently.
func (s *LedgerService) Release(ctx context.Context, bookID string) error {
	if bookID == "" {
		return domain.ErrInvalidID
	}
	err := s.repo.Release(ctx, bookID)
	if errors.Is(err, domain.ErrInvariantViolation) {
		s.logger.Error("held copy count would go negative",
			zap.String("book_id", bookID),
			zap.Error(err),
		)
	}
	return err
}

// Stats returns a point-in-time snapshot of the book's copy counts.
func (s *LedgerService) Stats(ctx context.Context, bookID string) (total, held int, err error) {
	if bookID == "" {
		return 0, 0, domain.ErrInvalidID
	}
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return 0, 0, err
	}
	return book.TotalCopies, book.HeldCopies, nil
}
