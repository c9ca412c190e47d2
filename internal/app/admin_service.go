package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/THARA-2106/n-libMgmtSys/internal/clock"
	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// AdminService manages the catalog side of the ledger: registering books
// and adjusting how many copies exist.
type AdminService struct {
	repo  BookRepository
	clock clock.Clock
}

func NewAdminService(repo BookRepository, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

type RegisterBookInput struct {
	Title       string
	TotalCopies int
}

func (s *AdminService) RegisterBook(ctx context.Context, in RegisterBookInput) (domain.Book, error) {
	if in.Title == "" {
		return domain.Book{}, domain.ErrTitleRequired
	}
	if in.TotalCopies < 0 {
		return domain.Book{}, domain.ErrInvalidCopyCount
	}

	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       in.Title,
		TotalCopies: in.TotalCopies,
		HeldCopies:  0,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// SetTotalCopies changes a book's copy count. Shrinking below the number
// of currently held copies is rejected so the ledger invariant holds.
func (s *AdminService) SetTotalCopies(ctx context.Context, bookID string, total int) (domain.Book, error) {
	if bookID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	if total < 0 {
		return domain.Book{}, domain.ErrInvalidCopyCount
	}

	if err := s.repo.UpdateTotalCopies(ctx, bookID, total); err != nil {
		return domain.Book{}, err
	}
	return s.repo.GetBook(ctx, bookID)
}

func (s *AdminService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *AdminService) GetBook(ctx context.Context, bookID string) (domain.Book, error) {
	if bookID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	return s.repo.GetBook(ctx, bookID)
}
