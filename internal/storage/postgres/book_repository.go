package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// BookRepository owns the books table, including the atomic hold/release
// counters the ledger is built on. Both mutations are single conditional
// UPDATEs, so Postgres row locking serializes concurrent callers per book
// without any application-level locking.
type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) TryHold(ctx context.Context, bookID string) (bool, error) {
	const stmt = `UPDATE books SET held_copies = held_copies + 1 WHERE id = $1 AND held_copies < total_copies`

	tag, err := r.pool.Exec(ctx, stmt, bookID)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("try hold: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// No row changed: either the book does not exist or every copy is
	// already held. Only the former is an error.
	if _, err := r.GetBook(ctx, bookID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *BookRepository) Release(ctx context.Context, bookID string) error {
	const stmt = `UPDATE books SET held_copies = held_copies - 1 WHERE id = $1 AND held_copies > 0`

	tag, err := r.pool.Exec(ctx, stmt, bookID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("release: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetBook(ctx, bookID); err != nil {
		return err
	}
	return fmt.Errorf("release with no held copies for book %s: %w", bookID, domain.ErrInvariantViolation)
}

func (r *BookRepository) GetBook(ctx context.Context, bookID string) (domain.Book, error) {
	const query = `SELECT id, title, total_copies, held_copies, created_at FROM books WHERE id = $1`

	var b domain.Book
	err := r.pool.QueryRow(ctx, query, bookID).
		Scan(&b.ID, &b.Title, &b.TotalCopies, &b.HeldCopies, &b.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Book{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *BookRepository) CreateBook(ctx context.Context, book domain.Book) error {
	const stmt = `
INSERT INTO books (id, title, total_copies, held_copies, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, stmt,
		book.ID,
		book.Title,
		book.TotalCopies,
		book.HeldCopies,
		book.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidCopyCount
		}
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *BookRepository) UpdateTotalCopies(ctx context.Context, bookID string, total int) error {
	const stmt = `UPDATE books SET total_copies = $2 WHERE id = $1 AND held_copies <= $2`

	tag, err := r.pool.Exec(ctx, stmt, bookID, total)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidCopyCount
		}
		return fmt.Errorf("update total copies: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetBook(ctx, bookID); err != nil {
		return err
	}
	return domain.ErrInvalidCopyCount
}

func (r *BookRepository) ListBooks(ctx context.Context) ([]domain.Book, error) {
	const query = `SELECT id, title, total_copies, held_copies, created_at FROM books ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.TotalCopies, &b.HeldCopies, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}
