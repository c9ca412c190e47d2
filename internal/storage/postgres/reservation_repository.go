package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

const (
	tableReservations = "reservations"
	dialectPostgres   = "postgres"
)

// ReservationRepository is plain CRUD over reservation records. The only
// rule it enforces is the conditional status update; transition legality
// lives in the service layer.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) Insert(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, book_id, user_id, status, reserved_at, expires_at, last_transition_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, stmt,
		res.ID,
		res.BookID,
		res.UserID,
		res.Status,
		res.ReservedAt,
		res.ExpiresAt,
		res.LastTransitionAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate reservation id %s: %w", res.ID, err)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, book_id, user_id, status, reserved_at, expires_at, last_transition_at
FROM reservations
WHERE id = $1`

	var res domain.Reservation
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&res.ID, &res.BookID, &res.UserID, &res.Status, &res.ReservedAt, &res.ExpiresAt, &res.LastTransitionAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// UpdateStatus is the optimistic-concurrency commit point: the write only
// lands when the stored status still matches expected.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, to, expected domain.Status, at time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $2, last_transition_at = $3
WHERE id = $1 AND status = $4`

	tag, err := r.pool.Exec(ctx, stmt, id, to, at, expected)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return domain.ErrStatusConflict
}

func (r *ReservationRepository) ListByBook(ctx context.Context, bookID string, statuses []domain.Status) ([]domain.Reservation, error) {
	ds := r.listQuery().Where(goqu.Ex{"book_id": bookID})
	if len(statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(statusStrings(statuses)))
	}
	return r.queryList(ctx, ds)
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return r.queryList(ctx, r.listQuery().Where(goqu.Ex{"user_id": userID}))
}

func (r *ReservationRepository) List(ctx context.Context, statuses []domain.Status) ([]domain.Reservation, error) {
	ds := r.listQuery()
	if len(statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(statusStrings(statuses)))
	}
	return r.queryList(ctx, ds)
}

// ListExpired returns non-terminal reservations whose deadline has
// passed, oldest deadline first, for the expiry sweep.
func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	ds := goqu.Dialect(dialectPostgres).
		From(tableReservations).
		Select(reservationColumns()...).
		Where(
			goqu.C("status").In(string(domain.StatusPending), string(domain.StatusActive)),
			goqu.C("expires_at").Lte(now),
		).
		Order(goqu.I("expires_at").Asc())
	return r.queryList(ctx, ds)
}

func (r *ReservationRepository) listQuery() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(tableReservations).
		Select(reservationColumns()...).
		Order(goqu.I("reserved_at").Desc())
}

func reservationColumns() []any {
	return []any{"id", "book_id", "user_id", "status", "reserved_at", "expires_at", "last_transition_at"}
}

func (r *ReservationRepository) queryList(ctx context.Context, ds *goqu.SelectDataset) ([]domain.Reservation, error) {
	sqlQuery, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.BookID, &res.UserID, &res.Status, &res.ReservedAt, &res.ExpiresAt, &res.LastTransitionAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
