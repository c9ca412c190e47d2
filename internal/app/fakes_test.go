package app

import (
	"context"
	"sync"
	"time"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[string]domain.Book
}

func newFakeBookRepo(books ...domain.Book) *fakeBookRepo {
	repo := &fakeBookRepo{books: make(map[string]domain.Book, len(books))}
	for _, b := range books {
		repo.books[b.ID] = b
	}
	return repo
}

func (r *fakeBookRepo) TryHold(_ context.Context, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return false, domain.ErrBookNotFound
	}
	if book.HeldCopies >= book.TotalCopies {
		return false, nil
	}
	book.HeldCopies++
	r.books[bookID] = book
	return true, nil
}

func (r *fakeBookRepo) Release(_ context.Context, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if book.HeldCopies <= 0 {
		return domain.ErrInvariantViolation
	}
	book.HeldCopies--
	r.books[bookID] = book
	return nil
}

func (r *fakeBookRepo) GetBook(_ context.Context, bookID string) (domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return book, nil
}

func (r *fakeBookRepo) CreateBook(_ context.Context, book domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.ID] = book
	return nil
}

func (r *fakeBookRepo) UpdateTotalCopies(_ context.Context, bookID string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if total < book.HeldCopies {
		return domain.ErrInvalidCopyCount
	}
	book.TotalCopies = total
	r.books[bookID] = book
	return nil
}

func (r *fakeBookRepo) ListBooks(_ context.Context) ([]domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBookRepo) held(bookID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books[bookID].HeldCopies
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]domain.Reservation
	insertErr    error
	// beforeInsert runs at the top of Insert, before the error
	// injection check.
	beforeInsert func()
	// beforeUpdateStatus simulates a racing writer: it runs inside
	// UpdateStatus before the conditional compare.
	beforeUpdateStatus func(id string)
}

func newFakeReservationRepo(reservations ...domain.Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{reservations: make(map[string]domain.Reservation, len(reservations))}
	for _, res := range reservations {
		repo.reservations[res.ID] = res
	}
	return repo
}

func (r *fakeReservationRepo) Insert(_ context.Context, res domain.Reservation) error {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = res
	return nil
}

func (r *fakeReservationRepo) Get(_ context.Context, id string) (domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (r *fakeReservationRepo) UpdateStatus(_ context.Context, id string, to, expected domain.Status, at time.Time) error {
	if r.beforeUpdateStatus != nil {
		r.beforeUpdateStatus(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if res.Status != expected {
		return domain.ErrStatusConflict
	}
	res.Status = to
	res.LastTransitionAt = at
	r.reservations[id] = res
	return nil
}

func (r *fakeReservationRepo) ListByBook(_ context.Context, bookID string, statuses []domain.Status) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.BookID == bookID && statusMatches(res.Status, statuses) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListByUser(_ context.Context, userID string) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) List(_ context.Context, statuses []domain.Status) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.reservations {
		if statusMatches(res.Status, statuses) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListExpired(_ context.Context, now time.Time) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reservation
	for _, res := range r.reservations {
		if (res.Status == domain.StatusPending || res.Status == domain.StatusActive) && !res.ExpiresAt.After(now) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) set(res domain.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = res
}

func (r *fakeReservationRepo) get(id string) domain.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reservations[id]
}

func (r *fakeReservationRepo) countByBook(bookID string, statuses ...domain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.reservations {
		if res.BookID == bookID && statusMatches(res.Status, statuses) {
			n++
		}
	}
	return n
}

func statusMatches(s domain.Status, statuses []domain.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []domain.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ReservationEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ctxCheckedLedger rejects any call arriving on a dead context, the way
// a real database client would.
type ctxCheckedLedger struct {
	Ledger
}

func (l ctxCheckedLedger) TryHold(ctx context.Context, bookID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.Ledger.TryHold(ctx, bookID)
}

func (l ctxCheckedLedger) Release(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.Ledger.Release(ctx, bookID)
}
