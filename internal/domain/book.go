package domain

import "time"

// Book carries the inventory counts for one catalog title.
// HeldCopies counts copies attached to a pending or active reservation.
type Book struct {
	ID          string
	Title       string
	TotalCopies int
	HeldCopies  int
	CreatedAt   time.Time
}

func (b Book) Available() int {
	return b.TotalCopies - b.HeldCopies
}
