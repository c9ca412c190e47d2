package domain

import "errors"

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOutOfStock          = errors.New("no copies available")
	ErrForbidden           = errors.New("actor not allowed to perform this transition")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStatusConflict      = errors.New("reservation status changed concurrently")
	ErrInvariantViolation  = errors.New("inventory invariant violation")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidActorRole    = errors.New("invalid actor role")
	ErrUserIDRequired      = errors.New("user id required")
	ErrTitleRequired       = errors.New("title required")
	ErrInvalidCopyCount    = errors.New("invalid copy count")
)
