package domain

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusFulfilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusFulfilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type ActorRole string

const (
	RoleUser   ActorRole = "user"
	RoleStaff  ActorRole = "staff"
	RoleSystem ActorRole = "system"
)

func (r ActorRole) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleSystem:
		return true
	}
	return false
}

// Reservation holds one user's claim on one copy of a book.
type Reservation struct {
	ID               string
	BookID           string
	UserID           string
	Status           Status
	ReservedAt       time.Time
	ExpiresAt        time.Time
	LastTransitionAt time.Time
}

type transition struct {
	from, to Status
}

// allowedTransitions maps each legal transition to the roles permitted
// to perform it. Absent pairs are illegal for everyone.
var allowedTransitions = map[transition][]ActorRole{
	{StatusPending, StatusActive}:    {RoleStaff},
	{StatusPending, StatusCancelled}: {RoleUser, RoleStaff},
	{StatusPending, StatusExpired}:   {RoleSystem},
	{StatusActive, StatusFulfilled}:  {RoleStaff},
	{StatusActive, StatusCancelled}:  {RoleStaff},
	{StatusActive, StatusExpired}:    {RoleSystem},
}

// transitionsReleasing lists the transitions whose side effect hands the
// held copy back to the ledger. Pending -> active keeps the copy held.
var transitionsReleasing = map[transition]bool{
	{StatusPending, StatusCancelled}: true,
	{StatusPending, StatusExpired}:   true,
	{StatusActive, StatusFulfilled}:  true,
	{StatusActive, StatusCancelled}:  true,
	{StatusActive, StatusExpired}:    true,
}

// CheckTransition validates from -> to for the given actor. It returns
// ErrInvalidTransition for pairs outside the table (including anything
// out of a terminal status) and ErrForbidden when the pair is legal but
// the actor is not allowed to perform it.
func CheckTransition(from, to Status, actor ActorRole) error {
	roles, ok := allowedTransitions[transition{from: from, to: to}]
	if !ok {
		return ErrInvalidTransition
	}
	for _, role := range roles {
		if role == actor {
			return nil
		}
	}
	return ErrForbidden
}

// ReleasesHold reports whether the from -> to transition must release
// the reservation's held copy.
func ReleasesHold(from, to Status) bool {
	return transitionsReleasing[transition{from: from, to: to}]
}
