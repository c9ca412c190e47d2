package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// ReservationCollection is the slice of the reservation service the
// collection endpoint needs.
type ReservationCollection interface {
	Create(ctx context.Context, bookID, userID string) (domain.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
	List(ctx context.Context, statuses []domain.Status) ([]domain.Reservation, error)
}

// HandleReservations serves POST /reservations and GET /reservations.
func HandleReservations(svc ReservationCollection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			createReservation(w, r, svc)
		case http.MethodGet:
			listReservations(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func createReservation(w http.ResponseWriter, r *http.Request, svc ReservationCollection) {
	var req createReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.BookID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "book_id and user_id are required")
		return
	}

	res, err := svc.Create(r.Context(), req.BookID, req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toReservationResponse(res))
}

func listReservations(w http.ResponseWriter, r *http.Request, svc ReservationCollection) {
	query := r.URL.Query()
	userID := query.Get("user_id")

	var statuses []domain.Status
	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.Status(strings.TrimSpace(part))
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, codeInvalidStatus, "invalid status filter")
				return
			}
			statuses = append(statuses, status)
		}
	}

	var (
		reservations []domain.Reservation
		err          error
	)
	if userID != "" {
		reservations, err = svc.ListByUser(r.Context(), userID)
		if err == nil && len(statuses) > 0 {
			reservations = filterByStatus(reservations, statuses)
		}
	} else {
		reservations, err = svc.List(r.Context(), statuses)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toReservationResponse(res))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(listReservationsResponse{Reservations: out})
}

func filterByStatus(reservations []domain.Reservation, statuses []domain.Status) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(reservations))
	for _, res := range reservations {
		for _, status := range statuses {
			if res.Status == status {
				out = append(out, res)
				break
			}
		}
	}
	return out
}

// ReservationItem is the slice of the reservation service the
// per-reservation endpoint needs.
type ReservationItem interface {
	Get(ctx context.Context, id string) (domain.Reservation, error)
	Transition(ctx context.Context, id string, target domain.Status, actor domain.ActorRole) (domain.Reservation, error)
}

// HandleReservationItem serves GET /reservations/{id} and
// POST /reservations/{id}/transition.
func HandleReservationItem(svc ReservationItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseReservationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			getReservation(w, r, svc, id)
		case action == "transition" && r.Method == http.MethodPost:
			transitionReservation(w, r, svc, id)
		case action == "" || action == "transition":
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func getReservation(w http.ResponseWriter, r *http.Request, svc ReservationItem, id string) {
	res, err := svc.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toReservationResponse(res))
}

func transitionReservation(w http.ResponseWriter, r *http.Request, svc ReservationItem, id string) {
	var req transitionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.TargetStatus == "" || req.ActorRole == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "target_status and actor_role are required")
		return
	}

	res, err := svc.Transition(r.Context(), id, domain.Status(req.TargetStatus), domain.ActorRole(req.ActorRole))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toReservationResponse(res))
}

// parseReservationPath splits /reservations/{id}[/transition] into its
// id and trailing action.
func parseReservationPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "reservations" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		if parts[2] == "" {
			return "", "", false
		}
		return parts[1], parts[2], true
	}
	return parts[1], "", true
}

type createReservationRequest struct {
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
}

type transitionRequest struct {
	TargetStatus string `json:"target_status"`
	ActorRole    string `json:"actor_role"`
}

type reservationResponse struct {
	ID               string    `json:"id"`
	BookID           string    `json:"book_id"`
	UserID           string    `json:"user_id"`
	Status           string    `json:"status"`
	ReservedAt       time.Time `json:"reserved_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	LastTransitionAt time.Time `json:"last_transition_at"`
}

type listReservationsResponse struct {
	Reservations []reservationResponse `json:"reservations"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:               res.ID,
		BookID:           res.BookID,
		UserID:           res.UserID,
		Status:           string(res.Status),
		ReservedAt:       res.ReservedAt,
		ExpiresAt:        res.ExpiresAt,
		LastTransitionAt: res.LastTransitionAt,
	}
}
