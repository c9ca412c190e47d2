package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidID            = "invalid_id"
	codeInvalidStatus        = "invalid_status"
	codeInvalidActorRole     = "invalid_actor_role"
	codeUserIDRequired       = "user_id_required"
	codeTitleRequired        = "title_required"
	codeInvalidCopyCount     = "invalid_copy_count"
	codeBookNotFound         = "book_not_found"
	codeReservationNotFound  = "reservation_not_found"
	codeOutOfStock           = "out_of_stock"
	codeInvalidTransition    = "invalid_transition"
	codeConflict             = "conflict"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps service errors onto the wire. Internal failures
// stay generic so no detail leaks to callers.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrInvalidActorRole):
		writeError(w, http.StatusBadRequest, codeInvalidActorRole, err.Error())
	case errors.Is(err, domain.ErrUserIDRequired):
		writeError(w, http.StatusBadRequest, codeUserIDRequired, err.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, codeBookNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeError(w, http.StatusConflict, codeOutOfStock, err.Error())
	case errors.Is(err, domain.ErrStatusConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCopyCount):
		writeError(w, http.StatusConflict, codeInvalidCopyCount, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidTransition, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
