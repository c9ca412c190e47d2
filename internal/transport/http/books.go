package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// BookStatser exposes the ledger's read-only copy counters.
type BookStatser interface {
	BookStats(ctx context.Context, bookID string) (total, held int, err error)
}

// HandleBookStats serves GET /books/{id}/stats.
func HandleBookStats(svc BookStatser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		bookID, ok := parseBookStatsPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		total, held, err := svc.BookStats(r.Context(), bookID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(bookStatsResponse{
			TotalCopies: total,
			HeldCopies:  held,
			Available:   total - held,
		})
	}
}

func parseBookStatsPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "books" || parts[1] == "" || parts[2] != "stats" {
		return "", false
	}
	return parts[1], true
}

type bookStatsResponse struct {
	TotalCopies int `json:"total_copies"`
	HeldCopies  int `json:"held_copies"`
	Available   int `json:"available"`
}
