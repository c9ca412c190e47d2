package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/THARA-2106/n-libMgmtSys/internal/app"
	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// BookAdmin is the slice of the admin service the catalog endpoints use.
type BookAdmin interface {
	RegisterBook(ctx context.Context, in app.RegisterBookInput) (domain.Book, error)
	SetTotalCopies(ctx context.Context, bookID string, total int) (domain.Book, error)
	ListBooks(ctx context.Context) ([]domain.Book, error)
}

// HandleAdminBooks serves POST /admin/books and GET /admin/books.
func HandleAdminBooks(svc BookAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			registerBook(w, r, svc)
		case http.MethodGet:
			listBooks(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func registerBook(w http.ResponseWriter, r *http.Request, svc BookAdmin) {
	var req registerBookRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, codeTitleRequired, "title is required")
		return
	}
	if req.TotalCopies < 0 {
		writeError(w, http.StatusBadRequest, codeInvalidCopyCount, "total_copies must not be negative")
		return
	}

	book, err := svc.RegisterBook(r.Context(), app.RegisterBookInput{
		Title:       req.Title,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toBookResponse(book))
}

func listBooks(w http.ResponseWriter, r *http.Request, svc BookAdmin) {
	books, err := svc.ListBooks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(listBooksResponse{Books: out})
}

// HandleAdminBookCopies serves PUT /admin/books/{id}/copies.
func HandleAdminBookCopies(svc BookAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		bookID, ok := parseBookCopiesPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req setCopiesRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		book, err := svc.SetTotalCopies(r.Context(), bookID, req.TotalCopies)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toBookResponse(book))
	}
}

func parseBookCopiesPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "admin" || parts[1] != "books" || parts[2] == "" || parts[3] != "copies" {
		return "", false
	}
	return parts[2], true
}

type registerBookRequest struct {
	Title       string `json:"title"`
	TotalCopies int    `json:"total_copies"`
}

type setCopiesRequest struct {
	TotalCopies int `json:"total_copies"`
}

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TotalCopies int       `json:"total_copies"`
	HeldCopies  int       `json:"held_copies"`
	CreatedAt   time.Time `json:"created_at"`
}

type listBooksResponse struct {
	Books []bookResponse `json:"books"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		TotalCopies: b.TotalCopies,
		HeldCopies:  b.HeldCopies,
		CreatedAt:   b.CreatedAt,
	}
}
