// internal/catalog/handler.go
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	requestIDHeader     = "X-Request-ID"
	defaultJournalLimit = 100
	maxJournalLimit     = 1000
)

type Handler struct {
	service Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHandler wires the HTTP API to service. A nil limiter disables rate limiting.
func NewHandler(service Service, limiter *rate.Limiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, limiter: limiter, logger: logger}
}

// Routes returns the router serving the catalog API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)

	r.Get("/inventory", h.handleInventory)
	r.Get("/search", h.handleSearch)
	r.Get("/media/borrowed", h.handleList(func(h *Handler, r *http.Request) ([]Media, error) {
		return h.service.ListBorrowed(r.Context())
	}))
	r.Get("/media/available", h.handleList(func(h *Handler, r *http.Request) ([]Media, error) {
		return h.service.ListAvailable(r.Context())
	}))
	r.Get("/media/recent", h.handleList(func(h *Handler, r *http.Request) ([]Media, error) {
		return h.service.ListBorrowedLast7Days(r.Context())
	}))
	r.Get("/media/titles", h.handleList(func(h *Handler, r *http.Request) ([]Media, error) {
		return h.service.ListTitleContaining(r.Context(), r.URL.Query().Get("q"))
	}))
	r.Get("/media/{id}", h.handleGetMedia)
	r.Get("/media/{id}/history", h.handleHistory)
	r.Get("/events", h.handleJournal)
	r.Get("/borrowers", h.handleListBorrowers)
	r.Get("/borrowers/{id}", h.handleGetBorrower)
	r.Get("/borrowers/{id}/media", h.handleList(func(h *Handler, r *http.Request) ([]Media, error) {
		return h.service.ListBorrowedBy(r.Context(), chi.URLParam(r, "id"))
	}))

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/books", h.handleAddBook)
		r.Post("/dvds", h.handleAddDVD)
		r.Delete("/books/{id}", h.handleRemoveMedia(KindBook))
		r.Delete("/dvds/{id}", h.handleRemoveMedia(KindDVD))
		r.Delete("/collections/{collection}/{id}", h.handleRemoveFromCollection)
		r.Post("/borrowers", h.handleAddBorrower)
		r.Delete("/borrowers/{id}", h.handleRemoveBorrower)
		r.Post("/media/{id}/borrow", h.handleBorrow)
		r.Post("/media/{id}/return", h.handleReturn)
	})

	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Genre  string `json:"genre"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	book, err := h.service.AddBook(r.Context(), req.Title, req.Author, req.Genre)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, book)
}

func (h *Handler) handleAddDVD(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Director string `json:"director"`
		Runtime  int    `json:"runtime"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Runtime <= 0 {
		h.fail(w, r, ErrInvalidRuntime)
		return
	}

	dvd, err := h.service.AddDVD(r.Context(), req.Title, req.Director, req.Runtime)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, dvd)
}

func (h *Handler) handleRemoveMedia(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.RemoveMedia(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleRemoveFromCollection accepts the collection by name, e.g. "books" or "dvd".
func (h *Handler) handleRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "collection"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.handleRemoveMedia(kind)(w, r)
}

func (h *Handler) handleAddBorrower(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Address       string `json:"address"`
		ContactNumber string `json:"contact_number"`
		Email         string `json:"email"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	borrower, err := h.service.AddBorrower(r.Context(), req.Name, req.Address, req.ContactNumber, req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, borrower)
}

func (h *Handler) handleRemoveBorrower(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveBorrower(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BorrowResponse carries the event plus its display text.
type BorrowResponse struct {
	BorrowedEvent
	Message string `json:"message"`
}

// ReturnResponse carries the event plus its display text.
type ReturnResponse struct {
	ReturnedEvent
	Message string `json:"message"`
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerID string `json:"borrower_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.service.Borrow(r.Context(), chi.URLParam(r, "id"), req.BorrowerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BorrowResponse{BorrowedEvent: event, Message: event.String()})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.ReturnMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ReturnResponse{ReturnedEvent: event, Message: event.String()})
}

func (h *Handler) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	media, err := h.service.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, media)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, events)
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultJournalLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.service.Journal(r.Context(), int64(after), min(limit, maxJournalLimit))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, events)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidQuery, key, raw)
	}
	return v, nil
}

func (h *Handler) handleGetBorrower(w http.ResponseWriter, r *http.Request) {
	borrower, err := h.service.GetBorrower(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, borrower)
}

func (h *Handler) handleListBorrowers(w http.ResponseWriter, r *http.Request) {
	borrowers, err := h.service.ListBorrowers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, borrowers)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.ListInventory(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, inv)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, items)
}

func (h *Handler) handleList(list func(*Handler, *http.Request) ([]Media, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := list(h, r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusOK, items)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMediaNotFound), errors.Is(err, ErrBorrowerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownCollection), errors.Is(err, ErrInvalidRuntime), errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", w.Header().Get(requestIDHeader),
			"error", err,
		)
	}
	h.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}
