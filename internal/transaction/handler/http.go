package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/server/middleware"
	"finsplore/backend/internal/transaction/domain"
	"finsplore/backend/internal/transaction/repository"
	"finsplore/backend/internal/transaction/service"
)

// TransactionHandler exposes transaction and category endpoints.
type TransactionHandler struct {
	svc *service.TransactionService
}

func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func (h *TransactionHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/sync", h.Sync)
	r.Get("/summary", h.Summary)
	r.Get("/recent", h.Recent)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/category", h.Categorize)
	r.Post("/{id}/suggest-category", h.SuggestCategory)
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Delete("/{categoryID}", h.DeleteCategory)
	})
}

type txPayload struct {
	ID                  string    `json:"id"`
	AccountID           string    `json:"accountId,omitempty"`
	Description         string    `json:"description"`
	Amount              float64   `json:"amount"`
	Date                string    `json:"date"`
	Direction           string    `json:"direction"`
	OriginalCategory    string    `json:"originalCategory,omitempty"`
	AISuggestedCategory string    `json:"aiSuggestedCategory,omitempty"`
	CategoryID          *int64    `json:"categoryId,omitempty"`
	CategorizedByUser   bool      `json:"categorizedByUser"`
	MerchantName        string    `json:"merchantName,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toPayload(t *domain.Transaction) txPayload {
	return txPayload{
		ID:                  t.ID,
		AccountID:           t.AccountID,
		Description:         t.Description,
		Amount:              t.Amount,
		Date:                t.Date.Format("2006-01-02"),
		Direction:           string(t.Direction),
		OriginalCategory:    t.OriginalCategory,
		AISuggestedCategory: t.AISuggestedCategory,
		CategoryID:          t.CategoryID,
		CategorizedByUser:   t.CategorizedByUser,
		MerchantName:        t.MerchantName,
		CreatedAt:           t.CreatedAt,
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing transactions failed")
		return
	}
	out := make([]txPayload, 0, len(txs))
	for i := range txs {
		out = append(out, toPayload(&txs[i]))
	}
	api.OK(w, "", out)
}

// Recent returns the latest transactions, default 20.
func (h *TransactionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}
	txs, err := h.svc.List(r.Context(), userID, repository.ListFilter{Limit: limit})
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing transactions failed")
		return
	}
	out := make([]txPayload, 0, len(txs))
	for i := range txs {
		out = append(out, toPayload(&txs[i]))
	}
	api.OK(w, "", out)
}

func parseFilter(r *http.Request) (repository.ListFilter, error) {
	var f repository.ListFilter
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("from must be YYYY-MM-DD")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("to must be YYYY-MM-DD")
		}
		f.To = t
	}
	f.Search = strings.TrimSpace(q.Get("q"))
	if v := q.Get("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("category must be numeric")
		}
		f.CategoryID = &id
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("limit must be a non-negative number")
		}
		f.Limit = n
	}
	return f, nil
}

func (h *TransactionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Sync(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrBankNotLinked) {
			api.Error(w, http.StatusConflict, "connect a bank account first")
			return
		}
		api.Error(w, http.StatusBadGateway, "transaction sync failed")
		return
	}
	api.OK(w, "transactions synced", map[string]int{"stored": n})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			api.Error(w, http.StatusNotFound, "transaction not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "transaction lookup failed")
		return
	}
	api.OK(w, "", toPayload(t))
}

func (h *TransactionHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		CategoryID *int64 `json:"categoryId"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.svc.Categorize(r.Context(), userID, chi.URLParam(r, "id"), req.CategoryID)
	switch {
	case errors.Is(err, service.ErrTransactionNotFound):
		api.Error(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		api.Error(w, http.StatusBadRequest, "category not found")
	case err != nil:
		api.Error(w, http.StatusInternalServerError, "categorization failed")
	default:
		api.OK(w, "category updated", nil)
	}
}

func (h *TransactionHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	suggestion, err := h.svc.SuggestCategory(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			api.Error(w, http.StatusNotFound, "transaction not found")
			return
		}
		api.Error(w, http.StatusBadGateway, "category suggestion failed")
		return
	}
	api.OK(w, "", map[string]string{"suggestedCategory": suggestion})
}

func (h *TransactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = t
	}
	sum, err := h.svc.Summary(r.Context(), userID, from, to)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "summary failed")
		return
	}
	api.OK(w, "", map[string]any{
		"income":   sum.Income,
		"expenses": sum.Expenses,
		"net":      sum.Net,
		"count":    sum.Count,
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
	})
}

func (h *TransactionHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	categories, err := h.svc.ListCategories(r.Context(), userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing categories failed")
		return
	}
	type catPayload struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]catPayload, 0, len(categories))
	for _, c := range categories {
		out = append(out, catPayload{ID: c.ID, Name: c.Name})
	}
	api.OK(w, "", out)
}

func (h *TransactionHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), userID, req.Name)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Created(w, "category created", map[string]any{"id": c.ID, "name": c.Name})
}

func (h *TransactionHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "category id must be numeric")
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), userID, id); err != nil {
		api.Error(w, http.StatusInternalServerError, "deleting category failed")
		return
	}
	api.OK(w, "category deleted", nil)
}
