package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/bill/domain"
	"finsplore/backend/internal/bill/service"
	"finsplore/backend/internal/server/middleware"
)

// BillHandler exposes the bill endpoints.
type BillHandler struct {
	svc *service.BillService
}

func NewBillHandler(svc *service.BillService) *BillHandler {
	return &BillHandler{svc: svc}
}

func (h *BillHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/upcoming", h.Upcoming)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/paid", h.MarkPaid)
	r.Delete("/{id}", h.Delete)
}

type billRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Frequency   string  `json:"frequency"`
	NextDueDate string  `json:"nextDueDate"`
	CompanyName string  `json:"companyName"`
}

func (req *billRequest) toInput() (service.Input, error) {
	in := service.Input{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Frequency:   req.Frequency,
		CompanyName: req.CompanyName,
	}
	if req.NextDueDate != "" {
		t, err := time.Parse("2006-01-02", req.NextDueDate)
		if err != nil {
			return in, errors.New("nextDueDate must be YYYY-MM-DD")
		}
		in.NextDueDate = &t
	}
	return in, nil
}

type billPayload struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Frequency   string  `json:"frequency"`
	NextDueDate string  `json:"nextDueDate,omitempty"`
	CompanyName string  `json:"companyName,omitempty"`
}

func toPayload(b *domain.Bill) billPayload {
	p := billPayload{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Amount:      b.Amount,
		Currency:    b.Currency,
		Frequency:   string(b.Frequency),
		CompanyName: b.CompanyName,
	}
	if b.NextDueDate != nil {
		p.NextDueDate = b.NextDueDate.Format("2006-01-02")
	}
	return p
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}

func billID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "bill id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Created(w, "bill created", toPayload(b))
}

func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	bills, err := h.svc.List(r.Context(), userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing bills failed")
		return
	}
	out := make([]billPayload, 0, len(bills))
	for i := range bills {
		out = append(out, toPayload(&bills[i]))
	}
	api.OK(w, "", out)
}

func (h *BillHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			api.Error(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = n
	}
	bills, err := h.svc.Upcoming(r.Context(), userID, days)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing upcoming bills failed")
		return
	}
	out := make([]billPayload, 0, len(bills))
	for i := range bills {
		out = append(out, toPayload(&bills[i]))
	}
	api.OK(w, "", out)
}

func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := billID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrBillNotFound) {
			api.Error(w, http.StatusNotFound, "bill not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "bill lookup failed")
		return
	}
	api.OK(w, "", toPayload(b))
}

func (h *BillHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := billID(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Update(r.Context(), userID, id, in)
	if err != nil {
		if errors.Is(err, service.ErrBillNotFound) {
			api.Error(w, http.StatusNotFound, "bill not found")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, "bill updated", toPayload(b))
}

func (h *BillHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := billID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.MarkPaid(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrBillNotFound) {
			api.Error(w, http.StatusNotFound, "bill not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "marking bill paid failed")
		return
	}
	api.OK(w, "bill marked paid", toPayload(b))
}

func (h *BillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := billID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrBillNotFound) {
			api.Error(w, http.StatusNotFound, "bill not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "deleting bill failed")
		return
	}
	api.OK(w, "bill deleted", nil)
}
