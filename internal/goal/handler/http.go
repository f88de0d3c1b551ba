package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/goal/domain"
	"finsplore/backend/internal/goal/service"
	"finsplore/backend/internal/server/middleware"
)

// GoalHandler exposes the financial goal endpoints.
type GoalHandler struct {
	svc *service.GoalService
}

func NewGoalHandler(svc *service.GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

func (h *GoalHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/contribute", h.Contribute)
	r.Delete("/{id}", h.Delete)
}

type goalRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Currency      string  `json:"currency"`
	TargetDate    string  `json:"targetDate"`
}

func (req *goalRequest) toInput() (service.Input, error) {
	in := service.Input{
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Currency:      req.Currency,
	}
	if req.TargetDate != "" {
		t, err := time.Parse("2006-01-02", req.TargetDate)
		if err != nil {
			return in, errors.New("targetDate must be YYYY-MM-DD")
		}
		in.TargetDate = &t
	}
	return in, nil
}

type goalPayload struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Type          string  `json:"type"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Currency      string  `json:"currency"`
	TargetDate    string  `json:"targetDate,omitempty"`
	Progress      float64 `json:"progress"`
	Achieved      bool    `json:"achieved"`
}

func toPayload(g *domain.Goal) goalPayload {
	p := goalPayload{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Type:          string(g.Type),
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Currency:      g.Currency,
		Progress:      g.Progress(),
		Achieved:      g.Achieved(),
	}
	if g.TargetDate != nil {
		p.TargetDate = g.TargetDate.Format("2006-01-02")
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

func goalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "goal id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Created(w, "goal created", toPayload(g))
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goals, err := h.svc.List(r.Context(), userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing goals failed")
		return
	}
	out := make([]goalPayload, 0, len(goals))
	for i := range goals {
		out = append(out, toPayload(&goals[i]))
	}
	api.OK(w, "", out)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := goalID(w, r)
	if !ok {
		return
	}
	g, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			api.Error(w, http.StatusNotFound, "goal not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "goal lookup failed")
		return
	}
	api.OK(w, "", toPayload(g))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := goalID(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := h.svc.Update(r.Context(), userID, id, in)
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			api.Error(w, http.StatusNotFound, "goal not found")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, "goal updated", toPayload(g))
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := goalID(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := h.svc.Contribute(r.Context(), userID, id, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			api.Error(w, http.StatusNotFound, "goal not found")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, "contribution recorded", toPayload(g))
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := goalID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			api.Error(w, http.StatusNotFound, "goal not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "deleting goal failed")
		return
	}
	api.OK(w, "goal deleted", nil)
}
