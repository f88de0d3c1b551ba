package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/server/middleware"
	"finsplore/backend/internal/suggestion/domain"
	"finsplore/backend/internal/suggestion/service"
)

// SuggestionHandler exposes the advisor endpoints.
type SuggestionHandler struct {
	svc *service.SuggestionService
}

func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

func (h *SuggestionHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/generate", h.Generate)
	r.Post("/chat", h.Chat)
	r.Delete("/{id}", h.Delete)
}

type suggestionPayload struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Type             string    `json:"type"`
	PotentialSavings *float64  `json:"potentialSavings,omitempty"`
	ConfidenceScore  *float64  `json:"confidenceScore,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toPayloads(items []domain.Suggestion) []suggestionPayload {
	out := make([]suggestionPayload, 0, len(items))
	for i := range items {
		s := &items[i]
		out = append(out, suggestionPayload{
			ID:               s.ID,
			Title:            s.Title,
			Description:      s.Description,
			Type:             string(s.Type),
			PotentialSavings: s.PotentialSavings,
			ConfidenceScore:  s.ConfidenceScore,
			CreatedAt:        s.CreatedAt,
		})
	}
	return out
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), userID)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "listing suggestions failed")
		return
	}
	api.OK(w, "", toPayloads(items))
}

func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, err := h.svc.Generate(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAdvisorUnavailable) {
			api.Error(w, http.StatusServiceUnavailable, "advisor is not configured")
			return
		}
		api.Error(w, http.StatusBadGateway, "suggestion generation failed")
		return
	}
	api.OK(w, "suggestions generated", toPayloads(items))
}

func (h *SuggestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrSuggestionNotFound) {
			api.Error(w, http.StatusNotFound, "suggestion not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "deleting suggestion failed")
		return
	}
	api.OK(w, "suggestion deleted", nil)
}

func (h *SuggestionHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := h.svc.Chat(r.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrAdvisorUnavailable) {
			api.Error(w, http.StatusServiceUnavailable, "advisor is not configured")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, "", map[string]string{"reply": reply})
}
