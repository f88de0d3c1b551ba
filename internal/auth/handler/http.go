package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/auth/service"
)

// BlacklistHandler exposes operational endpoints over the token blacklist.
type BlacklistHandler struct {
	svc *service.BlacklistService
}

func NewBlacklistHandler(svc *service.BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{svc: svc}
}

func (h *BlacklistHandler) Routes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Post("/purge", h.Purge)
}

func (h *BlacklistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "blacklist stats unavailable")
		return
	}
	api.OK(w, "", stats)
}

// Purge runs one sweep outside the periodic schedule.
func (h *BlacklistHandler) Purge(w http.ResponseWriter, r *http.Request) {
	removed := h.svc.PurgeExpired(r.Context())
	api.OK(w, "purge complete", map[string]int64{"removed": removed})
}
