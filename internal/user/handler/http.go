package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finsplore/backend/internal/api"
	"finsplore/backend/internal/server/middleware"
	"finsplore/backend/internal/user/domain"
	"finsplore/backend/internal/user/service"
)

// UserHandler exposes the auth and profile endpoints.
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Routes mounts the public auth endpoints.
func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/verify-email", h.VerifyEmail)
	r.Post("/reset-password/request", h.RequestPasswordReset)
	r.Post("/reset-password", h.ResetPassword)
}

// ProfileRoutes mounts the authenticated profile endpoints.
func (h *UserHandler) ProfileRoutes(r chi.Router) {
	r.Get("/", h.Me)
	r.Put("/", h.UpdateProfile)
	r.Put("/budget", h.SetMonthlyBudget)
	r.Put("/savings-goal", h.SetSavingsGoal)
	r.Post("/connect-bank", h.ConnectBank)
	r.Get("/accounts", h.Accounts)
}

type userPayload struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	MiddleName    string     `json:"middleName,omitempty"`
	LastName      string     `json:"lastName"`
	FullName      string     `json:"fullName"`
	MobileNumber  string     `json:"mobileNumber,omitempty"`
	Username      string     `json:"username,omitempty"`
	AvatarURL     string     `json:"avatarUrl,omitempty"`
	MonthlyBudget *float64   `json:"monthlyBudget,omitempty"`
	SavingsGoal   *float64   `json:"savingsGoal,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

func toPayload(u *domain.User) userPayload {
	return userPayload{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		MiddleName:    u.MiddleName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		MobileNumber:  u.MobileNumber,
		Username:      u.Username,
		AvatarURL:     u.AvatarURL,
		MonthlyBudget: u.MonthlyBudget,
		SavingsGoal:   u.SavingsGoal,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
	}
}

type authPayload struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      userPayload `json:"user"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		FirstName    string `json:"firstName"`
		MiddleName   string `json:"middleName"`
		LastName     string `json:"lastName"`
		MobileNumber string `json:"mobileNumber"`
		Username     string `json:"username"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		Username:     req.Username,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			api.Error(w, http.StatusConflict, err.Error())
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Created(w, "account created", authPayload{
		Token: res.Token, ExpiresAt: res.ExpiresAt, User: toPayload(res.User),
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			api.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		api.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	api.OK(w, "login successful", authPayload{
		Token: res.Token, ExpiresAt: res.ExpiresAt, User: toPayload(res.User),
	})
}

// Logout revokes the bearer token. A 500 here means the token may still be
// alive; clients must not treat it as signed out.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		api.Error(w, http.StatusBadRequest, "no token to revoke")
		return
	}
	if err := h.svc.Logout(r.Context(), token); err != nil {
		api.Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	api.OK(w, "logged out", nil)
}

func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.svc.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			api.Error(w, http.StatusBadRequest, "invalid or expired verification link")
			return
		}
		api.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}
	api.OK(w, "email verified", nil)
}

func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		api.Error(w, http.StatusInternalServerError, "reset request failed")
		return
	}
	// Same response whether or not the address is registered.
	api.OK(w, "if the address is registered, a reset mail is on its way", nil)
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			api.Error(w, http.StatusBadRequest, "invalid or expired reset link")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, "password updated", nil)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		api.Error(w, http.StatusInternalServerError, "profile lookup failed")
		return
	}
	api.OK(w, "", toPayload(user))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		FirstName    string `json:"firstName"`
		MiddleName   string `json:"middleName"`
		LastName     string `json:"lastName"`
		MobileNumber string `json:"mobileNumber"`
		Username     string `json:"username"`
		AvatarURL    string `json:"avatarUrl"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		Username:     req.Username,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	api.OK(w, "profile updated", toPayload(user))
}

func (h *UserHandler) SetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	h.setAmount(w, r, h.svc.SetMonthlyBudget, "monthly budget updated")
}

func (h *UserHandler) SetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	h.setAmount(w, r, h.svc.SetSavingsGoal, "savings goal updated")
}

func (h *UserHandler) setAmount(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, id int64, amount *float64) error, message string) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req struct {
		Amount *float64 `json:"amount"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := set(r.Context(), userID, req.Amount); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.OK(w, message, nil)
}

func (h *UserHandler) ConnectBank(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	link, err := h.svc.ConnectBank(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrBankNotLinked) {
			api.Error(w, http.StatusServiceUnavailable, "bank connection is not configured")
			return
		}
		api.Error(w, http.StatusBadGateway, "bank connection failed")
		return
	}
	api.OK(w, "", map[string]string{"link": link})
}

func (h *UserHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	accounts, err := h.svc.Accounts(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrBankNotLinked) {
			api.Error(w, http.StatusNotFound, "no bank connection for user")
			return
		}
		api.Error(w, http.StatusBadGateway, "fetching accounts failed")
		return
	}
	api.OK(w, "", accounts)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
