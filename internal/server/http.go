// Package server assembles the HTTP router and runs the server.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finsplore/backend/internal/api"
	authhandler "finsplore/backend/internal/auth/handler"
	billhandler "finsplore/backend/internal/bill/handler"
	goalhandler "finsplore/backend/internal/goal/handler"
	"finsplore/backend/internal/server/middleware"
	suggestionhandler "finsplore/backend/internal/suggestion/handler"
	transactionhandler "finsplore/backend/internal/transaction/handler"
	userhandler "finsplore/backend/internal/user/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth           *middleware.Authenticator
	Users          *userhandler.UserHandler
	Transactions   *transactionhandler.TransactionHandler
	Bills          *billhandler.BillHandler
	Goals          *goalhandler.GoalHandler
	Suggestions    *suggestionhandler.SuggestionHandler
	Blacklist      *authhandler.BlacklistHandler
	AllowedOrigins []string
	// HealthCheck is probed by /healthz; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the chi router with CORS, request logging and the
// authentication gate applied to every route.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(d.Auth.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.HealthCheck(ctx); err != nil {
				api.Error(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		api.OK(w, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", d.Users.Routes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Route("/user", d.Users.ProfileRoutes)
			r.Route("/transactions", d.Transactions.Routes)
			r.Route("/bills", d.Bills.Routes)
			r.Route("/goals", d.Goals.Routes)
			r.Route("/suggestions", d.Suggestions.Routes)
			r.Route("/admin/blacklist", d.Blacklist.Routes)
		})
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to 10 seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
