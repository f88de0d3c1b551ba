package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"finsplore/backend/internal/ai"
	authhandler "finsplore/backend/internal/auth/handler"
	authrepository "finsplore/backend/internal/auth/repository"
	authservice "finsplore/backend/internal/auth/service"
	"finsplore/backend/internal/basiq"
	billhandler "finsplore/backend/internal/bill/handler"
	billrepository "finsplore/backend/internal/bill/repository"
	billservice "finsplore/backend/internal/bill/service"
	"finsplore/backend/internal/config"
	"finsplore/backend/internal/db"
	"finsplore/backend/internal/email"
	goalhandler "finsplore/backend/internal/goal/handler"
	goalrepository "finsplore/backend/internal/goal/repository"
	goalservice "finsplore/backend/internal/goal/service"
	"finsplore/backend/internal/security"
	"finsplore/backend/internal/server"
	"finsplore/backend/internal/server/middleware"
	suggestionhandler "finsplore/backend/internal/suggestion/handler"
	suggestionrepository "finsplore/backend/internal/suggestion/repository"
	suggestionservice "finsplore/backend/internal/suggestion/service"
	"finsplore/backend/internal/telemetry"
	"finsplore/backend/internal/telemetry/otel"
	transactionhandler "finsplore/backend/internal/transaction/handler"
	transactionrepository "finsplore/backend/internal/transaction/repository"
	transactionservice "finsplore/backend/internal/transaction/service"
	userhandler "finsplore/backend/internal/user/handler"
	userrepository "finsplore/backend/internal/user/repository"
	userservice "finsplore/backend/internal/user/service"
)

const serviceName = "finsplore-backend"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.TokenTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	var blacklistRepo authservice.BlacklistRepo
	switch cfg.BlacklistBackend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		blacklistRepo = authrepository.NewRedisRepository(redis.NewClient(opts))
	case "postgres":
		blacklistRepo = authrepository.NewPostgresRepository(pool)
	default:
		log.Fatalf("unknown blacklist backend %q", cfg.BlacklistBackend)
	}

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(serviceName))
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	blacklist := authservice.NewBlacklistService(blacklistRepo, tokens).WithMetrics(metrics)
	go blacklist.RunPurgeLoop(ctx, cfg.PurgeInterval())

	auth := middleware.NewAuthenticator(tokens, blacklist, nil, metrics)

	// Optional integrations; each constructor returns nil when unconfigured
	// and the services degrade to no-ops.
	var mailer userservice.EmailSender
	if s := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFromEmail, cfg.SMTPFromName); s != nil {
		mailer = s
	}
	bank := basiq.NewClient(cfg.BasiqAPIKey, cfg.BasiqBaseURL)
	advisor := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

	userRepo := userrepository.NewPostgresRepository(pool)
	var bankClient userservice.BankClient
	if bank != nil {
		bankClient = bank
	}
	users := userservice.NewUserService(userRepo, hasher, tokens, blacklist, mailer, bankClient, cfg.AppBaseURL)

	var feed transactionservice.BankFeed
	if bank != nil {
		feed = bank
	}
	var classifier transactionservice.Classifier
	if advisor != nil {
		classifier = advisor
	}
	transactions := transactionservice.NewTransactionService(
		transactionrepository.NewPostgresRepository(pool), userRepo, feed, classifier)

	bills := billservice.NewBillService(billrepository.NewPostgresRepository(pool))
	goals := goalservice.NewGoalService(goalrepository.NewPostgresRepository(pool))

	var suggestionAdvisor suggestionservice.Advisor
	if advisor != nil {
		suggestionAdvisor = advisor
	}
	suggestions := suggestionservice.NewSuggestionService(
		suggestionrepository.NewPostgresRepository(pool), transactions, suggestionAdvisor)

	handler := server.NewRouter(server.Deps{
		Auth:           auth,
		Users:          userhandler.NewUserHandler(users),
		Transactions:   transactionhandler.NewTransactionHandler(transactions),
		Bills:          billhandler.NewBillHandler(bills),
		Goals:          goalhandler.NewGoalHandler(goals),
		Suggestions:    suggestionhandler.NewSuggestionHandler(suggestions),
		Blacklist:      authhandler.NewBlacklistHandler(blacklist),
		AllowedOrigins: strings.Split(cfg.CORSAllowedOrigins, ","),
		HealthCheck:    pool.Ping,
	})

	if err := server.Serve(ctx, cfg.HTTPAddr, handler); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
