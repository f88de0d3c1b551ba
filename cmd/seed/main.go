// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	billdomain "finsplore/backend/internal/bill/domain"
	billrepository "finsplore/backend/internal/bill/repository"
	"finsplore/backend/internal/config"
	"finsplore/backend/internal/db"
	goaldomain "finsplore/backend/internal/goal/domain"
	goalrepository "finsplore/backend/internal/goal/repository"
	"finsplore/backend/internal/security"
	txdomain "finsplore/backend/internal/transaction/domain"
	txrepository "finsplore/backend/internal/transaction/repository"
	userdomain "finsplore/backend/internal/user/domain"
	userrepository "finsplore/backend/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	users := userrepository.NewPostgresRepository(pool)
	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed: look up %s: %v", devUserEmail, err)
	}
	if existing != nil {
		log.Printf("seed: %s already exists, nothing to do", devUserEmail)
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	budget := 3000.0
	user := &userdomain.User{
		Email:         devUserEmail,
		PasswordHash:  hash,
		FirstName:     "Dev",
		LastName:      "User",
		MobileNumber:  "+61400000000",
		Username:      "devuser",
		MonthlyBudget: &budget,
		EmailVerified: true,
		Active:        true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("seed: create user: %v", err)
	}

	txRepo := txrepository.NewPostgresRepository(pool)
	groceries := &txdomain.Category{UserID: user.ID, Name: "Groceries"}
	if err := txRepo.CreateCategory(ctx, groceries); err != nil {
		log.Fatalf("seed: create category: %v", err)
	}

	now := time.Now()
	transactions := []txdomain.Transaction{
		{
			ID:          "seed-tx-001",
			UserID:      user.ID,
			AccountID:   "seed-account-001",
			Description: "Salary",
			Amount:      4200,
			Date:        now.AddDate(0, 0, -14),
			Direction:   txdomain.DirectionCredit,
		},
		{
			ID:           "seed-tx-002",
			UserID:       user.ID,
			AccountID:    "seed-account-001",
			Description:  "Woolworths",
			Amount:       86.50,
			Date:         now.AddDate(0, 0, -3),
			Direction:    txdomain.DirectionDebit,
			CategoryID:   &groceries.ID,
			MerchantName: "Woolworths",
		},
		{
			ID:           "seed-tx-003",
			UserID:       user.ID,
			AccountID:    "seed-account-001",
			Description:  "Netflix subscription",
			Amount:       16.99,
			Date:         now.AddDate(0, 0, -1),
			Direction:    txdomain.DirectionDebit,
			MerchantName: "Netflix",
		},
	}
	for i := range transactions {
		if err := txRepo.Upsert(ctx, &transactions[i]); err != nil {
			log.Fatalf("seed: upsert transaction: %v", err)
		}
	}

	due := now.AddDate(0, 0, 12)
	bill := &billdomain.Bill{
		UserID:      user.ID,
		Name:        "Electricity",
		Description: "Quarterly power bill",
		Amount:      210,
		Currency:    "AUD",
		Frequency:   billdomain.FrequencyQuarterly,
		NextDueDate: &due,
		CompanyName: "AGL",
	}
	if err := billrepository.NewPostgresRepository(pool).Create(ctx, bill); err != nil {
		log.Fatalf("seed: create bill: %v", err)
	}

	target := now.AddDate(1, 0, 0)
	goal := &goaldomain.Goal{
		UserID:        user.ID,
		Name:          "Emergency fund",
		Description:   "Three months of expenses",
		Type:          goaldomain.GoalTypeSavings,
		TargetAmount:  10000,
		CurrentAmount: 1500,
		Currency:      "AUD",
		TargetDate:    &target,
	}
	if err := goalrepository.NewPostgresRepository(pool).Create(ctx, goal); err != nil {
		log.Fatalf("seed: create goal: %v", err)
	}

	log.Printf("seed: created %s with sample transactions, a bill and a goal", devUserEmail)
}
