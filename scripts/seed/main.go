// Seeds an admin user and a starter course catalogue into an empty database.
//
// Usage:
//
//	go run ./scripts/seed -email admin@institute.local -password changeme
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/repository"
	"github.com/noah-isme/institute-api/pkg/config"
	"github.com/noah-isme/institute-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
		courses  bool
	)

	flag.StringVar(&email, "email", "admin@institute.local", "Admin email")
	flag.StringVar(&password, "password", "", "Admin password (required)")
	flag.StringVar(&fullName, "name", "Administrator", "Admin display name")
	flag.BoolVar(&courses, "courses", true, "Also seed the sample course catalogue")
	flag.Parse()

	if password == "" {
		log.Fatal("missing -password")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := repository.NewUserRepository(db)
	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	log.Printf("created admin user %s (%s)", admin.Email, admin.ID)

	if !courses {
		return
	}

	catalogue := []models.Course{
		{
			Name:           "Diploma in Computer Applications",
			Code:           "DCA",
			DurationMonths: 6,
			FullFee:        decimal.RequireFromString("15000"),
			InstallmentFee: decimal.RequireFromString("16000"),
			Installment1:   decimal.RequireFromString("8000"),
			Installment2:   decimal.RequireFromString("8000"),
			IsActive:       true,
		},
		{
			Name:           "Advanced Diploma in Computer Applications",
			Code:           "ADCA",
			DurationMonths: 12,
			FullFee:        decimal.RequireFromString("25000"),
			InstallmentFee: decimal.RequireFromString("27000"),
			Installment1:   decimal.RequireFromString("14000"),
			Installment2:   decimal.RequireFromString("13000"),
			IsActive:       true,
		},
		{
			Name:           "Tally Prime with GST",
			Code:           "TALLY",
			DurationMonths: 3,
			FullFee:        decimal.RequireFromString("8000"),
			InstallmentFee: decimal.RequireFromString("9000"),
			Installment1:   decimal.RequireFromString("4500"),
			Installment2:   decimal.RequireFromString("4500"),
			IsActive:       true,
		},
		{
			Name:           "Certificate in Computer Typing",
			Code:           "TYPING",
			DurationMonths: 3,
			FullFee:        decimal.RequireFromString("5000"),
			InstallmentFee: decimal.RequireFromString("5500"),
			Installment1:   decimal.RequireFromString("3000"),
			Installment2:   decimal.RequireFromString("2500"),
			IsActive:       true,
		},
	}

	repo := repository.NewCourseRepository(db)
	for i := range catalogue {
		if err := repo.Create(ctx, &catalogue[i]); err != nil {
			log.Fatalf("failed to seed course %s: %v", catalogue[i].Code, err)
		}
		log.Printf("seeded course %s (%s)", catalogue[i].Code, catalogue[i].ID)
	}
}
