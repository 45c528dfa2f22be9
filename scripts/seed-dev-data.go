package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/notify"
	"github.com/dom/ridecore/internal/repository/postgres"
	"github.com/dom/ridecore/internal/service"
)

var categories = []service.CategoryInput{
	{CategoryName: "Bike", Type: "two-wheeler"},
	{CategoryName: "CNG", Type: "three-wheeler"},
	{CategoryName: "Car", Type: "default"},
	{CategoryName: "Premium", Type: "premium"},
	{CategoryName: "Ambulance", Type: "emergency"},
}

// Admins cannot sign up over HTTP, so the seed writes through the service
// layer against the configured database.
func main() {
	if err := run(); err != nil {
		fmt.Printf("FAILED\n  %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{Service: "ridecore-seed", Level: logger.ParseLevel(cfg.Log.Level)})

	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer postgres.Close(db)
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	repos := postgres.NewRepositories(db)
	services := service.NewServices(repos, cfg, notify.NewSender(cfg.Notify, logg), nil, logg)

	email := "admin@ridecore.local"
	password := "devadmin123"
	if v := os.Getenv("SEED_ADMIN_PASSWORD"); v != "" {
		password = v
	}

	fmt.Println("=== Seeding development data ===")
	fmt.Println()

	fmt.Print("Creating admin... ")
	admin, err := services.User.CreateAdmin(ctx, service.CreateUserInput{
		FirstName:   "Dev",
		LastName:    "Admin",
		Email:       email,
		PhoneNumber: fmt.Sprintf("+8801%09d", rand.IntN(1_000_000_000)),
		Password:    password,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		fmt.Println("already exists")
	case err != nil:
		return err
	default:
		fmt.Printf("OK (%s)\n", admin.ID)
	}

	fmt.Println()
	fmt.Println("Creating categories:")
	for _, c := range categories {
		c.Icon = "https://cdn.ridecore.local/icons/" + c.CategoryName + ".png"
		_, err := services.Category.Create(ctx, c)
		switch {
		case errors.Is(err, domain.ErrCategoryExists):
			fmt.Printf("  %-10s already exists\n", c.CategoryName)
		case err != nil:
			fmt.Printf("  %-10s FAILED: %v\n", c.CategoryName, err)
		default:
			fmt.Printf("  %-10s created\n", c.CategoryName)
		}
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  SEED COMPLETE")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Admin email: %s\n", email)
	fmt.Println("  Log in with POST /api/users/login to get a token.")
	fmt.Println()
	fmt.Println("  Run 'go run ./cmd/simulator fleet' to put drivers on the map.")
	return nil
}
