package main

import (
	"context"
	"errors"
	"log"

	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const testPassword = "testpassword123"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.IsProduction() {
		log.Fatal("Refusing to seed test users in production")
	}

	logger, err := logging.New(config.GetEnvironment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, nil, logger)

	testUsers := []types.RegisterRequest{
		{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
		{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
		{Email: "bob.wilson@example.com", Username: "bobwilson", FirstName: "Bob", LastName: "Wilson"},
		{Email: "alice.cooper@example.com", Username: "alicecooper", FirstName: "Alice", LastName: "Cooper"},
	}

	ctx := context.Background()
	created := 0
	for _, req := range testUsers {
		req.Password = testPassword
		user, err := auth.Register(ctx, &req)
		if errors.Is(err, service.ErrConflict) {
			log.Printf("User %s already exists, skipping...", req.Email)
			continue
		}
		if err != nil {
			log.Printf("Failed to create user %s: %v", req.Email, err)
			continue
		}
		created++
		log.Printf("Created user %s (%s) with id %d", user.Username, user.Email, user.ID)
	}

	log.Printf("Created %d of %d test users", created, len(testUsers))
	log.Printf("Password for every test user: %s", testPassword)
}
