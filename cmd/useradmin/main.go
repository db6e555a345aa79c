package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	appidentity "github.com/retail/backoffice/internal/application/identity"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/infrastructure/auth"
	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/retail/backoffice/internal/infrastructure/logger"
	"github.com/retail/backoffice/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const passwordEnv = "BACKOFFICE_USER_PASSWORD"

func main() {
	var (
		role     string
		logLevel string
	)
	flag.StringVar(&role, "role", string(identity.RoleAdmin), "Role of the created user (admin, manager, cashier, storekeeper)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command, username := args[0], args[1]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	password := os.Getenv(passwordEnv)
	if password == "" {
		log.Fatal("Password required in " + passwordEnv)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	userRepo := db.NewTransactionScope().Repositories().Users()
	authService := appidentity.NewAuthService(userRepo, log)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "create":
		users := appidentity.NewUserService(userRepo, authService, log)
		user, err := users.CreateUser(ctx, appidentity.CreateUserCommand{
			Username: username,
			Password: password,
			Role:     identity.Role(role),
		}, uuid.Nil)
		if err != nil {
			log.Fatal("Failed to create user", zap.Error(err))
		}
		fmt.Println(user.ID)
	case "token":
		user, err := authService.Authenticate(ctx, username, password)
		if err != nil {
			log.Fatal("Authentication failed", zap.Error(err))
		}
		token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateAccessToken(user)
		if err != nil {
			log.Fatal("Failed to sign token", zap.Error(err))
		}
		log.Info("Token issued",
			zap.String("user_id", user.ID.String()),
			zap.String("role", user.Role.String()),
			zap.Time("expires_at", expiresAt),
		)
		fmt.Println(token)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Back-office account administration

Usage:
  useradmin [flags] <command> <username>

Commands:
  create <username>     Create an account (the first admin, or an integration account)
  token <username>      Authenticate and print a bearer token for the API

Flags:
  -role string          Role for create (default: admin)
  -log-level string     debug, info, warn, error (default: info)

The password is read from ` + passwordEnv + `. Database and JWT settings come
from BACKOFFICE_* variables or config.toml.`)
}
