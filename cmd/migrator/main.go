package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/program-catalog-api/internal/models"
	"github.com/noah-isme/program-catalog-api/internal/repository"
	"github.com/noah-isme/program-catalog-api/migrations"
	"github.com/noah-isme/program-catalog-api/pkg/config"
	"github.com/noah-isme/program-catalog-api/pkg/database"
	"github.com/noah-isme/program-catalog-api/pkg/logger"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	dir := cfg.Migrations.Dir
	if dir == "" {
		goose.SetBaseFS(migrations.FS)
		dir = "."
	}
	if err := goose.SetDialect("postgres"); err != nil {
		logr.Fatal("failed to set goose dialect", zap.Error(err))
	}

	switch command := args[0]; command {
	case "up":
		err = goose.Up(db.DB, dir)
	case "down":
		err = goose.Down(db.DB, dir)
	case "status":
		err = goose.Status(db.DB, dir)
	case "version":
		err = goose.Version(db.DB, dir)
	case "create-admin":
		if len(args) < 3 {
			logr.Fatal("create-admin requires EMAIL and PASSWORD")
		}
		err = createAdmin(repository.NewUserRepository(db), args[1], args[2])
	default:
		fmt.Printf("unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("migrator command failed", zap.String("command", args[0]), zap.Error(err))
	}
	logr.Info("migrator command finished", zap.String("command", args[0]))
}

type adminStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

func createAdmin(store adminStore, email, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	email = strings.TrimSpace(email)
	if email == "" || len(password) < 8 {
		return fmt.Errorf("email is required and password must be at least 8 characters")
	}
	exists, err := store.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return fmt.Errorf("account %s already exists", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	return store.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func usage() {
	fmt.Println("usage: migrator <command>")
	fmt.Println("commands:")
	fmt.Println("  up                           apply all pending migrations")
	fmt.Println("  down                         roll back the latest migration")
	fmt.Println("  status                       print migration status")
	fmt.Println("  version                      print the current schema version")
	fmt.Println("  create-admin EMAIL PASSWORD  provision the first admin account")
}
