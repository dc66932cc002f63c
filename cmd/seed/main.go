package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"agrireport-backend-go/internal/config"
	"agrireport-backend-go/internal/db"
	"agrireport-backend-go/internal/logger"
	"agrireport-backend-go/internal/migrations"
	"agrireport-backend-go/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("admin-username", "admin", "username of the administrator to provision")
	email := flag.String("admin-email", "", "optional email of the administrator")
	municipality := flag.String("municipality", "Koronadal", "municipality recorded on seeded barangays")
	skipAdmin := flag.Bool("skip-admin", false, "seed reference data only")
	flag.Parse()

	cfg := config.Load()
	zlog, err := logger.New(cfg.LogLevel, "console", "agrireport-seed")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db open failed", zap.Error(err))
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		zlog.Fatal("migrations failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	inserted, err := seedReference(ctx, database, *municipality)
	if err != nil {
		zlog.Fatal("reference seed failed", zap.Error(err))
	}
	zlog.Info("reference data seeded", zap.Int64("inserted", inserted))

	if *skipAdmin {
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		zlog.Fatal("ADMIN_PASSWORD must be set to provision an administrator")
	}
	accounts := &services.AccountService{
		DB: database,
		Tokens: services.TokenService{
			Secret:     []byte(cfg.JWTSecret),
			Issuer:     cfg.JWTIssuer,
			BcryptCost: cfg.BcryptCost,
		},
		Validator: services.NewValidator(cfg.Region),
		Activity:  services.NewActivityLog(database, zlog),
		Log:       zlog,
	}
	req := services.AdminCreateRequest{Username: *username, Password: password}
	if *email != "" {
		req.Email = email
	}
	user, err := accounts.CreateAdmin(ctx, services.Claims{}, req, services.RequestMeta{UserAgent: "agrireport-seed"})
	if err != nil {
		if serr, ok := services.AsServiceError(err); ok && serr.Code == services.CodeConflict {
			zlog.Info("administrator already exists", zap.String("username", *username))
			return
		}
		zlog.Fatal("admin provisioning failed", zap.Error(err))
	}
	fmt.Printf("administrator %s created (id %s)\n", user.Username, user.ID)
}
