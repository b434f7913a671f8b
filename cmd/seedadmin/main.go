// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seedadmin creates the initial administrator account.
//
// It reads the usual server configuration plus SEED_ADMIN_NAME,
// SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD and SEED_ADMIN_ROLE. Running it twice
// with the same email is a no-op.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/modgate/internal/auth"
	"github.com/taibuivan/modgate/internal/platform/config"
	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/dberr"
	mongostore "github.com/taibuivan/modgate/internal/platform/mongo"
	"github.com/taibuivan/modgate/internal/platform/sec"
)

type seedConfig struct {
	Name     string `env:"SEED_ADMIN_NAME"     envDefault:"Administrator"`
	Email    string `env:"SEED_ADMIN_EMAIL,required"`
	Password string `env:"SEED_ADMIN_PASSWORD,required"`
	Role     string `env:"SEED_ADMIN_ROLE"     envDefault:"superadmin"`
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", constants.AppName+"-seed"))

	if err := run(log); err != nil {
		log.Error("seed_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var seed seedConfig
	if err := env.Parse(&seed); err != nil {
		return fmt.Errorf("seed: failed to parse environment variables: %w", err)
	}

	role := sec.Role(strings.ToLower(strings.TrimSpace(seed.Role)))
	if !role.IsAdmin() {
		return fmt.Errorf("seed: SEED_ADMIN_ROLE must be admin or superadmin, got %q", seed.Role)
	}
	if len(seed.Password) < auth.MinPasswordLength {
		return fmt.Errorf("seed: SEED_ADMIN_PASSWORD must be at least %d characters", auth.MinPasswordLength)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	admins := auth.NewMongoAdminRepository(store.DB())
	if err := admins.EnsureIndexes(ctx); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if _, err := admins.FindByEmail(ctx, email); err == nil {
		log.Info("seed_admin_exists", slog.String("email", email))
		return nil
	} else if !dberr.IsNotFound(err) {
		return err
	}

	hash, err := sec.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	admin := &auth.Admin{
		Name:         strings.TrimSpace(seed.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := admins.Create(ctx, admin); err != nil {
		if errors.Is(err, dberr.ErrDuplicate) {
			log.Info("seed_admin_exists", slog.String("email", email))
			return nil
		}
		return err
	}

	log.Info("seed_admin_created", slog.String("admin_id", admin.ID), slog.String("role", string(role)))
	return nil
}
