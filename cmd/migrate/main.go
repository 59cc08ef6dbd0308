// Command migrate applies or rolls back the embedded Postgres schema.
//
//	migrate up         apply all pending migrations
//	migrate down [n]   roll back n steps (default 1)
//	migrate version    print the current schema version
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"paycall-platform/internal/config"
	"paycall-platform/internal/migrations"
	"paycall-platform/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, closer := logger.New(logger.Options{Env: cfg.App.Env, File: cfg.App.LogFile})
	defer closer.Close()
	slog.SetDefault(log)

	if !cfg.UsesPostgres() {
		return errors.New("STORAGE_DRIVER is not postgres; nothing to migrate")
	}
	if len(args) == 0 {
		return errors.New("usage: migrate up | down [n] | version")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.PostgresURL())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("migrate close failed", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return fmt.Errorf("down: step count must be a positive integer, got %q", args[1])
			}
		}
		err = m.Steps(-steps)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info("schema not initialized")
			return nil
		}
		if verr != nil {
			return verr
		}
		log.Info("schema version", "version", v, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date", "command", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	log.Info("migration applied", "command", args[0])
	return nil
}
