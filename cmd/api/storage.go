package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"paycall-platform/internal/audit"
	"paycall-platform/internal/calls"
	"paycall-platform/internal/campaigns"
	"paycall-platform/internal/config"
	"paycall-platform/internal/pricing"
	"paycall-platform/internal/reporting"
	"paycall-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// storage bundles the repositories for the configured driver.
type storage struct {
	db  *sql.DB
	rdb *redis.Client

	campaigns campaigns.Repository
	calls     calls.Repository
	rates     pricing.RateRepository
	audit     audit.Repository
	slots     calls.SlotLimiter
	cache     reporting.Cache
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (*storage, error) {
	st := &storage{}

	if cfg.Redis.Host != "" {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		st.rdb = rdb
		st.cache = reporting.RedisCache{Client: rdb}
		st.slots = utils.RedisSlots{Client: rdb}
	} else {
		st.slots = utils.NewLocalSlots()
	}

	if !cfg.UsesPostgres() {
		log.Warn("using in-memory storage; data is lost on restart")
		st.campaigns = campaigns.NewMemoryRepo()
		st.calls = calls.NewMemoryRepo()
		st.rates = &pricing.MemoryRepo{}
		st.audit = audit.NewMemoryRepo()
		return st, nil
	}

	db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		st.close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	st.db = db

	cb := utils.NewBreaker(utils.BreakerConfig{Name: "postgres"})
	st.campaigns = campaigns.NewPostgresRepo(db)
	st.calls = calls.NewPostgresRepo(db, cb)
	st.rates = pricing.NewPostgresRepo(db)
	st.audit = audit.NewPostgresRepo(db)
	return st, nil
}

func (s *storage) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}
