package pricing

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) CreateMinuteRate(ctx context.Context, m MinuteRate) error {
	const q = `
INSERT INTO minute_rates (id, user_id, category, rate_per_minute, effective_from, effective_to, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	var to sql.NullTime
	if m.EffectiveTo != nil {
		to = sql.NullTime{Time: *m.EffectiveTo, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.UserID, m.Category, m.RatePerMinute, m.EffectiveFrom, to, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) FindMinuteRate(ctx context.Context, userID, category string, at time.Time) (MinuteRate, bool, error) {
	const q = `
SELECT id, user_id, category, rate_per_minute, effective_from, effective_to, status, created_at, updated_at
FROM minute_rates
WHERE user_id = $1 AND category = $2 AND status = 'active'
  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)
ORDER BY effective_from DESC
LIMIT 1
`
	var (
		m  MinuteRate
		to sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, userID, category, at).Scan(
		&m.ID, &m.UserID, &m.Category, &m.RatePerMinute, &m.EffectiveFrom, &to, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MinuteRate{}, false, nil
		}
		return MinuteRate{}, false, err
	}
	if to.Valid {
		m.EffectiveTo = &to.Time
	}
	return m, true, nil
}
