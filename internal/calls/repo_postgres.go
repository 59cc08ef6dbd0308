package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"paycall-platform/pkg/utils"

	"github.com/sony/gobreaker/v2"
)

// PostgresRepo stores call records in the calls table.
// Reads go through a circuit breaker so a struggling database fails fast.
type PostgresRepo struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker[any]
}

func NewPostgresRepo(db *sql.DB, cb *gobreaker.CircuitBreaker[any]) *PostgresRepo {
	return &PostgresRepo{db: db, cb: cb}
}

const callColumns = `
id, campaign_id, user_id, caller_number, tracking_number, provider_call_id, status,
initiated_at, ringing_at, answered_at, ended_at, duration, wait_time,
cost_per_minute, cost_total, revenue_amount, revenue_source,
lead_budget_min, lead_score, lead_qualified, quality_score, quality_issues,
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var (
		c                          Call
		ringing, answered, endedAt sql.NullTime
		issues                     []byte
	)
	if err := row.Scan(
		&c.ID, &c.CampaignID, &c.UserID, &c.CallerNumber, &c.TrackingNumber, &c.ProviderCallID, &c.Status,
		&c.InitiatedAt, &ringing, &answered, &endedAt, &c.Duration, &c.WaitTime,
		&c.Cost.PerMinute, &c.Cost.Total, &c.Revenue.Amount, &c.Revenue.Source,
		&c.Lead.BudgetMin, &c.Lead.Score, &c.Lead.Qualified, &c.Quality.Score, &issues,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return Call{}, err
	}
	c.RingingAt = fromNull(ringing)
	c.AnsweredAt = fromNull(answered)
	c.EndedAt = fromNull(endedAt)
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &c.Quality.Issues); err != nil {
			return Call{}, err
		}
	}
	return c, nil
}

func fromNull(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func encodeIssues(issues []string) (string, error) {
	if issues == nil {
		issues = []string{}
	}
	b, err := json.Marshal(issues)
	return string(b), err
}

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	issues, err := encodeIssues(c.Quality.Issues)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO calls (` + callColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,
  $8,$9,$10,$11,$12,$13,
  $14,$15,$16,$17,
  $18,$19,$20,$21,$22::jsonb,
  $23,$24
)
`
	_, err = r.db.ExecContext(ctx, q,
		c.ID, c.CampaignID, c.UserID, c.CallerNumber, c.TrackingNumber, c.ProviderCallID, c.Status,
		c.InitiatedAt, toNull(c.RingingAt), toNull(c.AnsweredAt), toNull(c.EndedAt), c.Duration, c.WaitTime,
		c.Cost.PerMinute, c.Cost.Total, c.Revenue.Amount, c.Revenue.Source,
		c.Lead.BudgetMin, c.Lead.Score, c.Lead.Qualified, c.Quality.Score, issues,
		c.CreatedAt, c.UpdatedAt,
	)
	if utils.IsUniqueViolation(err, "calls_provider_idx") {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Call, error) {
	return r.getOne(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
}

func (r *PostgresRepo) GetByProviderID(ctx context.Context, providerCallID string) (Call, error) {
	if providerCallID == "" {
		return Call{}, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+callColumns+` FROM calls WHERE provider_call_id = $1 LIMIT 1`, providerCallID)
}

func (r *PostgresRepo) getOne(ctx context.Context, q string, arg string) (Call, error) {
	c, err := utils.Guard(r.cb, func() (Call, error) {
		return scanCall(r.db.QueryRowContext(ctx, q, arg))
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return c, err
}

// Save rewrites the mutable columns. Identity and ownership columns are never updated.
func (r *PostgresRepo) Save(ctx context.Context, c Call) error {
	issues, err := encodeIssues(c.Quality.Issues)
	if err != nil {
		return err
	}
	const q = `
UPDATE calls SET
  status = $2, ringing_at = $3, answered_at = $4, ended_at = $5, duration = $6, wait_time = $7,
  cost_per_minute = $8, cost_total = $9, revenue_amount = $10, revenue_source = $11,
  lead_budget_min = $12, lead_score = $13, lead_qualified = $14,
  quality_score = $15, quality_issues = $16::jsonb, updated_at = $17
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		c.ID, c.Status, toNull(c.RingingAt), toNull(c.AnsweredAt), toNull(c.EndedAt), c.Duration, c.WaitTime,
		c.Cost.PerMinute, c.Cost.Total, c.Revenue.Amount, c.Revenue.Source,
		c.Lead.BudgetMin, c.Lead.Score, c.Lead.Qualified,
		c.Quality.Score, issues, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	const q = `SELECT ` + callColumns + ` FROM calls
WHERE user_id = $1
  AND ($2::timestamptz IS NULL OR initiated_at >= $2)
  AND ($3::timestamptz IS NULL OR initiated_at < $3)
ORDER BY initiated_at`

	return utils.Guard(r.cb, func() ([]Call, error) {
		rows, err := r.db.QueryContext(ctx, q, userID, boundOrNull(from), boundOrNull(to))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]Call, 0)
		for rows.Next() {
			c, err := scanCall(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	})
}

func boundOrNull(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
