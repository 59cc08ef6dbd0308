package campaigns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"paycall-platform/pkg/utils"
)

// PostgresRepo stores campaigns in Postgres.
//
// NOTE: assumes the tables from the embedded migrations:
// - campaigns (settings + budget + performance sums)
// - campaign_call_outcomes (one row per folded call, UNIQUE (call_id))
//
// Folds lock the campaign row (SELECT ... FOR UPDATE) so concurrent completions
// for the same campaign are applied one after another.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const campaignColumns = `
id, user_id, name, category, default_per_minute, max_concurrent_calls, status,
budget_daily, budget_total, budget_spent, budget_remaining, budget_spent_today, budget_spent_day,
total_calls, total_duration, total_cost, total_revenue, qualified_leads,
start_date, end_date, timezone, active_hours_start, active_hours_end, active_days,
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var (
		c         Campaign
		startDate sql.NullTime
		endDate   sql.NullTime
		days      []byte
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Category, &c.DefaultPerMinute, &c.MaxConcurrentCalls, &c.Status,
		&c.Budget.Daily, &c.Budget.Total, &c.Budget.Spent, &c.Budget.Remaining, &c.Budget.SpentToday, &c.Budget.SpentDay,
		&c.Performance.TotalCalls, &c.Performance.TotalDuration, &c.Performance.TotalCost, &c.Performance.TotalRevenue, &c.Performance.QualifiedLeads,
		&startDate, &endDate, &c.Schedule.Timezone, &c.Schedule.ActiveHours.Start, &c.Schedule.ActiveHours.End, &days,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	if startDate.Valid {
		c.Schedule.StartDate = startDate.Time
	}
	if endDate.Valid {
		c.Schedule.EndDate = endDate.Time
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &c.Schedule.ActiveDays); err != nil {
			return Campaign{}, err
		}
	}
	return c, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func encodeDays(days []time.Weekday) (string, error) {
	if days == nil {
		days = []time.Weekday{}
	}
	b, err := json.Marshal(days)
	return string(b), err
}

func (r *PostgresRepo) Create(ctx context.Context, c Campaign) error {
	days, err := encodeDays(c.Schedule.ActiveDays)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO campaigns (` + campaignColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,
  $8,$9,$10,$11,$12,$13,
  $14,$15,$16,$17,$18,
  $19,$20,$21,$22,$23,$24::jsonb,
  $25,$26
)
`
	_, err = r.db.ExecContext(ctx, q,
		c.ID, c.UserID, c.Name, c.Category, c.DefaultPerMinute, c.MaxConcurrentCalls, c.Status,
		c.Budget.Daily, c.Budget.Total, c.Budget.Spent, c.Budget.Remaining, c.Budget.SpentToday, c.Budget.SpentDay,
		c.Performance.TotalCalls, c.Performance.TotalDuration, c.Performance.TotalCost, c.Performance.TotalRevenue, c.Performance.QualifiedLeads,
		nullTime(c.Schedule.StartDate), nullTime(c.Schedule.EndDate), c.Schedule.Timezone, c.Schedule.ActiveHours.Start, c.Schedule.ActiveHours.End, days,
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return scanCampaign(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE ($1 = '' OR user_id = $1) ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateStatus locks the row so the transition is checked against the committed
// status; concurrent requests for the same campaign are applied one after another.
func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, next Status, at time.Time) (Campaign, Status, error) {
	var (
		out  Campaign
		from Status
	)
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCampaign(tx.QueryRowContext(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		from = c.Status
		if err := c.Transition(next); err != nil {
			return err
		}
		c.UpdatedAt = at
		if _, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
			id, c.Status, c.UpdatedAt, from); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return Campaign{}, from, err
	}
	return out, from, nil
}

func (r *PostgresRepo) ApplyOutcome(ctx context.Context, o Outcome) (Campaign, bool, error) {
	if o.CallID == "" || o.CampaignID == "" {
		return Campaign{}, false, ErrInvalidArgument
	}

	var (
		out    Campaign
		folded bool
	)
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCampaign(tx.QueryRowContext(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, o.CampaignID))
		if err != nil {
			return err
		}

		prev, found, err := findOutcome(ctx, tx, o.CallID)
		if err != nil {
			return err
		}
		var prevPtr *Outcome
		if found {
			prevPtr = &prev
			o.Duration, o.Cost = prev.Duration, prev.Cost
		}
		folded = applyOutcome(&c, prevPtr, o)
		c.UpdatedAt = time.Now().UTC()

		if err := upsertOutcome(ctx, tx, o); err != nil {
			return err
		}
		if err := writePerformance(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, folded, err
}

func findOutcome(ctx context.Context, tx *sql.Tx, callID string) (Outcome, bool, error) {
	const q = `
SELECT call_id, campaign_id, duration, cost, revenue, qualified, occurred_at
FROM campaign_call_outcomes
WHERE call_id = $1
`
	var o Outcome
	err := tx.QueryRowContext(ctx, q, callID).Scan(
		&o.CallID, &o.CampaignID, &o.Duration, &o.Cost, &o.Revenue, &o.Qualified, &o.At,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outcome{}, false, nil
		}
		return Outcome{}, false, err
	}
	return o, true, nil
}

func upsertOutcome(ctx context.Context, tx *sql.Tx, o Outcome) error {
	const q = `
INSERT INTO campaign_call_outcomes (call_id, campaign_id, duration, cost, revenue, qualified, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (call_id)
DO UPDATE SET revenue = EXCLUDED.revenue, qualified = EXCLUDED.qualified
`
	_, err := tx.ExecContext(ctx, q, o.CallID, o.CampaignID, o.Duration, o.Cost, o.Revenue, o.Qualified, o.At)
	return err
}

func writePerformance(ctx context.Context, tx *sql.Tx, c Campaign) error {
	const q = `
UPDATE campaigns SET
  budget_spent = $2, budget_remaining = $3, budget_spent_today = $4, budget_spent_day = $5,
  total_calls = $6, total_duration = $7, total_cost = $8, total_revenue = $9, qualified_leads = $10,
  updated_at = $11
WHERE id = $1
`
	_, err := tx.ExecContext(ctx, q,
		c.ID,
		c.Budget.Spent, c.Budget.Remaining, c.Budget.SpentToday, c.Budget.SpentDay,
		c.Performance.TotalCalls, c.Performance.TotalDuration, c.Performance.TotalCost,
		c.Performance.TotalRevenue, c.Performance.QualifiedLeads,
		c.UpdatedAt,
	)
	return err
}
