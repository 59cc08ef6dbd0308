package campaigns

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("campaigns: invalid status transition")

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("campaigns: cannot move from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var transitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusCancelled},
	StatusActive: {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused: {StatusActive, StatusCompleted, StatusCancelled},
}

// Transition applies an externally requested lifecycle change.
func (c *Campaign) Transition(next Status) error {
	for _, s := range transitions[c.Status] {
		if s == next {
			c.Status = next
			return nil
		}
	}
	return &TransitionError{From: c.Status, To: next}
}

// Fold adds a completed call's outcome to the running sums.
// Each outcome must be folded once; use Adjust for later revenue corrections.
func (c *Campaign) Fold(o Outcome) {
	c.Performance.TotalCalls++
	if o.Duration > 0 {
		c.Performance.TotalDuration += o.Duration
	}
	if o.Cost > 0 {
		c.Performance.TotalCost += o.Cost
		c.addSpend(o.Cost, o.At)
	}
	if o.Revenue > 0 {
		c.Performance.TotalRevenue += o.Revenue
	}
	if o.Qualified {
		c.Performance.QualifiedLeads++
	}
}

// Adjust applies the revenue and qualification change between a previously folded
// outcome and its replacement. Duration and cost are fixed once a call completes.
func (c *Campaign) Adjust(prev, next Outcome) {
	c.Performance.TotalRevenue += next.Revenue - prev.Revenue
	if c.Performance.TotalRevenue < 0 {
		c.Performance.TotalRevenue = 0
	}
	switch {
	case next.Qualified && !prev.Qualified:
		c.Performance.QualifiedLeads++
	case !next.Qualified && prev.Qualified && c.Performance.QualifiedLeads > 0:
		c.Performance.QualifiedLeads--
	}
}

// addSpend charges amount to the totals and to the daily bucket of at's local day.
// The bucket only moves forward: spend dated before SpentDay counts toward Spent
// but leaves the current day's bucket alone.
func (c *Campaign) addSpend(amount float64, at time.Time) {
	c.Budget.Spent += amount
	c.RefreshRemaining()

	// DateOnly strings order chronologically.
	day := c.localDay(at)
	switch {
	case day > c.Budget.SpentDay:
		c.Budget.SpentDay = day
		c.Budget.SpentToday = amount
	case day == c.Budget.SpentDay:
		c.Budget.SpentToday += amount
	}
}

// RefreshRemaining restores Remaining = Total - Spent.
func (c *Campaign) RefreshRemaining() {
	c.Budget.Remaining = c.Budget.Total - c.Budget.Spent
}

func (c *Campaign) localDay(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	if loc, err := c.location(); err == nil {
		at = at.In(loc)
	}
	return at.Format(time.DateOnly)
}

// Metrics are the derived ratios of a campaign's performance.
type Metrics struct {
	AverageDuration float64 `json:"average_duration"`
	CostPerCall     float64 `json:"cost_per_call"`
	RevenuePerCall  float64 `json:"revenue_per_call"`
	// ROI is a percentage. It is 0 with ROIDefined false when there is no cost.
	ROI        float64 `json:"roi"`
	ROIDefined bool    `json:"roi_defined"`
}

// Metrics derives averages from the raw sums. Zero denominators yield 0.
func (c *Campaign) Metrics() Metrics {
	var m Metrics
	n := float64(c.Performance.TotalCalls)
	if n == 0 {
		return m
	}
	m.AverageDuration = float64(c.Performance.TotalDuration) / n
	m.CostPerCall = c.Budget.Spent / n
	m.RevenuePerCall = c.Performance.TotalRevenue / n
	if m.CostPerCall > 0 {
		m.ROI = (m.RevenuePerCall - m.CostPerCall) / m.CostPerCall * 100
		m.ROIDefined = true
	}
	return m
}

// BudgetExhausted reports whether the total or today's cap has been reached.
// A zero cap is treated as uncapped.
func (c *Campaign) BudgetExhausted(at time.Time) bool {
	if c.Budget.Total > 0 && c.Budget.Remaining <= 0 {
		return true
	}
	if c.Budget.Daily > 0 && c.Budget.SpentDay == c.localDay(at) && c.Budget.SpentToday >= c.Budget.Daily {
		return true
	}
	return false
}

// AcceptingCalls reports whether a new call may be attributed to the campaign at at.
func (c *Campaign) AcceptingCalls(at time.Time) bool {
	return c.IsActiveAt(at) && !c.BudgetExhausted(at)
}
