package reporting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"paycall-platform/internal/calls"
	"paycall-platform/pkg/logger"
	"paycall-platform/pkg/metrics"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts call reads. calls.Repository satisfies it.
//
// IMPORTANT:
// - Implementations must filter by owner; reporting never sees other users' rows.
type Repository interface {
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]calls.Call, error)
}

// Cache stores computed summaries. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
}

func NewService(repo Repository, cache Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

// CallStats summarizes the owner's calls in the requested window.
// Cached results may lag writes by up to the cache TTL.
func (s *Service) CallStats(ctx context.Context, req StatsRequest) (CallStats, error) {
	if req.UserID == "" {
		return CallStats{}, ErrInvalidRequest
	}
	if !req.From.IsZero() && !req.To.IsZero() && !req.To.After(req.From) {
		return CallStats{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallStats{}, errors.New("reporting: repository not configured")
	}

	key := cacheKey(req)
	if s.cache != nil && s.ttl > 0 {
		var cached CallStats
		ok, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.ReportCacheLookups.WithLabelValues("error").Inc()
			logger.From(ctx).Warn("stats cache read failed", "err", err)
		case ok:
			metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	rows, err := s.repo.ListByUser(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return CallStats{}, err
	}
	out := Summarize(req, rows)

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			logger.From(ctx).Warn("stats cache write failed", "err", err)
		}
	}
	return out, nil
}

// Summarize folds call rows into totals. Rows of other users are skipped.
func Summarize(req StatsRequest, rows []calls.Call) CallStats {
	out := CallStats{UserID: req.UserID, From: req.From, To: req.To, ByStatus: map[string]int{}}
	byCampaign := map[string]*CampaignStats{}

	for _, c := range rows {
		if c.UserID != req.UserID {
			continue
		}
		out.TotalCalls++
		out.TotalDuration += c.Duration
		out.TotalCost += c.Cost.Total
		out.TotalRevenue += c.Revenue.Amount
		if c.Lead.Qualified {
			out.QualifiedLeads++
		}
		out.ByStatus[string(c.Status)]++

		cs, ok := byCampaign[c.CampaignID]
		if !ok {
			cs = &CampaignStats{CampaignID: c.CampaignID}
			byCampaign[c.CampaignID] = cs
		}
		cs.TotalCalls++
		cs.TotalDuration += c.Duration
		cs.TotalCost += c.Cost.Total
		cs.TotalRevenue += c.Revenue.Amount
		if c.Lead.Qualified {
			cs.QualifiedLeads++
		}
	}

	if out.TotalCalls > 0 {
		out.AverageDuration = float64(out.TotalDuration) / float64(out.TotalCalls)
	}
	out.Campaigns = make([]CampaignStats, 0, len(byCampaign))
	for _, cs := range byCampaign {
		out.Campaigns = append(out.Campaigns, *cs)
	}
	slices.SortFunc(out.Campaigns, func(a, b CampaignStats) int { return strings.Compare(a.CampaignID, b.CampaignID) })
	return out
}

func cacheKey(req StatsRequest) string {
	return fmt.Sprintf("stats:calls:%s:%d:%d", req.UserID, unixOrZero(req.From), unixOrZero(req.To))
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
