package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"paycall-platform/internal/audit"
	"paycall-platform/internal/auth"
	"paycall-platform/internal/calls"
	"paycall-platform/internal/campaigns"
	"paycall-platform/internal/config"
	"paycall-platform/internal/pricing"
	"paycall-platform/internal/reporting"
	"paycall-platform/pkg/logger"
	"paycall-platform/pkg/metrics"
	"paycall-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hookSecret = "s3cret"

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	auth   *auth.Manager
	audit  *audit.MemoryRepo
}

func newTestAPI(t *testing.T, devTokens bool) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr, err := auth.NewManager(config.AuthConfig{JWTSecret: "k", AccessTokenTTL: time.Hour, RefreshTokenTTL: 2 * time.Hour})
	require.NoError(t, err)

	auditRepo := audit.NewMemoryRepo()
	auditSvc := audit.NewService(auditRepo)
	campSvc := campaigns.NewService(campaigns.NewMemoryRepo(), campaigns.AuditAdapter{Audit: auditSvc})
	callRepo := calls.NewMemoryRepo()
	rateSvc := pricing.NewService(&pricing.MemoryRepo{})
	callSvc := calls.NewService(calls.Deps{
		Repo:      callRepo,
		Campaigns: campSvc,
		Rates:     rateSvc,
		Slots:     utils.NewLocalSlots(),
		Audit:     calls.AuditAdapter{Audit: auditSvc},
	})

	h := Handlers{
		Auth:      mgr,
		Campaigns: campSvc,
		Calls:     callSvc,
		Reports:   reporting.NewService(callRepo, nil, 0),
		Rates:     rateSvc,
		DevTokens: devTokens,
	}
	r := gin.New()
	r.Use(logger.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil))), metrics.Middleware())
	h.Register(r, auth.RequireAccessToken(mgr), WebhookOptions{Secret: hookSecret, RateRPS: 1000, RateBurst: 1000})

	return &testAPI{t: t, router: r, auth: mgr, audit: auditRepo}
}

func (a *testAPI) token(userID, role string) string {
	a.t.Helper()
	p, err := a.auth.IssuePair(time.Now(), userID, role)
	require.NoError(a.t, err)
	return p.AccessToken
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) webhook(form url.Values, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/call-status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if secret != "" {
		req.Header.Set(headerWebhookSecret, secret)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type campaignResp struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Performance struct {
		TotalCalls    int `json:"total_calls"`
		TotalDuration int `json:"total_duration"`
	} `json:"performance"`
	Budget struct {
		Spent     float64 `json:"spent"`
		Remaining float64 `json:"remaining"`
	} `json:"budget"`
	Metrics struct {
		AverageDuration float64 `json:"average_duration"`
		RevenuePerCall  float64 `json:"revenue_per_call"`
	} `json:"metrics"`
}

func (a *testAPI) activeCampaign(tok string) campaignResp {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/campaigns", tok, map[string]any{
		"name": "Insurance", "default_per_minute": 0.6, "total_budget": 1000,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	camp := decode[campaignResp](a.t, w)
	assert.Equal(a.t, "draft", camp.Status)

	w = a.do(http.MethodPost, "/v1/campaigns/"+camp.ID+"/status", tok, map[string]any{"status": "active"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[campaignResp](a.t, w)
}

func TestAPI_CallFlowThroughWebhook(t *testing.T) {
	api := newTestAPI(t, false)
	tok := api.token("adv-1", "advertiser")
	camp := api.activeCampaign(tok)

	w := api.do(http.MethodPost, "/v1/calls", tok, map[string]any{
		"campaign_id": camp.ID, "caller_number": "+15551234567", "provider_call_id": "CA1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	call := decode[calls.Call](t, w)
	assert.Equal(t, 0.6, call.Cost.PerMinute)

	t0 := time.Now().UTC().Truncate(time.Second).Add(2 * time.Second)
	w = api.webhook(url.Values{"CallSid": {"CA1"}, "CallStatus": {"in-progress"}, "Timestamp": {t0.Format(time.RFC1123Z)}}, hookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.webhook(url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}, "Timestamp": {t0.Add(125 * time.Second).Format(time.RFC1123Z)}}, hookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/v1/calls/"+call.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	call = decode[calls.Call](t, w)
	assert.Equal(t, calls.StatusCompleted, call.Status)
	assert.Equal(t, 125, call.Duration)
	assert.InDelta(t, 1.25, call.Cost.Total, 1e-9)

	w = api.do(http.MethodPut, "/v1/calls/"+call.ID+"/revenue", tok, map[string]any{"amount": 100, "source": "sale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/v1/campaigns/"+camp.ID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[campaignResp](t, w)
	assert.Equal(t, 1, got.Performance.TotalCalls)
	assert.Equal(t, 125, got.Performance.TotalDuration)
	assert.InDelta(t, 998.75, got.Budget.Remaining, 1e-9)
	assert.Equal(t, 100.0, got.Metrics.RevenuePerCall)

	w = api.do(http.MethodGet, "/v1/stats/calls", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[reporting.CallStats](t, w)
	assert.Equal(t, 1, stats.TotalCalls)
	assert.Equal(t, 100.0, stats.TotalRevenue)
	assert.Equal(t, 1, stats.ByStatus["completed"])

	w = api.do(http.MethodGet, "/v1/calls", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Calls []calls.Call `json:"calls"`
	}](t, w)
	require.Len(t, list.Calls, 1)
	assert.Equal(t, call.ID, list.Calls[0].ID)

	// late redelivery of an earlier status is acknowledged but not applied
	w = api.webhook(url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}}, hookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rejected"`)
	assert.Len(t, api.audit.Events(), 2, "activation plus the rejected transition")
}

func TestAPI_WebhookRequiresSecret(t *testing.T) {
	api := newTestAPI(t, false)
	w := api.webhook(url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}}, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.webhook(url.Values{"CallSid": {"nope"}, "CallStatus": {"ringing"}}, hookSecret)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_WebhookBodyIsCapped(t *testing.T) {
	api := newTestAPI(t, false)
	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/call-status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(headerWebhookSecret, hookSecret)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		return w
	}

	pad := strings.Repeat("x", maxWebhookBody)
	w := send(`{"provider_call_id":"CA1","status":"ringing","note":"` + pad + `"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = send(`{"provider_call_id":"CA1","status":"ringing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code, "small bodies still reach the call lookup")
}

func TestAPI_Scoping(t *testing.T) {
	api := newTestAPI(t, false)
	owner := api.token("adv-1", "advertiser")
	camp := api.activeCampaign(owner)

	other := api.token("adv-2", "advertiser")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/v1/campaigns/"+camp.ID, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/v1/campaigns/"+camp.ID+"/status", other, map[string]any{"status": "paused"}).Code)

	analyst := api.token("an-1", "analyst")
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/campaigns/"+camp.ID, analyst, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/campaigns", analyst, map[string]any{"name": "x"}).Code)

	admin := api.token("root", "admin")
	w := api.do(http.MethodPost, "/v1/calls", admin, map[string]any{"campaign_id": camp.ID, "caller_number": "+15550001111"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/v1/campaigns", "", nil).Code)
}

func TestAPI_ValidationAndConflicts(t *testing.T) {
	api := newTestAPI(t, false)
	tok := api.token("adv-1", "advertiser")

	w := api.do(http.MethodPost, "/v1/campaigns", tok, map[string]any{"name": "x", "schedule": map[string]any{"timezone": "Mars/Base"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	camp := api.activeCampaign(tok)
	w = api.do(http.MethodPost, "/v1/calls", tok, map[string]any{"campaign_id": camp.ID, "caller_number": "555-1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/v1/calls", tok, map[string]any{"campaign_id": camp.ID, "caller_number": "+15551234567"})
	require.Equal(t, http.StatusCreated, w.Code)
	call := decode[calls.Call](t, w)

	w = api.do(http.MethodPut, "/v1/calls/"+call.ID+"/quality", tok, map[string]any{"score": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/v1/calls/"+call.ID+"/status", tok, map[string]any{"status": "busy"})
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodPost, "/v1/calls/"+call.ID+"/status", tok, map[string]any{"status": "answered"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/v1/campaigns/"+camp.ID+"/status", tok, map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/v1/campaigns/"+camp.ID+"/active?at=2026-03-02T15:00:00Z", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":true`)

	w = api.do(http.MethodGet, "/v1/stats/calls?from=yesterday", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_AdminCreatesRate(t *testing.T) {
	api := newTestAPI(t, false)
	adv := api.token("adv-1", "advertiser")
	admin := api.token("root", "admin")
	rate := map[string]any{"user_id": "adv-1", "category": "legal", "rate_per_minute": 2.4}

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/rates", adv, rate).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/rates", api.token("an-1", "analyst"), rate).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/v1/rates", admin, map[string]any{"user_id": "adv-1", "rate_per_minute": 1}).Code)

	w := api.do(http.MethodPost, "/v1/rates", admin, rate)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[pricing.MinuteRate](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, pricing.RateStatusActive, created.Status)

	w = api.do(http.MethodPost, "/v1/campaigns", adv, map[string]any{"name": "Injury", "category": "legal", "default_per_minute": 0.6})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	camp := decode[campaignResp](t, w)
	w = api.do(http.MethodPost, "/v1/campaigns/"+camp.ID+"/status", adv, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/v1/calls", adv, map[string]any{"campaign_id": camp.ID, "caller_number": "+15551234567"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 2.4, decode[calls.Call](t, w).Cost.PerMinute)
}

func TestAPI_DevTokens(t *testing.T) {
	off := newTestAPI(t, false)
	assert.Equal(t, http.StatusNotFound, off.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"user_id": "u", "role": "admin"}).Code)

	on := newTestAPI(t, true)
	w := on.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"user_id": "u", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[auth.TokenPair](t, w)
	assert.NotEmpty(t, pair.AccessToken)

	w = on.do(http.MethodPost, "/v1/auth/token", "", map[string]any{"user_id": "u", "role": "root"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RateLimit(1, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
