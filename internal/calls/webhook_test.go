package calls

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusEvent_TwilioForm(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&CallStatus=in-progress&Timestamp=Mon%2C+02+Mar+2026+15%3A00%3A00+%2B0000")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/call-status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ev, err := ParseStatusEvent(r)
	require.NoError(t, err)
	assert.Equal(t, "CA123", ev.ProviderCallID)
	assert.Equal(t, StatusAnswered, ev.Status)
	assert.True(t, ev.OccurredAt.Equal(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)))
}

func TestParseStatusEvent_JSON(t *testing.T) {
	body := strings.NewReader(`{"call_id":"c1","status":"no-answer","timestamp":"1772463600"}`)
	r := httptest.NewRequest(http.MethodPost, "/webhooks/call-status", body)
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	ev, err := ParseStatusEvent(r)
	require.NoError(t, err)
	assert.Equal(t, "c1", ev.CallID)
	assert.Equal(t, StatusNoAnswer, ev.Status)
	assert.Equal(t, int64(1772463600), ev.OccurredAt.Unix())
}

func TestParseStatusEvent_Rejects(t *testing.T) {
	bodies := []string{
		`{"status":"completed"}`,
		`{"call_id":"c1","status":"exploded"}`,
		`{"call_id":"c1","status":"completed","timestamp":"yesterday"}`,
		`not json`,
	}
	for _, b := range bodies {
		r := httptest.NewRequest(http.MethodPost, "/webhooks/call-status", strings.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
		_, err := ParseStatusEvent(r)
		assert.ErrorIs(t, err, ErrInvalidEvent, b)
	}
}

func TestMapProviderStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"queued":    StatusInitiated,
		"Ringing":   StatusRinging,
		"completed": StatusCompleted,
		"canceled":  StatusFailed,
		"busy":      StatusBusy,
	} {
		got, ok := MapProviderStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}
