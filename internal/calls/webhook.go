package calls

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusEvent is a provider status callback normalized to our types.
// Twilio-style forms (CallSid, CallStatus, Timestamp) and plain JSON are both accepted.
type StatusEvent struct {
	CallID         string    `json:"call_id"`
	ProviderCallID string    `json:"provider_call_id"`
	Status         Status    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

var ErrInvalidEvent = errors.New("calls: invalid status event")

type statusPayload struct {
	CallID         string `json:"call_id"`
	ProviderCallID string `json:"provider_call_id"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
}

func ParseStatusEvent(r *http.Request) (StatusEvent, error) {
	var p statusPayload

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return StatusEvent{}, errors.Join(ErrInvalidEvent, err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return StatusEvent{}, errors.Join(ErrInvalidEvent, err)
		}
		p = statusPayload{
			CallID:         r.PostFormValue("call_id"),
			ProviderCallID: firstNonEmpty(r.PostFormValue("CallSid"), r.PostFormValue("provider_call_id")),
			Status:         firstNonEmpty(r.PostFormValue("CallStatus"), r.PostFormValue("status")),
			Timestamp:      firstNonEmpty(r.PostFormValue("Timestamp"), r.PostFormValue("timestamp")),
		}
	}

	if p.CallID == "" && p.ProviderCallID == "" {
		return StatusEvent{}, ErrInvalidEvent
	}
	st, ok := MapProviderStatus(p.Status)
	if !ok {
		return StatusEvent{}, ErrInvalidEvent
	}
	at, err := parseEventTime(p.Timestamp)
	if err != nil {
		return StatusEvent{}, errors.Join(ErrInvalidEvent, err)
	}
	return StatusEvent{
		CallID:         strings.TrimSpace(p.CallID),
		ProviderCallID: strings.TrimSpace(p.ProviderCallID),
		Status:         st,
		OccurredAt:     at,
	}, nil
}

// MapProviderStatus translates provider status names (Twilio spelling included)
// into call statuses.
func MapProviderStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "initiated", "queued":
		return StatusInitiated, true
	case "ringing":
		return StatusRinging, true
	case "answered", "in-progress", "in_progress":
		return StatusAnswered, true
	case "completed":
		return StatusCompleted, true
	case "failed", "canceled", "cancelled":
		return StatusFailed, true
	case "no-answer", "no_answer":
		return StatusNoAnswer, true
	case "busy":
		return StatusBusy, true
	default:
		return "", false
	}
}

// parseEventTime accepts RFC3339, RFC1123Z (Twilio), or unix seconds. Empty means unknown.
func parseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
