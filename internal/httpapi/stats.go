package httpapi

import (
	"net/http"
	"time"

	"paycall-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// CallStats returns the caller's summary for ?from=&to= (RFC3339, both optional).
// Cross-account roles may pass ?user_id= to read another account.
func (h Handlers) CallStats(c *gin.Context) {
	id := identityFrom(c)
	req := reporting.StatsRequest{UserID: id.UserID}
	if other := c.Query("user_id"); other != "" && id.readAll() {
		req.UserID = other
	}

	var ok bool
	if req.From, req.To, ok = queryWindow(c); !ok {
		return
	}

	out, err := h.Reports.CallStats(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// queryWindow parses the optional ?from= and ?to= bounds.
func queryWindow(c *gin.Context) (from, to time.Time, ok bool) {
	for key, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be RFC3339"})
			return time.Time{}, time.Time{}, false
		}
		*dst = t.UTC()
	}
	return from, to, true
}
