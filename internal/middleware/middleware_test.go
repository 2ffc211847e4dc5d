package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPartyLimiterIsPerParty(t *testing.T) {
	l := NewPartyLimiter(1, 2, time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow("alice", now))
	assert.True(t, l.Allow("alice", now))
	assert.False(t, l.Allow("alice", now))

	assert.True(t, l.Allow("bob", now))
	assert.True(t, l.Allow("alice", now.Add(time.Second)))
}

func TestPartyLimiterDisabled(t *testing.T) {
	var l *PartyLimiter = NewPartyLimiter(0, 10, 0)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("alice", time.Now()))
	}

	l = NewPartyLimiter(1, 1, 0)
	assert.True(t, l.Allow("", time.Now()))
	assert.True(t, l.Allow("  ", time.Now()))
}

func TestPartyRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.POST("/cmd", PartyRateLimit(NewPartyLimiter(0.001, 1, time.Minute), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(party string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cmd?party="+party, nil)
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("alice").Code)
	limited := send("alice")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
	assert.Equal(t, http.StatusOK, send("bob").Code)
}

func TestPartyRateLimitKeysOnResolvedParty(t *testing.T) {
	resolve := func(p string) string {
		if p == "alice" {
			return "alice::1220ab"
		}
		return p
	}
	r := gin.New()
	r.POST("/cmd", PartyRateLimit(NewPartyLimiter(0.001, 1, time.Minute), resolve), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(party string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cmd?party="+party, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice::1220ab"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
}

func TestRequestIDGeneratedOrEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := w.Header().Get("X-Request-ID")
	require.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
