package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/models"
)

// PartyLimiter applies a token bucket per acting party and evicts idle
// buckets as it goes.
type PartyLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	byParty map[string]*bucket
	hits    uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewPartyLimiter returns nil when rps or burst is not positive; a nil
// limiter allows everything.
func NewPartyLimiter(rps float64, burst int, idleTTL time.Duration) *PartyLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &PartyLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byParty: make(map[string]*bucket),
	}
}

func (l *PartyLimiter) Allow(party string, now time.Time) bool {
	if l == nil {
		return true
	}
	party = strings.TrimSpace(party)
	if party == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byParty[party]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byParty[party] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byParty {
			if v.lastSeen.Before(cutoff) {
				delete(l.byParty, k)
			}
		}
	}
	return allowed
}

// PartyRateLimit rejects a request with 429 once its party has used up the
// bucket. Buckets are keyed by resolve(party) so a handle and its full
// identifier share one; a nil resolve keys by the raw value.
func PartyRateLimit(l *PartyLimiter, resolve func(string) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		party := strings.TrimSpace(c.Query("party"))
		if resolve != nil && party != "" {
			party = resolve(party)
		}
		if l.Allow(party, time.Now()) {
			c.Next()
			return
		}

		log.Warn().Str("party", party).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Success:   false,
			Error:     "Too many requests for this party",
			Code:      string(apperrors.ErrCodeRateLimited),
			RequestID: c.GetString("request_id"),
		})
	}
}
