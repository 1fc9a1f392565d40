package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ProfileLimiter keeps one token bucket per profile.
type ProfileLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewProfileLimiter allows perMinute requests per profile, bursting up to the same amount.
func NewProfileLimiter(perMinute int) *ProfileLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &ProfileLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Every(time.Minute / time.Duration(perMinute)),
		b: perMinute,
	}
}

func (pl *ProfileLimiter) limiterFor(key string) *rate.Limiter {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if lim, ok := pl.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(pl.r, pl.b)
	pl.m[key] = lim
	return lim
}

// Middleware rejects with 429 once the caller's bucket is empty. It runs after requireProfile.
func (pl *ProfileLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p := currentProfile(c); p != nil {
			key = p.ID
		}
		if !pl.limiterFor(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many AI requests, try again in a minute"})
			return
		}
		c.Next()
	}
}
