// Defines rate limit tiers and routing rules.

package ratelimit

import (
	"net/http"
	"time"

	"github.com/maruel/mdpages/internal/storage"
)

// Tier defines a rate limit tier with its limiter.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the limiters for each tier. A nil tier is unlimited.
type Config struct {
	Write *Tier
	Read  *Tier
}

// NewConfig creates limiters from the configured per-minute rates.
// Burst is one sixth of the per-minute rate, at least 1.
func NewConfig(limits storage.RateLimits) *Config {
	c := &Config{}
	if limits.WriteRatePerMin > 0 {
		c.Write = &Tier{Name: "write", Limiter: NewLimiter(limits.WriteRatePerMin, time.Minute, max(limits.WriteRatePerMin/6, 1))}
	}
	if limits.ReadRatePerMin > 0 {
		c.Read = &Tier{Name: "read", Limiter: NewLimiter(limits.ReadRatePerMin, time.Minute, max(limits.ReadRatePerMin/6, 1))}
	}
	return c
}

// Match returns the tier for a request, or nil if it is not rate limited.
func (c *Config) Match(method, path string) *Tier {
	if c == nil || path == "/api/health" {
		return nil
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write
	case http.MethodGet, http.MethodHead:
		return c.Read
	}
	return nil
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	if c == nil {
		return
	}
	for _, t := range []*Tier{c.Write, c.Read} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
