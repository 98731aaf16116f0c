package signal

import (
	"golang.org/x/time/rate"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
)

// newRateLimiter caps inbound messages on one connection.
// A zero rate disables the limit.
func newRateLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	if cfg.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)
}
