package download

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ProviderLimiter throttles upstream fetches per provider so the proxy never
// hits one source faster than the configured rate, no matter how many
// clients are downloading from it at once.
type ProviderLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

// NewProviderLimiter creates a keyed limiter. perSec <= 0 disables
// throttling.
func NewProviderLimiter(perSec float64, burst int) *ProviderLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(perSec),
		burst:    burst,
	}
}

// Wait blocks until the provider's limiter grants a token or the context
// ends.
func (l *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	if l == nil || l.perSec <= 0 {
		return nil
	}
	return l.limiter(provider).Wait(ctx)
}

func (l *ProviderLimiter) limiter(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[provider]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.limiters[provider] = lim
	}
	return lim
}
