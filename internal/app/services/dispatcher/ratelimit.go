package dispatcher

import (
	"sync"

	"golang.org/x/time/rate"
)

// walletRateConfig mirrors the teacher's infrastructure/ratelimit.RateLimitConfig
// shape, generalized from a single global limiter to one limiter per wallet.
type walletRateConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// limiterSet lazily creates and caches one token-bucket limiter per wallet
// address (SPEC_FULL.md S3), bounding how many actions per second a single
// wallet may enqueue independent of any per-action cooldown.
type limiterSet struct {
	cfg walletRateConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet(cfg walletRateConfig) *limiterSet {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
	}
	return &limiterSet{cfg: cfg, limiters: make(map[string]*rate.Limiter)}
}

func (s *limiterSet) allow(wallet string) bool {
	s.mu.Lock()
	l, ok := s.limiters[wallet]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)
		s.limiters[wallet] = l
	}
	s.mu.Unlock()
	return l.Allow()
}
