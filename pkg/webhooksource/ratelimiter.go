package webhooksource

import (
	"sync"
	"time"
)

// rateLimiter is a per-source-IP sliding-window limiter, ported from
// the teacher's RateLimiter with the same 60-second window.
type rateLimiter struct {
	mu                sync.Mutex
	requests          map[string][]int64
	maxRequestsPerMin int
}

func newRateLimiter(maxRequestsPerMin int) *rateLimiter {
	return &rateLimiter{
		requests:          make(map[string][]int64),
		maxRequestsPerMin: maxRequestsPerMin,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()
	valid := make([]int64, 0, len(rl.requests[key]))
	for _, t := range rl.requests[key] {
		if now-t < 60000 {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.maxRequestsPerMin {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}
