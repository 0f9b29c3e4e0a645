package sos

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

func rateLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStore holds one token bucket per key (device id for webhooks, user id for the API).
// Idle buckets are dropped by Sweep.
type RateLimiterStore struct {
	limiters     map[string]*keyedLimiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	if defaultBurst < 1 {
		defaultBurst = 1
	}
	return &RateLimiterStore{
		limiters:     make(map[string]*keyedLimiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.limiters[key]
	if !exists {
		entry = &keyedLimiter{limiter: rate.NewLimiter(s.defaultRate, s.defaultBurst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (s *RateLimiterStore) SetLimiter(key string, keyRate rate.Limit, keyBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[key] = &keyedLimiter{limiter: rate.NewLimiter(keyRate, keyBurst), lastSeen: time.Now()}
}

// Allow takes one token for key; surface labels the rejection counter.
func (s *RateLimiterStore) Allow(surface, key string) bool {
	if s.GetLimiter(key).Allow() {
		return true
	}
	limitedRequests.WithLabelValues(surface).Inc()
	return false
}

// Sweep drops limiters not used within idle and returns how many were removed.
func (s *RateLimiterStore) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for key, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, key)
			removed++
		}
	}
	return removed
}

func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
