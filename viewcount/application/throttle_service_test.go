package application

import (
	"testing"
	"time"

	"view-counter/viewcount/domain"
)

type stubLimiter bool

func (s stubLimiter) Allow() bool { return bool(s) }

// bucketLimiter também informa os tokens restantes.
type bucketLimiter struct {
	tokens float64
}

func (b *bucketLimiter) Allow() bool {
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucketLimiter) Tokens() float64 { return b.tokens }

type stubLimiterStore struct {
	lim  domain.Limiter
	keys []domain.Key
}

func (s *stubLimiterStore) Get(k domain.Key) domain.Limiter {
	s.keys = append(s.keys, k)
	return s.lim
}

func TestThrottleService_Decide(t *testing.T) {
	cases := []struct {
		name       string
		store      domain.LimiterStore
		retryAfter time.Duration
		want       domain.Decision
	}{
		{"no store", nil, 0, domain.Decision{Allowed: true, Remaining: -1}},
		{"nil limiter", &stubLimiterStore{}, 0, domain.Decision{Allowed: true, Remaining: -1}},
		{"limiter allows", &stubLimiterStore{lim: stubLimiter(true)}, 5 * time.Second, domain.Decision{Allowed: true, Remaining: -1}},
		{"blocked default retry", &stubLimiterStore{lim: stubLimiter(false)}, 0, domain.Decision{Remaining: -1, RetryAfter: time.Second}},
		{"blocked configured retry", &stubLimiterStore{lim: stubLimiter(false)}, 2500 * time.Millisecond, domain.Decision{Remaining: -1, RetryAfter: 2500 * time.Millisecond}},
		{"bucket reports remaining", &stubLimiterStore{lim: &bucketLimiter{tokens: 3.5}}, 0, domain.Decision{Allowed: true, Remaining: 2}},
		{"empty bucket", &stubLimiterStore{lim: &bucketLimiter{tokens: 0.4}}, 0, domain.Decision{Remaining: 0, RetryAfter: time.Second}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := ThrottleService{Store: c.store, RetryAfter: c.retryAfter}
			if got := svc.Decide("client"); got != c.want {
				t.Fatalf("Decide() = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestThrottleService_PassesKey(t *testing.T) {
	store := &stubLimiterStore{lim: stubLimiter(true)}
	ThrottleService{Store: store}.Decide("a1b2")
	if len(store.keys) != 1 || store.keys[0] != "a1b2" {
		t.Fatalf("expected key a1b2, got %v", store.keys)
	}
}
