package viewcount

import (
	"net/http"
	"time"

	"view-counter/viewcount/application"
	"view-counter/viewcount/domain"
)

type KeyFunc func(r *http.Request) string

// ThrottleOptions configura o middleware de orçamento de requests por cliente.
type ThrottleOptions struct {
	Store domain.LimiterStore
	// KeyFn tem como padrão a identidade com hash do Resolver.
	KeyFn               KeyFunc
	Resolver            IdentityResolver
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// IdentityKeyFunc usa a identidade com hash como chave do throttle; endereços
// crus nunca viram chave de limiter.
func IdentityKeyFunc(ir IdentityResolver) KeyFunc {
	return func(r *http.Request) string {
		if id := ir.Resolve(r); id != domain.UnknownIdentity {
			return string(id)
		}
		return "unknown"
	}
}

func Throttle(opts ThrottleOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = IdentityKeyFunc(opts.Resolver)
	}

	svc := application.ThrottleService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if opts.AddRateLimitHeaders && dec.Remaining >= 0 {
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
			}
			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
				writeJSON(w, opts.RejectStatus, trackResponse{Error: http.StatusText(opts.RejectStatus)})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
