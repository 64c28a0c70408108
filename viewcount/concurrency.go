package viewcount

import (
	"net/http"
	"time"

	"view-counter/viewcount/application"
	"view-counter/viewcount/infra"

	"go.uber.org/zap"
)

type ConcurrencyOptions struct {
	// Max <= 0 desliga o limite.
	Max            int
	AcquireTimeout time.Duration
	Logger         *zap.Logger
}

// ConcurrencyMiddleware limita os requests em andamento e responde 503 com corpo
// JSON quando nenhuma vaga libera a tempo.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	slots := infra.NewSlots(opts.Max)
	svc := application.ConcurrencyService{Pool: slots, AcquireTimeout: opts.AcquireTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Admit(r.Context())
			if err != nil {
				LoggerFrom(r.Context(), opts.Logger).Warn("request rejected, server busy",
					zap.Int("in_use", slots.InUse()),
					zap.Int("max", slots.Size()),
				)
				status, msg := errorStatus(err)
				w.Header().Set("Retry-After", "1")
				writeJSON(w, status, trackResponse{Error: msg})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
