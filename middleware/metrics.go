package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// DurationObserver records request durations. *metrics.Metrics satisfies it.
type DurationObserver interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
}

// Metrics records the duration of every routed request, labelled with the
// route template instead of the raw path.
func Metrics(obs DurationObserver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			obs.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
		})
	}
}
