package metrics

import (
	"net/http"
	"strconv"

	"warehouse-be/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware counts requests by method and status and records latency.
// routeOf maps a request to a low-cardinality route label; nil leaves the
// label empty.
func Middleware(reg *Registry, routeOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := prometheus.NewTimer(nil)
			rec := &logger.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := ""
			if routeOf != nil {
				route = routeOf(r)
			}
			reg.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
			reg.HTTPDuration.WithLabelValues(r.Method, route).Observe(timer.ObserveDuration().Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *Registry) http.Handler {
	return promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{
		ErrorLog: promErrorLog{},
	})
}

// promErrorLog routes promhttp failures into zap.
type promErrorLog struct{}

func (promErrorLog) Println(v ...interface{}) {
	logger.L().Sugar().Error(v...)
}
