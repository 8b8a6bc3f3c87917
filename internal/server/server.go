// Package server assembles the HTTP handler that serves the Connect services,
// health checks, and Prometheus metrics.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mmynk/warikan/internal/middleware"
	"github.com/mmynk/warikan/internal/service"
)

// Options configures the handler.
type Options struct {
	// CORSOrigins lists allowed browser origins. "*" allows any.
	CORSOrigins []string
}

// New builds the root handler: Connect services under their service prefixes,
// /health, and /metrics, wrapped in CORS and request logging.
func New(groups *service.GroupService, payments *service.PaymentService, opts Options) http.Handler {
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor())

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	groupPath, groupHandler := service.NewGroupServiceHandler(groups, interceptors)
	r.PathPrefix(groupPath).Handler(groupHandler)

	paymentPath, paymentHandler := service.NewPaymentServiceHandler(payments, interceptors)
	r.PathPrefix(paymentPath).Handler(paymentHandler)

	return loggingMiddleware(corsHandler(opts.CORSOrigins).Handler(r))
}

// corsHandler allows browser clients to speak the Connect protocol.
func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
	})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
