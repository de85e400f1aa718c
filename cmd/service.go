package cmd

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	// writeMargin covers the post-processors that run after the outbound calls.
	writeMargin = 5 * time.Second
)

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve synchronisation triggers over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Global.Mode = config.ModeService
			logger.Info("spawning...")

			var gatherer prometheus.Gatherer
			var sink metrics.Sink = metrics.NewNoopSink()
			if config.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				sink = metrics.NewPrometheusSink(reg, logger)
				gatherer = reg
			}

			rt, err := setup(cmd.Context(), sink)
			if err != nil {
				return errors.Wrap(err, "failed to setup service")
			}

			s := &http.Server{
				Handler:      newRouter(rt, gatherer, logger.With("component", "router")),
				Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
				WriteTimeout: writeTimeout(config.Service.Timeout, config.Sync.Timeout),
				ReadTimeout:  config.Service.Timeout,
				IdleTimeout:  config.Service.Timeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving...", "address", s.Addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
				if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return s.Shutdown(shutdownCtx)
			}
		},
	}

	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)

	return cmd
}

// writeTimeout is the service timeout, raised to fit a trigger that spends the full sync timeout on both the
// discovery and the sync call.
func writeTimeout(service, sync time.Duration) time.Duration {
	return max(service, 2*sync+writeMargin)
}

// newRouter serves triggers on the configured path, a health check and, when gatherer is set, the metrics.
func newRouter(trigger http.Handler, gatherer prometheus.Gatherer, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle(config.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle(config.Service.Path, trigger)

	return r
}

// loggingMiddleware logs every request without its body.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
