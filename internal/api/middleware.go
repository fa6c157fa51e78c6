package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"lendit/internal/config"
	"lendit/internal/domain"
	"lendit/internal/metrics"
	"lendit/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// actorLimitMiddleware throttles requests per acting user on top of the
// per-key limiter in HTTPAuth. Requests without an actor header pass
// through; the handlers reject those where the actor is required.
func actorLimitMiddleware(cfg config.APIConfig, limiter domain.RateLimiter, logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(cfg.Auth.HeaderUserID)
		if header == "" {
			header = "X-User-Id"
		}
		raw := strings.TrimSpace(r.Header.Get(header))
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil {
			next.ServeHTTP(w, r)
			return
		}

		limit := cfg.RateLimit.ActorRequests
		if limit <= 0 {
			limit = models.RateLimitRequests
		}
		window := time.Duration(cfg.RateLimit.ActorWindow) * time.Second
		if window <= 0 {
			window = models.RateLimitWindow * time.Second
		}

		allowed, err := limiter.Allow(r.Context(), actorID, limit, window)
		if err != nil {
			logger.Error().Err(err).Int64("actor_id", actorID).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
