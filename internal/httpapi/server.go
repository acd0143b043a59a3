package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"brewtracker/internal/config"
)

// NewServer wraps mux in the middleware chain: request id, logging,
// metrics, then rate limiting. Rate limiting is off when RateLimitRPS is 0.
func NewServer(cfg config.Config, mux *http.ServeMux, metrics *Metrics, logger *slog.Logger) *http.Server {
	var h http.Handler = mux
	if cfg.RateLimitRPS > 0 {
		h = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware(metrics, h)
	}
	if metrics != nil {
		h = metrics.Middleware(h)
	}
	h = requestLogger(logger, h)
	h = withRequestID(h)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
