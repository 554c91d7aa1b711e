package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/metrics"
	"github.com/akolanti/codex/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
	// preflight requests are answered by the CORS step and go no further
	done bool
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain runs every request through trace, CORS, auth, rate limiting and
// the metrics recorder before it reaches the handler.
type Chain struct {
	auth    config.AuthConfig
	cors    *cors.Cors
	limiter *IPRateLimiter
}

func NewChain(cfg *config.AppConfig) *Chain {
	return &Chain{
		auth: cfg.Auth,
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Trace-Id", "Mcp-Session-Id"},
			ExposedHeaders:   []string{"X-Trace-Id"},
			AllowCredentials: true,
		}),
		limiter: NewIPRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
	}
}

func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, true)
}

// WrapPublic skips authentication. Used for the health probe.
func (c *Chain) WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, false)
}

func (c *Chain) WrapHandler(next http.Handler) http.Handler {
	return c.Wrap(next.ServeHTTP)
}

func (c *Chain) wrap(next http.HandlerFunc, requireAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := c.processRequest(requestResponseStruct{req: r, writer: rec}, requireAuth)

		if !re.badRequest.isBadRequest && !re.done {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(re.req), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (c *Chain) processRequest(re requestResponseStruct, requireAuth bool) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")

	steps := []func(requestResponseStruct) requestResponseStruct{injectTrace, c.applyCors}
	if requireAuth {
		steps = append(steps, c.authenticate)
	}
	steps = append(steps, c.rateLimiter)

	for _, step := range steps {
		re = step(re)
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return re
		}
		if re.done {
			return re
		}
	}
	re.logger.Debug("request accepted", "method", re.req.Method, "path", re.req.URL.Path)
	return re
}

// routeLabel keeps ids out of the metric labels.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
