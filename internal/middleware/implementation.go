package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/codex/internal/adapter/utils"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/internal/handlers"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set("X-Trace-Id", trace)
	re.writer.Header().Set("X-Trace-Id", trace)
	re.req = req.WithContext(ctx)
	return re
}

func (c *Chain) applyCors(re requestResponseStruct) requestResponseStruct {
	if re.req.Method == http.MethodOptions && re.req.Header.Get("Access-Control-Request-Method") != "" {
		c.cors.HandlerFunc(re.writer, re.req)
		re.done = true
		return re
	}
	c.cors.HandlerFunc(re.writer, re.req)
	return re
}

func (c *Chain) authenticate(re requestResponseStruct) requestResponseStruct {
	owner, ok := c.ownerFromHeader(re)
	if !ok {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: "Unauthorized",
		}
		return re
	}
	re.logger = re.logger.With("owner", owner)
	re.req = re.req.WithContext(context.WithValue(re.req.Context(), config.OWNER_ID_KEY, owner))
	return re
}

func (c *Chain) ownerFromHeader(re requestResponseStruct) (string, bool) {
	if c.auth.NoAuthBypass {
		re.logger.Warn("auth bypass enabled", "owner", config.NoAuthBypassOwner)
		return config.NoAuthBypassOwner, true
	}
	authHeader := re.req.Header.Get("Authorization")
	if authHeader == "" {
		re.logger.Warn("Empty authorization header")
		return "", false
	}
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		re.logger.Warn("No Bearer header")
		return "", false
	}
	owner, err := ParseOwner(token, []byte(c.auth.JWTSecret))
	if err != nil {
		re.logger.Warn("Invalid authorization header", "error", err)
		return "", false
	}
	return owner, true
}

func (c *Chain) rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !c.limiter.Allow(ip) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
		return re
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, "", re.badRequest.errorMessage)
}
