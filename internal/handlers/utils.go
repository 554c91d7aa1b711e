package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/akolanti/codex/internal/adapter"
	"github.com/akolanti/codex/internal/config"
	"github.com/akolanti/codex/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

// OwnerFrom returns the authenticated owner placed in ctx by the auth middleware.
func OwnerFrom(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(config.OWNER_ID_KEY).(string)
	return owner, ok && owner != ""
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, message, httpCode))
}

// writeServiceError picks the status from the error kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, id string, err error) {
	status, body := adapter.ToErrorResponse(id, err)
	log := logRH.WithTrace(r.Context()).With("path", r.URL.Path, "status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Warn("request rejected", "error", err)
	}
	writeJsonResponse(w, status, body)
}

func decodeBody(r *http.Request, v any) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)
	return json.NewDecoder(r.Body).Decode(v)
}
