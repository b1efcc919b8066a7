// Package shield provides the HTTP middleware stack of the extraction
// service: security headers for a JSON API, per-request trace ids with a
// request-scoped logger, and an upload body cap.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultAPIStack(logger, 50<<20) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultAPIStack returns the middleware stack for the extraction API,
// ordered: SecurityHeaders → MaxUploadBody → TraceID.
// maxUpload is the largest accepted request body.
func DefaultAPIStack(logger *slog.Logger, maxUpload int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(APIHeaders()),
		MaxUploadBody(maxUpload),
		TraceID(logger),
	}
}
