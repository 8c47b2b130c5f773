package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// HeaderUserID carries the requester id set by the upstream identity proxy.
const HeaderUserID = "X-User-ID"

type requesterContextKey struct{}

type verifiedContextKey struct{}

// requesterIDPattern admits identity-provider uids: 1-128 characters of
// letters, digits, and "-_.:@".
var requesterIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,128}$`)

// WithRequester stores the requester id in ctx.
func WithRequester(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, requesterContextKey{}, uid)
}

// RequesterFromContext returns the requester id, or "" when absent.
func RequesterFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(requesterContextKey{}).(string)
	return uid
}

// WithVerifiedRequester stores a requester id that was proven by a bearer
// token rather than asserted by a header.
func WithVerifiedRequester(ctx context.Context, uid string) context.Context {
	return context.WithValue(WithRequester(ctx, uid), verifiedContextKey{}, true)
}

// VerifiedRequesterFromContext returns the requester id only when it was
// set by WithVerifiedRequester.
func VerifiedRequesterFromContext(ctx context.Context) string {
	if ok, _ := ctx.Value(verifiedContextKey{}).(bool); !ok {
		return ""
	}
	return RequesterFromContext(ctx)
}

// Requester copies a well-formed X-User-ID header into the request context.
// Requests without one pass through unchanged.
func Requester(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !requesterIDPattern.MatchString(uid) {
				logger.Warn("malformed requester id", logging.String("path", r.URL.Path))
				WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "invalid requester id")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), uid)))
		})
	}
}

// RequireRequester rejects requests that carry no requester id.
func RequireRequester(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequesterFromContext(r.Context()) == "" {
			WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "requester id is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorBody is the JSON error body of every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: message, Code: string(code)})
}
