package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/turtacn/trademark-screening/internal/infrastructure/auth/idtoken"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// Messages returned to clients whose bearer token is rejected.
const (
	MsgNoToken      = "No token provided"
	MsgTokenExpired = "Token expired. Please get a fresh token and try again."
	MsgInvalidToken = "Invalid token"
)

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*idtoken.Claims, error)
}

// BearerAuth requires a verified ID token and sets the requester id to the
// token subject, replacing any X-User-ID value. Browsers cannot set headers
// on EventSource requests, so GET requests may pass the token as the
// access_token query parameter instead.
func BearerAuth(verifier TokenVerifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, MsgNoToken)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("bearer token rejected",
					logging.String("path", r.URL.Path),
					logging.Err(err))
				switch {
				case stderrors.Is(err, idtoken.ErrTokenExpired):
					WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, MsgTokenExpired)
				case errors.IsCode(err, errors.ErrCodeServiceUnavailable):
					WriteError(w, http.StatusServiceUnavailable, errors.ErrCodeServiceUnavailable,
						errors.DefaultMessageForCode(errors.ErrCodeServiceUnavailable))
				default:
					WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, MsgInvalidToken)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithVerifiedRequester(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
