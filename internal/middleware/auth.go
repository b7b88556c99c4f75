package middleware

import (
	"context"
	"net/http"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/auth"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/utils"

	"go.uber.org/zap"
)

// IdentityResolver turns a raw access token into an identity.
type IdentityResolver interface {
	Authenticate(ctx context.Context, accessToken string) (utils.Identity, error)
}

// Authenticate resolves the caller once per request. Requests without a
// valid token pass through anonymously and protected routes reject them in
// RequireRole. Only a resolver failure ends the request here.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractAccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Authenticate(r.Context(), token)
			if apperr.Is(err, apperr.KindUnauthorized) {
				logger.FromCtx(r.Context()).Debug("ignoring invalid access token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.FromCtx(r.Context()).Error("identity resolution failed", zap.Error(err))
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithIdentity(r.Context(), id)))
		})
	}
}

// Authorize allows the identity when it holds any of roles. A nil identity
// is unauthenticated; no roles means any authenticated caller.
func Authorize(id *utils.Identity, roles ...string) error {
	if id == nil {
		return apperr.Unauthorized("not authenticated")
	}
	if len(roles) == 0 || id.HasRole(roles...) {
		return nil
	}
	return apperr.Forbidden("insufficient role")
}

// RequireRole rejects requests whose identity fails Authorize.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var idPtr *utils.Identity
			if id, ok := utils.IdentityFromContext(r.Context()); ok {
				idPtr = &id
			}

			if err := Authorize(idPtr, roles...); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError renders err as the standard JSON error body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	utils.WriteJSONError(w, r, apperr.PublicDetail(err), kind.HTTPStatus())
}
