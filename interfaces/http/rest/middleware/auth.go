package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/pkg/auth"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// RequireWriteAuth demands a valid bearer token on every method that can
// change state. Reads stay public.
func RequireWriteAuth(v *auth.JWTValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.ValidateToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("Rejected write", zap.String("path", r.URL.Path), zap.Error(err))
				msg := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					msg = "Missing authorization header"
				case errors.Is(err, auth.ErrExpiredToken):
					msg = "Token has expired"
				}
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(msg))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
