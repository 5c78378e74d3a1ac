package middleware

import (
	"net/http"
	"strings"

	"github.com/remakery/storefront-backend/api/responses"
	pkgAuth "github.com/remakery/storefront-backend/pkg/auth"
	"github.com/remakery/storefront-backend/pkg/config"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
)

// Auth validates the identity provider's bearer token, seeds the request
// context with the buyer id, and keeps the raw token around for upstream
// forwarding.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithBuyerID(r.Context(), claims.UserID.String())
			ctx = market.ContextWithToken(ctx, token)
			if logg != nil {
				ctx = logg.WithBuyerID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
