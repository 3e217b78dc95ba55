// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/internal/platform/ctxutil"
	"github.com/taibuivan/vaultlink/internal/platform/respond"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

// TokenAuthenticator resolves an opaque bearer token to its caller.
// identity.Service implements it.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*sec.Principal, error)
}

// Authenticate extracts and resolves the session token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the token via [TokenAuthenticator].
//  4. Inject [*sec.Principal] into the request context for downstream use.
//
// A present but unusable token is rejected with 401 and auth_required rather
// than silently downgraded to anonymous.
func Authenticate(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme+" ", constants.BearerPrefix) || token == "" {
				respond.Error(writer, request, apperr.AuthRequired("Invalid authorization format"))
				return
			}

			// ── 3. Token Resolution ───────────────────────────────────────────
			principal, err := authenticator.AuthenticateToken(request.Context(), token)
			if err != nil {
				if ae := apperr.As(err); ae != nil && ae.HTTPStatus >= http.StatusInternalServerError {
					respond.Error(writer, request, err)
					return
				}
				respond.Error(writer, request, apperr.AuthRequired("Invalid or expired session"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", principal.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.AuthRequired("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
