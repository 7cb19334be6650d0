package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "sankalp/pkg/domain"
	request "sankalp/pkg/platform/middleware/request"
	"sankalp/pkg/requestcontext"
)

// JWTValidator validates bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker reports whether a token was revoked by logout.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTClaims are the claims the middleware needs from a validated token.
type JWTClaims struct {
	ActorID   id.ActorID
	JTI       string
	ExpiresAt time.Time
}

// rejection is a 401/500 body in the shape httputil.WriteError produces.
type rejection struct {
	status int
	code   string
	desc   string
}

var (
	errMissingToken = rejection{http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header"}
	errBadToken     = rejection{http.StatusUnauthorized, "unauthorized", "Invalid or expired token"}
	errRevoked      = rejection{http.StatusUnauthorized, "unauthorized", "Token has been revoked"}
	errRevocation   = rejection{http.StatusInternalServerError, "internal_error", "Failed to validate token"}
)

func (e rejection) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, e.code, e.desc))
}

// RequireAuth rejects requests without a valid, unrevoked bearer token and puts
// the actor id and token id into the context.
func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := authenticate(w, r, validator, revocationChecker, logger)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth authenticates when an Authorization header is present and lets
// anonymous requests through untouched. Used by the email-link endpoints.
func OptionalAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx, ok := authenticate(w, r, validator, revocationChecker, logger)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) (context.Context, bool) {
	ctx := r.Context()
	claims, rej, err := resolve(ctx, r.Header.Get("Authorization"), validator, revocationChecker)
	if rej != nil {
		level := slog.LevelWarn
		if rej.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "request rejected by auth",
			"reason", rej.desc,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		rej.write(w)
		return nil, false
	}

	ctx = requestcontext.WithActorID(ctx, claims.ActorID)
	ctx = requestcontext.WithToken(ctx, claims.JTI, claims.ExpiresAt)
	return ctx, true
}

// resolve validates the bearer token and consults the revocation list. A
// token without a jti cannot be checked for revocation and is refused.
func resolve(ctx context.Context, header string, validator JWTValidator, revocationChecker TokenRevocationChecker) (*JWTClaims, *rejection, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, &errMissingToken, nil
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, &errBadToken, err
	}
	if revocationChecker == nil {
		return claims, nil, nil
	}
	if claims.JTI == "" {
		return nil, &errBadToken, nil
	}
	revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, &errRevocation, err
	}
	if revoked {
		return nil, &errRevoked, nil
	}
	return claims, nil, nil
}
