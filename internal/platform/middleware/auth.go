package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kindred/internal/domain"
	"kindred/internal/identity"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/httputil"
	"kindred/pkg/requestcontext"
)

// initDataHeader carries the opaque signed token on every authenticated call.
const initDataHeader = "X-Init-Data"

// invalidInitData is the contract message for a failed identity check.
const invalidInitData = "Init data inválido"

// RequireIdentity resolves the actor from initData before any guard or
// business logic runs, and rejects actors hard-blocked by moderation.
func RequireIdentity(verifier identity.Verifier, users store.Users, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := r.Header.Get(initDataHeader)
			if raw == "" {
				raw = initDataFromBody(r)
			}
			id, err := verifier.Verify(ctx, raw)
			if err != nil {
				logger.WarnContext(ctx, "identity verification failed",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteUnauthorized(w, invalidInitData)
				return
			}

			premium := id.Premium
			u, err := users.Get(ctx, id.UserID)
			switch {
			case err == nil:
				if u.Blocked {
					reason := u.BlockReason
					if reason == "" {
						reason = "account blocked"
					}
					httputil.WriteError(w, dErrors.New(dErrors.CodeBlocked, reason))
					return
				}
				premium = premium || u.HasPremium(requestcontext.Now(ctx))
			case errors.Is(err, store.ErrNotFound):
				// First contact; the profile submission endpoint creates the user.
			default:
				logger.ErrorContext(ctx, "user lookup failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "user lookup failed"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, id.UserID)
			ctx = requestcontext.WithPremium(ctx, premium)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// initDataFromBody peeks the JSON body for an initData field and restores the
// body so the handler's decoder sees it untouched.
func initDataFromBody(r *http.Request) string {
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var payload struct {
		InitData string `json:"initData"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.InitData
}

// ModClaims is what a moderator session token carries.
type ModClaims struct {
	ModeratorID string
	Role        domain.Role
}

// RequireModerator gates the /api/mod surface behind an HMAC-signed JWT with
// an admin role claim.
func RequireModerator(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				httputil.WriteUnauthorized(w, "missing moderator token")
				return
			}
			claims, err := ParseModToken(tokenString, signingKey)
			if err != nil || claims.Role != domain.RoleAdmin {
				logger.WarnContext(ctx, "moderator token rejected",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteUnauthorized(w, "invalid moderator token")
				return
			}
			ctx = requestcontext.WithUserID(ctx, claims.ModeratorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewModToken issues a moderator session token. Exposed for ops tooling and
// tests.
func NewModToken(moderatorID, signingKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  moderatorID,
		"role": string(domain.RoleAdmin),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(signingKey))
}

// ParseModToken validates a moderator token and extracts its claims.
func ParseModToken(tokenString, signingKey string) (ModClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(signingKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ModClaims{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ModClaims{}, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	return ModClaims{ModeratorID: sub, Role: domain.Role(role)}, nil
}
