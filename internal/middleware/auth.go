package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/auth"
	"github.com/mmynk/billsplit/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// memberKey is the context key for the authenticated member.
const memberKey contextKey = "member"

// WithMember returns a context carrying the authenticated member.
func WithMember(ctx context.Context, member models.LedgerMember) context.Context {
	return context.WithValue(ctx, memberKey, member)
}

// GetMember extracts the authenticated member from the context.
func GetMember(ctx context.Context) (models.LedgerMember, bool) {
	member, ok := ctx.Value(memberKey).(models.LedgerMember)
	return member, ok
}

// GetMemberID extracts the member ID from the context.
// Returns empty string if not found.
func GetMemberID(ctx context.Context) string {
	member, _ := GetMember(ctx)
	return member.ID
}

// OptionalAuth attaches the member named by a valid bearer token to the
// context. Requests without a token, or with an invalid one, pass through
// unauthenticated; each handler decides whether it needs a member.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, ok := bearerToken(req.Header().Get("Authorization"))
			if !ok {
				return next(ctx, req)
			}
			claims, err := jwtManager.Validate(token)
			if err != nil {
				return next(ctx, req)
			}
			return next(WithMember(ctx, claims.LedgerMember()), req)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}
