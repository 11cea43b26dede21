package auth

import "context"

type contextKey struct{}

// AuthContext is the authenticated caller attached to a request.
type AuthContext struct {
	UserID    int64
	SessionID int64
	AccessKey string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func AccessKey(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.AccessKey
}

// SessionCookieName holds the session token on the client.
const SessionCookieName = "grocery_session"
