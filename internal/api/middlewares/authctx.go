package middlewares

import "context"

type ctxKey int

const memberIDKey ctxKey = iota

func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

func MemberIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(memberIDKey).(string)
	return v, ok && v != ""
}
