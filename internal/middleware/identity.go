package middleware

import "context"

type ctxKey struct{}

var identityKey ctxKey

type identity struct {
	username string
}

func withIdentity(ctx context.Context, holder *identity) context.Context {
	return context.WithValue(ctx, identityKey, holder)
}
