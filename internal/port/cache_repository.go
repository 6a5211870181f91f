package port

import "context"

type IdempotencyGuard interface {
	// SetIdempotency records a request key, returns false if it was already seen
	SetIdempotency(ctx context.Context, key string) (bool, error)
	// ReleaseIdempotency forgets a request key so the request can be sent again
	ReleaseIdempotency(ctx context.Context, key string) error
}
