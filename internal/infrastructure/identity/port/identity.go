package port

import (
	"context"
	"errors"
)

// Identity resolves a bearer credential to an owner id. Implementations
// fail closed: anything short of a fully verified credential is
// ErrUnauthorized.
type Identity interface {
	Resolve(ctx context.Context, bearer string) (userID string, err error)
}

// ErrUnauthorized signals a missing, malformed, expired or otherwise
// unverifiable credential.
var ErrUnauthorized = errors.New("identity: not authorized")
