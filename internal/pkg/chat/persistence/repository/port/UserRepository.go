package repository

import (
	"context"

	chat "go-parley/internal/pkg/chat/domain"
)

// UserRepository exposes the slice of the user entity the chat context
// needs: the remaining token allowance.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*chat.User, error)

	// DeductTokens atomically subtracts amount from the user's remaining
	// allowance, flooring at zero, and returns the new balance. The
	// decrement happens at the storage layer so concurrent exchanges for
	// the same user cannot under-count.
	DeductTokens(ctx context.Context, id string, amount int64) (int64, error)
}
