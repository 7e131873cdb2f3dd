package chat

import "errors"

// Domain-level failure taxonomy. Use cases wrap infrastructure errors with
// these sentinels; controllers map them to transport codes.
var (
	// ErrNotFound covers both a missing conversation and one owned by
	// someone else, so reads never reveal foreign conversation ids.
	ErrNotFound = errors.New("chat: conversation not found")

	// ErrForbidden marks an ownership mismatch on a write path.
	ErrForbidden = errors.New("chat: not the conversation owner")

	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("chat: invalid input")

	// ErrBudgetExceeded marks a user over their monthly token cap.
	ErrBudgetExceeded = errors.New("chat: monthly token budget exceeded")
)

// User is the slice of the account entity the chat context needs: the
// remaining token allowance, a non-increasing counter floored at zero.
type User struct {
	ID              string `db:"id"`
	TokensRemaining int64  `db:"tokens_remaining"`
}
