package adapter

import (
	"context"
	"errors"

	chat "go-parley/internal/pkg/chat/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*chat.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tokens_remaining FROM chat.app_user WHERE id = $1::uuid
	`, id).Scan(&u.ID, &u.TokensRemaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeductTokens runs the decrement inside the database so concurrent
// exchanges for the same user serialize on the row instead of racing a
// read-then-write in the application.
func (r *PgUserRepository) DeductTokens(ctx context.Context, id string, amount int64) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgUserRepository: nil pool")
	}
	var remaining int64
	err := r.pool.QueryRow(ctx, `
		UPDATE chat.app_user
		SET tokens_remaining = GREATEST(0, tokens_remaining - $2)
		WHERE id = $1::uuid
		RETURNING tokens_remaining
	`, id, amount).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, chat.ErrNotFound
	}
	return remaining, err
}
