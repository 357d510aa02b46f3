package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type UserRepository struct {
	db querier
}

func NewUserRepository(db txBeginner) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context) (model.User, error) {
	return createUser(ctx, r.db)
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM m_user WHERE user_id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return exists, nil
}

func createUser(ctx context.Context, q querier) (model.User, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO m_user (created_at, updated_at)
		VALUES (NOW(), NOW())
		RETURNING user_id, created_at, updated_at
	`)
	user, err := scanUser(row)
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	return u, nil
}
