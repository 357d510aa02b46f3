package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type AuthRepository struct {
	db txBeginner
}

func NewAuthRepository(db txBeginner) *AuthRepository {
	return &AuthRepository{db: db}
}

// WithTx runs fn in one transaction; any error returned by fn rolls it back.
func (r *AuthRepository) WithTx(ctx context.Context, fn func(tx model.AuthTx) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&authTx{tx: tx})
	})
}

type authTx struct {
	tx pgx.Tx
}

func (a *authTx) LockUser(ctx context.Context, userID int64) error {
	var id int64
	err := a.tx.QueryRow(ctx, `SELECT user_id FROM m_user WHERE user_id=$1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		return notFound(err, fmt.Sprintf("lock user %d", userID))
	}
	return nil
}

func (a *authTx) HasPending(ctx context.Context, userID int64) (bool, error) {
	var pending bool
	err := a.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM auth WHERE user_id=$1 AND is_authenticated=FALSE
		)
	`, userID).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("check pending auth for user %d: %w", userID, err)
	}
	return pending, nil
}

func (a *authTx) Insert(ctx context.Context, code model.AuthCode) (model.AuthCode, error) {
	row := a.tx.QueryRow(ctx, `
		INSERT INTO auth (user_id, auth_code, is_authenticated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING auth_id, user_id, auth_code, is_authenticated, created_at, updated_at
	`, code.UserID, code.Code, code.IsAuthenticated, code.CreatedAt, code.UpdatedAt)

	saved, err := scanAuthCode(row)
	if err != nil {
		return model.AuthCode{}, fmt.Errorf("insert auth code: %w", err)
	}
	return saved, nil
}

func (a *authTx) GetForUpdate(ctx context.Context, id int64) (model.AuthCode, error) {
	row := a.tx.QueryRow(ctx, `
		SELECT auth_id, user_id, auth_code, is_authenticated, created_at, updated_at
		FROM auth
		WHERE auth_id=$1
		FOR UPDATE
	`, id)

	code, err := scanAuthCode(row)
	if err != nil {
		return model.AuthCode{}, notFound(err, fmt.Sprintf("get auth %d", id))
	}
	return code, nil
}

func (a *authTx) MarkAuthenticated(ctx context.Context, id int64, at time.Time) error {
	tag, err := a.tx.Exec(ctx, `
		UPDATE auth
		SET is_authenticated=TRUE, updated_at=$2
		WHERE auth_id=$1 AND is_authenticated=FALSE
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark auth %d authenticated: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark auth %d authenticated: %w", id, model.ErrNotFound)
	}
	return nil
}

func scanAuthCode(row pgx.Row) (model.AuthCode, error) {
	var c model.AuthCode
	if err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.IsAuthenticated, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return model.AuthCode{}, err
	}
	return c, nil
}
