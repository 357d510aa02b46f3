package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type ThemeRepository struct {
	db querier
}

func NewThemeRepository(db txBeginner) *ThemeRepository {
	return &ThemeRepository{db: db}
}

func (r *ThemeRepository) List(ctx context.Context) ([]model.PreparedTheme, error) {
	rows, err := r.db.Query(ctx, `
		SELECT theme_id, theme_type, title, description, image_type, topic, created_at, updated_at
		FROM prepared_theme
		ORDER BY theme_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query prepared themes: %w", err)
	}
	defer rows.Close()

	themes := make([]model.PreparedTheme, 0)
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prepared theme: %w", err)
		}
		themes = append(themes, theme)
	}
	return themes, rows.Err()
}

// LastUpdated returns MAX(updated_at), or nil when no theme exists.
func (r *ThemeRepository) LastUpdated(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	if err := r.db.QueryRow(ctx, `SELECT MAX(updated_at) FROM prepared_theme`).Scan(&last); err != nil {
		return nil, fmt.Errorf("query last theme update: %w", err)
	}
	return last, nil
}

// Upsert inserts the theme or updates it in place; updated_at only moves
// when a column actually changed.
func (r *ThemeRepository) Upsert(ctx context.Context, theme model.PreparedTheme) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO prepared_theme (theme_id, theme_type, title, description, image_type, topic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (theme_id) DO UPDATE
		SET theme_type = EXCLUDED.theme_type,
		    title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    image_type = EXCLUDED.image_type,
		    topic = EXCLUDED.topic,
		    updated_at = NOW()
		WHERE (prepared_theme.theme_type, prepared_theme.title, prepared_theme.description, prepared_theme.image_type, prepared_theme.topic)
		      IS DISTINCT FROM (EXCLUDED.theme_type, EXCLUDED.title, EXCLUDED.description, EXCLUDED.image_type, EXCLUDED.topic)
	`, theme.ID, theme.ThemeType, theme.Title, theme.Description, theme.ImageType, theme.Topic)
	if err != nil {
		return fmt.Errorf("upsert prepared theme %d: %w", theme.ID, err)
	}
	return nil
}

func scanTheme(row pgx.Row) (model.PreparedTheme, error) {
	var t model.PreparedTheme
	if err := row.Scan(
		&t.ID,
		&t.ThemeType,
		&t.Title,
		&t.Description,
		&t.ImageType,
		&t.Topic,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return model.PreparedTheme{}, err
	}
	return t, nil
}
