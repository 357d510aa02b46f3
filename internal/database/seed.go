package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type themeSeedFile struct {
	Themes []themeSeed `yaml:"themes"`
}

type themeSeed struct {
	ID          int64    `yaml:"theme_id"`
	ThemeType   string   `yaml:"theme_type"`
	Title       string   `yaml:"title"`
	Description *string  `yaml:"description"`
	ImageType   string   `yaml:"image_type"`
	Topics      []string `yaml:"topics"`
}

// ParseThemeSeed decodes and checks a YAML prepared-theme catalog.
func ParseThemeSeed(r io.Reader) ([]model.PreparedTheme, error) {
	var file themeSeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode theme seed: %w", err)
	}

	themes := make([]model.PreparedTheme, 0, len(file.Themes))
	seen := make(map[int64]struct{}, len(file.Themes))
	for i, s := range file.Themes {
		if s.ID <= 0 {
			return nil, fmt.Errorf("theme #%d: theme_id must be positive", i+1)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("theme #%d: duplicate theme_id %d", i+1, s.ID)
		}
		seen[s.ID] = struct{}{}

		if utf8.RuneCountInString(s.ThemeType) != 3 || utf8.RuneCountInString(s.ImageType) != 3 {
			return nil, fmt.Errorf("theme %d: theme_type and image_type must be 3 characters", s.ID)
		}
		if n := utf8.RuneCountInString(s.Title); n < 1 || n > 30 {
			return nil, fmt.Errorf("theme %d: title must be 1-30 characters", s.ID)
		}
		if s.Description != nil && utf8.RuneCountInString(*s.Description) > 50 {
			return nil, fmt.Errorf("theme %d: description must be at most 50 characters", s.ID)
		}

		themes = append(themes, model.PreparedTheme{
			ID:          s.ID,
			ThemeType:   s.ThemeType,
			Title:       s.Title,
			Description: s.Description,
			ImageType:   s.ImageType,
			Topic:       model.NewTopic(s.Topics...),
		})
	}
	return themes, nil
}

// SeedPreparedThemes upserts every theme in the YAML catalog.
func SeedPreparedThemes(ctx context.Context, store model.ThemeStore, r io.Reader, logger *slog.Logger) (int, error) {
	themes, err := ParseThemeSeed(r)
	if err != nil {
		return 0, err
	}
	for _, theme := range themes {
		if err := store.Upsert(ctx, theme); err != nil {
			return 0, fmt.Errorf("upsert theme %d: %w", theme.ID, err)
		}
		logger.Debug("prepared theme seeded", slog.Int64("theme_id", theme.ID))
	}
	return len(themes), nil
}
