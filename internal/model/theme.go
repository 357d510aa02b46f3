package model

import "time"

// PreparedTheme is a seeded catalog entry offering a default topic set.
type PreparedTheme struct {
	ID          int64     `json:"theme_id" yaml:"theme_id"`
	ThemeType   string    `json:"theme_type" yaml:"theme_type"`
	Title       string    `json:"title" yaml:"title"`
	Description *string   `json:"description" yaml:"description"`
	ImageType   string    `json:"image_type" yaml:"image_type"`
	Topic       Topic     `json:"topic" yaml:"-"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
	UpdatedAt   time.Time `json:"-" yaml:"-"`
}
