package model

import "time"

// DefaultThemeType is assigned to lists imported from client-side storage.
const DefaultThemeType = "001"

// MyList is a titled, themed collection of topic strings owned by one user.
type MyList struct {
	ID           int64     `json:"my_list_id"`
	UserID       int64     `json:"-"`
	Title        string    `json:"title"`
	ThemeType    string    `json:"theme_type"`
	Topic        Topic     `json:"topic"`
	IsPrivate    bool      `json:"is_private"`
	ReportedFlag bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// MyListPatch carries the subset of fields an update touches; nil fields are kept.
type MyListPatch struct {
	Title        *string
	ThemeType    *string
	Topic        *Topic
	IsPrivate    *bool
	ReportedFlag *bool
}

func (p MyListPatch) Empty() bool {
	return p.Title == nil && p.ThemeType == nil && p.Topic == nil && p.IsPrivate == nil && p.ReportedFlag == nil
}
