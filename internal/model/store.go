package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// MyListStore defines persistence operations for lists.
type MyListStore interface {
	ListByOwner(ctx context.Context, userID int64) ([]MyList, error)
	ListPublic(ctx context.Context) ([]MyList, error)
	Get(ctx context.Context, id int64) (MyList, error)
	Create(ctx context.Context, list MyList) (MyList, error)
	// CreateWithUser creates a new user and stores list under it atomically.
	CreateWithUser(ctx context.Context, list MyList) (MyList, error)
	// Import creates a new user and stores every list under it atomically.
	Import(ctx context.Context, lists []MyList) (int64, []MyList, error)
	Update(ctx context.Context, id int64, patch MyListPatch) (MyList, error)
	Delete(ctx context.Context, id int64) error
}

// ThemeStore defines read access to prepared themes plus seeding.
type ThemeStore interface {
	List(ctx context.Context) ([]PreparedTheme, error)
	LastUpdated(ctx context.Context) (*time.Time, error)
	Upsert(ctx context.Context, theme PreparedTheme) error
}

// AuthStore runs auth-code state changes inside a single transaction.
type AuthStore interface {
	WithTx(ctx context.Context, fn func(tx AuthTx) error) error
}

// AuthTx is the transactional view used by the auth workflow.
type AuthTx interface {
	// LockUser takes a row lock on the user; ErrNotFound when absent.
	LockUser(ctx context.Context, userID int64) error
	HasPending(ctx context.Context, userID int64) (bool, error)
	Insert(ctx context.Context, code AuthCode) (AuthCode, error)
	// GetForUpdate loads and locks the row; ErrNotFound when absent.
	GetForUpdate(ctx context.Context, id int64) (AuthCode, error)
	MarkAuthenticated(ctx context.Context, id int64, at time.Time) error
}
