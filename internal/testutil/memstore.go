// Package testutil holds in-memory stores used by service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kichiro01/ToPick-api/internal/model"
)

// DB is an in-memory stand-in for the postgres repositories. Auth
// transactions are serialized and rolled back when fn fails.
type DB struct {
	mu       sync.Mutex
	users    map[int64]model.User
	lists    map[int64]model.MyList
	themes   map[int64]model.PreparedTheme
	auths    map[int64]model.AuthCode
	nextUser int64
	nextList int64
	nextAuth int64

	// Now stamps rows; defaults to time.Now.
	Now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:  map[int64]model.User{},
		lists:  map[int64]model.MyList{},
		themes: map[int64]model.PreparedTheme{},
		auths:  map[int64]model.AuthCode{},
		Now:    time.Now,
	}
}

func (d *DB) Users() *UserStore        { return &UserStore{db: d} }
func (d *DB) Lists() *MyListStore      { return &MyListStore{db: d} }
func (d *DB) Themes() *ThemeStore      { return &ThemeStore{db: d} }
func (d *DB) Auth() *AuthStore         { return &AuthStore{db: d} }
func (d *DB) now() time.Time           { return d.Now().UTC().Truncate(time.Microsecond) }
func (d *DB) lock() func()             { d.mu.Lock(); return d.mu.Unlock }
func (d *DB) userExists(id int64) bool { _, ok := d.users[id]; return ok }

// AddUser inserts a user and returns it.
func (d *DB) AddUser() model.User {
	defer d.lock()()
	return d.addUser()
}

func (d *DB) addUser() model.User {
	d.nextUser++
	now := d.now()
	u := model.User{ID: d.nextUser, CreatedAt: now, UpdatedAt: now}
	d.users[u.ID] = u
	return u
}

// AuthCode returns the stored auth row.
func (d *DB) AuthCode(id int64) (model.AuthCode, bool) {
	defer d.lock()()
	a, ok := d.auths[id]
	return a, ok
}

// AuthCodes returns all stored auth rows ordered by id.
func (d *DB) AuthCodes() []model.AuthCode {
	defer d.lock()()
	out := make([]model.AuthCode, 0, len(d.auths))
	for _, id := range slices.Sorted(maps.Keys(d.auths)) {
		out = append(out, d.auths[id])
	}
	return out
}

// List returns the stored list.
func (d *DB) List(id int64) (model.MyList, bool) {
	defer d.lock()()
	l, ok := d.lists[id]
	return l, ok
}

type UserStore struct{ db *DB }

func (s *UserStore) Create(ctx context.Context) (model.User, error) {
	defer s.db.lock()()
	return s.db.addUser(), nil
}

func (s *UserStore) Exists(ctx context.Context, id int64) (bool, error) {
	defer s.db.lock()()
	return s.db.userExists(id), nil
}

type MyListStore struct{ db *DB }

func (s *MyListStore) ListByOwner(ctx context.Context, userID int64) ([]model.MyList, error) {
	return s.filter(func(l model.MyList) bool { return l.UserID == userID }), nil
}

func (s *MyListStore) ListPublic(ctx context.Context) ([]model.MyList, error) {
	return s.filter(func(l model.MyList) bool { return !l.IsPrivate && !l.ReportedFlag }), nil
}

func (s *MyListStore) filter(keep func(model.MyList) bool) []model.MyList {
	defer s.db.lock()()
	out := []model.MyList{}
	for _, id := range slices.Sorted(maps.Keys(s.db.lists)) {
		if l := s.db.lists[id]; keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *MyListStore) Get(ctx context.Context, id int64) (model.MyList, error) {
	defer s.db.lock()()
	l, ok := s.db.lists[id]
	if !ok {
		return model.MyList{}, fmt.Errorf("get mylist %d: %w", id, model.ErrNotFound)
	}
	return l, nil
}

func (s *MyListStore) Create(ctx context.Context, list model.MyList) (model.MyList, error) {
	defer s.db.lock()()
	if !s.db.userExists(list.UserID) {
		return model.MyList{}, fmt.Errorf("insert mylist: user %d: %w", list.UserID, model.ErrNotFound)
	}
	return s.insert(list), nil
}

func (s *MyListStore) CreateWithUser(ctx context.Context, list model.MyList) (model.MyList, error) {
	defer s.db.lock()()
	list.UserID = s.db.addUser().ID
	return s.insert(list), nil
}

func (s *MyListStore) Import(ctx context.Context, lists []model.MyList) (int64, []model.MyList, error) {
	defer s.db.lock()()
	userID := s.db.addUser().ID
	saved := make([]model.MyList, 0, len(lists))
	for _, l := range lists {
		l.UserID = userID
		saved = append(saved, s.insert(l))
	}
	return userID, saved, nil
}

func (s *MyListStore) insert(list model.MyList) model.MyList {
	s.db.nextList++
	now := s.db.now()
	list.ID = s.db.nextList
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.UpdatedAt = now
	if list.Topic.Items == nil {
		list.Topic = model.NewTopic()
	}
	s.db.lists[list.ID] = list
	return list
}

func (s *MyListStore) Update(ctx context.Context, id int64, patch model.MyListPatch) (model.MyList, error) {
	defer s.db.lock()()
	l, ok := s.db.lists[id]
	if !ok {
		return model.MyList{}, fmt.Errorf("update mylist %d: %w", id, model.ErrNotFound)
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.ThemeType != nil {
		l.ThemeType = *patch.ThemeType
	}
	if patch.Topic != nil {
		l.Topic = *patch.Topic
	}
	if patch.IsPrivate != nil {
		l.IsPrivate = *patch.IsPrivate
	}
	if patch.ReportedFlag != nil {
		l.ReportedFlag = *patch.ReportedFlag
	}
	l.UpdatedAt = s.db.now()
	s.db.lists[id] = l
	return l, nil
}

func (s *MyListStore) Delete(ctx context.Context, id int64) error {
	defer s.db.lock()()
	if _, ok := s.db.lists[id]; !ok {
		return fmt.Errorf("delete mylist %d: %w", id, model.ErrNotFound)
	}
	delete(s.db.lists, id)
	return nil
}

type ThemeStore struct{ db *DB }

func (s *ThemeStore) List(ctx context.Context) ([]model.PreparedTheme, error) {
	defer s.db.lock()()
	out := []model.PreparedTheme{}
	for _, id := range slices.Sorted(maps.Keys(s.db.themes)) {
		out = append(out, s.db.themes[id])
	}
	return out, nil
}

func (s *ThemeStore) LastUpdated(ctx context.Context) (*time.Time, error) {
	defer s.db.lock()()
	var last *time.Time
	for _, t := range s.db.themes {
		if last == nil || t.UpdatedAt.After(*last) {
			at := t.UpdatedAt
			last = &at
		}
	}
	return last, nil
}

func (s *ThemeStore) Upsert(ctx context.Context, theme model.PreparedTheme) error {
	defer s.db.lock()()
	now := s.db.now()
	if prev, ok := s.db.themes[theme.ID]; ok {
		theme.CreatedAt = prev.CreatedAt
	} else {
		theme.CreatedAt = now
	}
	if theme.UpdatedAt.IsZero() {
		theme.UpdatedAt = now
	}
	s.db.themes[theme.ID] = theme
	return nil
}

type AuthStore struct{ db *DB }

func (s *AuthStore) WithTx(ctx context.Context, fn func(tx model.AuthTx) error) error {
	defer s.db.lock()()
	snapshot := maps.Clone(s.db.auths)
	next := s.db.nextAuth
	if err := fn(&authTx{db: s.db}); err != nil {
		s.db.auths = snapshot
		s.db.nextAuth = next
		return err
	}
	return nil
}

// authTx runs with DB.mu held by WithTx.
type authTx struct{ db *DB }

func (t *authTx) LockUser(ctx context.Context, userID int64) error {
	if !t.db.userExists(userID) {
		return fmt.Errorf("lock user %d: %w", userID, model.ErrNotFound)
	}
	return nil
}

func (t *authTx) HasPending(ctx context.Context, userID int64) (bool, error) {
	for _, a := range t.db.auths {
		if a.UserID == userID && a.Pending() {
			return true, nil
		}
	}
	return false, nil
}

func (t *authTx) Insert(ctx context.Context, code model.AuthCode) (model.AuthCode, error) {
	t.db.nextAuth++
	code.ID = t.db.nextAuth
	t.db.auths[code.ID] = code
	return code, nil
}

func (t *authTx) GetForUpdate(ctx context.Context, id int64) (model.AuthCode, error) {
	a, ok := t.db.auths[id]
	if !ok {
		return model.AuthCode{}, fmt.Errorf("get auth %d: %w", id, model.ErrNotFound)
	}
	return a, nil
}

func (t *authTx) MarkAuthenticated(ctx context.Context, id int64, at time.Time) error {
	a, ok := t.db.auths[id]
	if !ok || a.IsAuthenticated {
		return fmt.Errorf("mark auth %d authenticated: %w", id, model.ErrNotFound)
	}
	a.IsAuthenticated = true
	a.UpdatedAt = at
	t.db.auths[id] = a
	return nil
}
