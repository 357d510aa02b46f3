package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kichiro01/ToPick-api/internal/model"
)

func TestBuildMyListUpdate_SingleField(t *testing.T) {
	title := "週末の話題"

	sql, args, err := buildMyListUpdate(7, model.MyListPatch{Title: &title}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "UPDATE my_list SET title = $1, updated_at = NOW() WHERE my_list_id = $2 RETURNING "), sql)
	assert.Equal(t, []any{title, int64(7)}, args)
}

func TestBuildMyListUpdate_AllFields(t *testing.T) {
	title, theme := "t", "002"
	topic := model.NewTopic("a", "b")
	private, reported := true, false

	sql, args, err := buildMyListUpdate(3, model.MyListPatch{
		Title:        &title,
		ThemeType:    &theme,
		Topic:        &topic,
		IsPrivate:    &private,
		ReportedFlag: &reported,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "title = $1, theme_type = $2, topic = $3, is_private = $4, reported_flag = $5, updated_at = NOW()")
	assert.Contains(t, sql, "WHERE my_list_id = $6")
	assert.Contains(t, sql, "RETURNING "+strings.Join(myListColumns, ","))
	require.Len(t, args, 6)
	assert.Equal(t, topic, args[2])
}

func TestMyListPatch_Empty(t *testing.T) {
	assert.True(t, model.MyListPatch{}.Empty())
	flag := true
	assert.False(t, model.MyListPatch{IsPrivate: &flag}.Empty())
}

func TestNotFound_MapsNoRows(t *testing.T) {
	err := notFound(pgx.ErrNoRows, "get mylist 1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	other := notFound(errors.New("conn reset"), "get mylist 1")
	assert.NotErrorIs(t, other, model.ErrNotFound)
	assert.Equal(t, fmt.Sprintf("get mylist 1: %s", "conn reset"), other.Error())
}

func TestNewRepositories(t *testing.T) {
	assert.NotNil(t, NewUserRepository(nil))
	assert.NotNil(t, NewMyListRepository(nil))
	assert.NotNil(t, NewThemeRepository(nil))
	assert.NotNil(t, NewAuthRepository(nil))
}
