package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kichiro01/ToPick-api/internal/model"
)

type listRequest struct {
	UserID    int64  `json:"user_id" validate:"required"`
	Title     string `json:"title" validate:"min=1,max=30"`
	ThemeType string `json:"theme_type" validate:"len=3"`
	Code      string `json:"auth_code,omitempty" validate:"omitempty,len=6,alphanum"`
}

func TestStruct_TitleLengths(t *testing.T) {
	cases := []struct {
		title string
		ok    bool
	}{
		{"", false},
		{"a", true},
		{strings.Repeat("あ", 30), true},
		{strings.Repeat("a", 31), false},
		{strings.Repeat("話", 31), false},
	}
	for _, tc := range cases {
		err := Struct(listRequest{UserID: 1, Title: tc.title, ThemeType: "001"})
		if tc.ok {
			assert.NoError(t, err, "title %q", tc.title)
			continue
		}
		require.Error(t, err, "title %q", tc.title)
		assert.Equal(t, model.KindValidation, model.KindOf(err))
		assert.Contains(t, err.Error(), "title")
	}
}

func TestStruct_Messages(t *testing.T) {
	err := Struct(listRequest{Title: "x", ThemeType: "001"})
	assert.EqualError(t, err, "user_id is required")

	err = Struct(listRequest{UserID: 1, Title: "x", ThemeType: "01"})
	assert.EqualError(t, err, "theme_type must be exactly 3 characters")

	err = Struct(listRequest{UserID: 1, Title: "x", ThemeType: "001", Code: "abc"})
	assert.EqualError(t, err, "auth_code must be exactly 6 characters")

	err = Struct(listRequest{UserID: 1, Title: "x", ThemeType: "001", Code: "ab-de1"})
	assert.EqualError(t, err, "auth_code must contain only letters and digits")
}

func TestParseTopic(t *testing.T) {
	valid := map[string][]string{
		`{"topic": []}`:          {},
		`{"topic": ["a", "b"]}`:  {"a", "b"},
		` {"topic":["好きな食べ物"]} `: {"好きな食べ物"},
	}
	for raw, want := range valid {
		topic, err := ParseTopic(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, topic.Items, raw)
	}

	invalid := []string{
		``,
		`null`,
		`[]`,
		`"topic"`,
		`{}`,
		`{"topics": []}`,
		`{"topic": [], "extra": 1}`,
		`{"topic": null}`,
		`{"topic": "a"}`,
		`{"topic": {"a": 1}}`,
		`{"topic": [1, 2]}`,
	}
	for _, raw := range invalid {
		_, err := ParseTopic(json.RawMessage(raw))
		require.Error(t, err, raw)
		assert.Equal(t, model.KindValidation, model.KindOf(err), raw)
	}
}

func TestOptionalTopic(t *testing.T) {
	topic, err := OptionalTopic(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, topic.Items)

	_, err = OptionalTopic(json.RawMessage(`null`))
	assert.Error(t, err)
}
