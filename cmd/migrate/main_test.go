package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kichiro01/ToPick-api/migrations"
)

func TestHashAdminTokenCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"hash-admin-token", "--cost", "4", "moderator-secret"})

	require.NoError(t, root.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("moderator-secret")))
}

func TestHashAdminTokenCmd_RequiresArg(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"hash-admin-token"})

	assert.Error(t, root.Execute())
}

func TestMigrationSource(t *testing.T) {
	src, label := migrationSource("", false)
	assert.Equal(t, "embedded", label)
	assert.Equal(t, migrations.FS, src)

	src, label = migrationSource(t.TempDir(), true)
	assert.Equal(t, "embedded", label)
	assert.Equal(t, migrations.FS, src)

	dir := t.TempDir()
	_, label = migrationSource(dir, false)
	assert.Equal(t, dir, label)
}
