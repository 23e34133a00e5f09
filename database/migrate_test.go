package database

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMigrate struct {
	upErr          error
	downErr        error
	versionVal     uint
	versionErr     error
	dirty          bool
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups), "every up migration needs a down migration")

	body, err := fs.ReadFile(migrationsFS, "migrations/000001_usuario.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "LOWER(correo)")
}

func TestNewMigrator_UnknownScheme(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/testdb")
	require.Error(t, err)
	assertCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrator_Up(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Up())
	require.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up())

	err := (&Migrator{m: &mockMigrate{upErr: errors.New("syntax error")}}).Up()
	require.Error(t, err)
	assertCode(t, err, "MIGRATION_UP_FAILED")
}

func TestMigrator_Down(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &mockMigrate{downErr: errors.New("locked")}}).Down()
	assertCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Version(t *testing.T) {
	v, dirty, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	v, dirty, err = (&Migrator{m: &mockMigrate{versionVal: 1, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.True(t, dirty)

	_, _, err = (&Migrator{m: &mockMigrate{versionErr: errors.New("boom")}}).Version()
	assertCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Close(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Close())

	err := (&Migrator{m: &mockMigrate{closeSourceErr: errors.New("src"), closeDbErr: errors.New("db")}}).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")
	assertCode(t, err, "MIGRATION_CLOSE_FAILED")
}
