package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestValidateShippedMigrations(t *testing.T) {
	versions, err := ValidateDir("migrations")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.True(t, versions[0] < versions[1] && versions[1] < versions[2])
}

func TestCartMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_carts_table.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_session_id",
		"CREATE INDEX IF NOT EXISTS idx_carts_expires_at",
		"chk_carts_single_owner",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestRunUpOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dialect := Dialect(config.DBConfig{Driver: config.DBDriverSQLite})
	require.Equal(t, "sqlite3", dialect)
	require.NoError(t, Run(context.Background(), sqlDB, dialect, "migrations", "up"))

	for _, table := range []string{"products", "carts", "cart_items"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	// the single-owner check rejects a cart without owner
	err = conn.Exec(`INSERT INTO carts (id, state, expires_at) VALUES (?, 'guest', ?)`,
		uuid.NewString(), time.Now()).Error
	assert.Error(t, err)
}

func TestCreateAndValidate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Cart Notes!", now)
	require.NoError(t, err)
	assert.Equal(t, "20260402103000_add_cart_notes.sql", filepath.Base(path))

	_, err = CreateSQLMigration(dir, "add cart notes", now)
	assert.Error(t, err, "same version and name must not be overwritten")

	versions, err := ValidateDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260402103000"}, versions)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up"), 0o644))
	_, err = ValidateDir(dir)
	assert.Error(t, err)
}

func TestValidateRequiresDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_only_up.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))
	_, err := ValidateDir(dir)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "+goose Down"))
}

func TestCreateRejectsEmptyName(t *testing.T) {
	_, err := CreateSQLMigration(t.TempDir(), "!!!", time.Now())
	assert.Error(t, err)
}

func TestShouldAutoRun(t *testing.T) {
	assert.True(t, shouldAutoRun(&config.Config{DB: config.DBConfig{Driver: "sqlite"}}))
	assert.False(t, shouldAutoRun(&config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}))
	assert.True(t, shouldAutoRun(&config.Config{App: config.AppConfig{Env: "dev"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}))
}
