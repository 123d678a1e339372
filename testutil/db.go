// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/meinhoongagan/trucktrack/db"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// NewStore returns a GormStore over NewDB.
func NewStore(t testing.TB) *storage.GormStore {
	t.Helper()
	return storage.NewGormStore(NewDB(t))
}
