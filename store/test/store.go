package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/store"
	"github.com/hrygo/converse/store/db"
)

// NewTestingStore creates a throwaway sqlite-backed store with the schema
// applied. The database file lives in the test's temp directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   dir,
		DSN:    filepath.Join(dir, "converse_test.db"),
	}

	driver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)

	ts := store.New(driver, testProfile)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		_ = ts.Close()
	})

	return ts
}
