package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoornstra/missmeester/internal/db"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	d, err := db.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}
