package testkit

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/pkg/database"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// OpenDB returns a private in-memory SQLite database with models migrated.
// It is closed when the test ends.
func OpenDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("%s_%s", unsafeName.ReplaceAllString(t.Name(), "_"), uuid.NewString()[:8])
	db, err := database.OpenDSN("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err, "testkit: open sqlite")

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...), "testkit: migrate")
	}

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
