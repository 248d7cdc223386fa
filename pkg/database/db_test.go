package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := OpenDSN("sqlite", "file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.False(t, SupportsRowLocks(db))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := OpenDSN("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
