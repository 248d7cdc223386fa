package migration_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/pkg/migration"
	"github.com/kwanzatukule/marketplace/pkg/testkit"
)

type step struct {
	name string
	log  *[]string
	fail bool
}

func (s step) Up(*gorm.DB) error {
	if s.fail {
		return errors.New("boom")
	}
	*s.log = append(*s.log, "up "+s.name)
	return nil
}

func (s step) Down(*gorm.DB) error {
	*s.log = append(*s.log, "down "+s.name)
	return nil
}

func TestRunAndRollbackByBatch(t *testing.T) {
	db := testkit.OpenDB(t)
	var calls []string
	entry := func(name string) migration.Entry {
		return migration.Entry{Name: name, Migration: step{name: name, log: &calls}}
	}

	// registered out of order; the runner sorts by name
	r := migration.New(db, entry("002_b"), entry("001_a"))
	require.NoError(t, r.Run())

	r = migration.New(db, entry("002_b"), entry("001_a"), entry("003_c"))
	require.NoError(t, r.Run())
	assert.Equal(t, []string{"up 001_a", "up 002_b", "up 003_c"}, calls)

	var out strings.Builder
	require.NoError(t, r.SetOutput(&out).Run())
	assert.Contains(t, out.String(), "Nothing to migrate.")

	calls = nil
	require.NoError(t, r.Rollback())
	assert.Equal(t, []string{"down 003_c"}, calls)

	pending, err := r.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "003_c", pending[0].Name)

	calls = nil
	require.NoError(t, r.Rollback())
	assert.Equal(t, []string{"down 002_b", "down 001_a"}, calls)

	out.Reset()
	require.NoError(t, r.Rollback())
	assert.Contains(t, out.String(), "Nothing to roll back.")
}

func TestRunStopsAtFailure(t *testing.T) {
	db := testkit.OpenDB(t)
	var calls []string
	r := migration.New(db,
		migration.Entry{Name: "001_ok", Migration: step{name: "001_ok", log: &calls}},
		migration.Entry{Name: "002_bad", Migration: step{name: "002_bad", log: &calls, fail: true}},
	)

	err := r.Run()
	assert.ErrorContains(t, err, "002_bad up: boom")

	var out strings.Builder
	require.NoError(t, r.SetOutput(&out).Status())
	assert.Regexp(t, `001_ok\s+Ran\s+1`, out.String())
	assert.Regexp(t, `002_bad\s+Pending`, out.String())
}

func TestRunWithoutEntries(t *testing.T) {
	assert.ErrorIs(t, migration.New(testkit.OpenDB(t)).Run(), migration.ErrNoMigrations)
}
