package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"panellicense/database"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type storeFactory func(t *testing.T) (LicenseStore, ActivityLog)

func memoryStore(t *testing.T) (LicenseStore, ActivityLog) {
	return NewMemoryLicenseStore(), NewMemoryActivityLog()
}

func sqliteStore(t *testing.T) (LicenseStore, ActivityLog) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "license.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateTables(context.Background(), db, database.DriverSQLite))

	exec := NewSQLExecutor(db)
	return NewSQLLicenseStore(exec), NewSQLActivityLog(exec)
}

// forEachStore runs fn against every LicenseStore implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, newStore storeFactory)) {
	for name, factory := range map[string]storeFactory{
		"memory": memoryStore,
		"sqlite": sqliteStore,
	} {
		t.Run(name, func(t *testing.T) {
			fn(t, factory)
		})
	}
}

func strPtr(s string) *string { return &s }

func durPtr(d time.Duration) *time.Duration { return &d }

// fixedKeys returns a key generator that yields keys in order, repeating the last one.
func fixedKeys(keys ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		k := keys[min(i, len(keys)-1)]
		i++
		return k, nil
	}
}
