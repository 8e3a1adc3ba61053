package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)")
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n))
	return n
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit makes writes visible", func(t *testing.T) {
		db := openTestDB(t)

		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO kv (k, v) VALUES ('a', '1')")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countRows(t, db))
	})

	t.Run("error rolls everything back", func(t *testing.T) {
		db := openTestDB(t)
		boom := errors.New("boom")

		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO kv (k, v) VALUES ('a', '1')"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countRows(t, db))
	})

	t.Run("nested call reuses the enclosing transaction", func(t *testing.T) {
		db := openTestDB(t)

		err := db.WithTransaction(ctx, func(outer context.Context) error {
			if _, err := db.Executor(outer).ExecContext(outer, "INSERT INTO kv (k, v) VALUES ('a', '1')"); err != nil {
				return err
			}
			return db.WithTransaction(outer, func(inner context.Context) error {
				// The inner write must see the outer one, which only works
				// when both run on the same transaction.
				var n int
				if err := db.Executor(inner).QueryRowContext(inner, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
					return err
				}
				if n != 1 {
					return errors.New("inner transaction cannot see outer write")
				}
				_, err := db.Executor(inner).ExecContext(inner, "INSERT INTO kv (k, v) VALUES ('b', '2')")
				return err
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 2, countRows(t, db))
	})

	t.Run("inner error rolls back the whole transaction", func(t *testing.T) {
		db := openTestDB(t)
		boom := errors.New("boom")

		err := db.WithTransaction(ctx, func(outer context.Context) error {
			if _, err := db.Executor(outer).ExecContext(outer, "INSERT INTO kv (k, v) VALUES ('a', '1')"); err != nil {
				return err
			}
			return db.WithTransaction(outer, func(inner context.Context) error {
				return boom
			})
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countRows(t, db))
	})

	t.Run("panic rolls back and repanics", func(t *testing.T) {
		db := openTestDB(t)

		assert.Panics(t, func() {
			_ = db.WithTransaction(ctx, func(ctx context.Context) error {
				if _, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO kv (k, v) VALUES ('a', '1')"); err != nil {
					return err
				}
				panic("boom")
			})
		})
		assert.Equal(t, 0, countRows(t, db))
	})
}

func TestExecutor_WithoutTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Outside a transaction the executor is the bare connection
	_, err := db.Executor(ctx).ExecContext(ctx, "INSERT INTO kv (k, v) VALUES ('a', '1')")
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db))
}
