package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) BlobStore {
	t.Helper()

	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func setupPostgres(t *testing.T) BlobStore {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := NewPostgresStore(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.db.Exec(context.Background(), "DELETE FROM kv_store WHERE key LIKE 'test:%'")
		store.Close()
	})

	return store
}

func TestBlobStores(t *testing.T) {
	backends := map[string]func(t *testing.T) BlobStore{
		"memory":   func(*testing.T) BlobStore { return NewMemoryStore() },
		"sqlite":   setupSQLite,
		"postgres": setupPostgres,
	}

	for name, setup := range backends {
		t.Run(name, func(t *testing.T) {
			store := setup(t)
			ctx := context.Background()

			t.Run("missing key", func(t *testing.T) {
				value, ok, err := store.Get(ctx, "test:missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Nil(t, value)
			})

			t.Run("put then get", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "test:a", []byte(`[{"id":1}]`)))

				value, ok, err := store.Get(ctx, "test:a")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.JSONEq(t, `[{"id":1}]`, string(value))
			})

			t.Run("put replaces whole value", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "test:b", []byte(`[1,2,3]`)))
				require.NoError(t, store.Put(ctx, "test:b", []byte(`[]`)))

				value, ok, err := store.Get(ctx, "test:b")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `[]`, string(value))
			})

			t.Run("keys are independent", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "test:c", []byte(`"c"`)))
				require.NoError(t, store.Put(ctx, "test:d", []byte(`"d"`)))

				value, _, err := store.Get(ctx, "test:c")
				require.NoError(t, err)
				assert.Equal(t, `"c"`, string(value))
			})

			t.Run("ping", func(t *testing.T) {
				assert.NoError(t, store.Ping(ctx))
			})
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "manifestations:v1", []byte(`[{"id":42}]`)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "manifestations:v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":42}]`, string(value))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", in))
	in[0] = 'z'

	out, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'z'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
