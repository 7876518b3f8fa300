package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"sqlite": openTestDB(t),
		"memory": NewMemory(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set("k", []byte("one")))
			require.NoError(t, s.Set("k", []byte("two")))
			got, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))

			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k"))
			_, err = s.Get("k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLoadJSON(t *testing.T) {
	s := NewMemory()

	t.Run("absent key yields fallback", func(t *testing.T) {
		got := LoadJSON(s, KeyFavorites, []string{"x"}, nil)
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("corrupt value yields fallback", func(t *testing.T) {
		require.NoError(t, s.Set(KeyFavorites, []byte("{not json")))
		got := LoadJSON(s, KeyFavorites, []string{}, nil)
		assert.Empty(t, got)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, SaveJSON(s, KeyFavorites, []string{"a", "b"}))
		got := LoadJSON(s, KeyFavorites, []string(nil), nil)
		assert.Equal(t, []string{"a", "b"}, got)
	})
}

func TestMarkSourceScanned(t *testing.T) {
	db := openTestDB(t)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.MarkSourceScanned("/notes", first))
	require.NoError(t, db.MarkSourceScanned("/notes", first.Add(time.Hour)))

	sources, err := db.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "/notes", sources[0].Path)
	require.NotNil(t, sources[0].LastScanned)
	assert.True(t, sources[0].LastScanned.Equal(first.Add(time.Hour)))

	got, err := db.SourceByPath("/notes")
	require.NoError(t, err)
	assert.Equal(t, sources[0].ID, got.ID)

	_, err = db.SourceByPath("/other")
	assert.ErrorIs(t, err, ErrNotFound)
}
