package kv_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youdo/internal/config"
	"youdo/internal/kv"
)

func openStores(t *testing.T) map[string]kv.Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := kv.OpenSQLite(filepath.Join(dir, config.StateDB))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]kv.Store{
		"file":   kv.OpenFile(filepath.Join(dir, config.StateFile)),
		"sqlite": sqlite,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(kv.KeyToken)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(kv.KeyToken, "abc"))
			require.NoError(t, store.Set(kv.KeyUser, `{"id":1}`))
			require.NoError(t, store.Set(kv.KeyToken, "def"))

			v, ok, err := store.Get(kv.KeyToken)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "def", v)

			require.NoError(t, store.Delete(kv.KeyToken, kv.KeyUser, "missing"))

			_, ok, err = store.Get(kv.KeyToken)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = store.Get(kv.KeyUser)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StateFile)

	require.NoError(t, kv.OpenFile(path).Set(kv.KeyTheme, "dark"))

	v, ok, err := kv.OpenFile(path).Get(kv.KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_RemovesFileWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StateFile)
	store := kv.OpenFile(path)

	require.NoError(t, store.Set(kv.KeyToken, "abc"))
	require.NoError(t, store.Delete(kv.KeyToken))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StateFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := kv.OpenFile(path).Get(kv.KeyToken)
	assert.Error(t, err)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StateDB)

	first, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(kv.KeyToken, "abc"))
	require.NoError(t, first.Close())

	second, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get(kv.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSQLiteStore_TightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.StateDB)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	store, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Set(kv.KeyToken, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	store, err := kv.Open(&config.Config{Dir: dir, Store: config.StoreSQLite})
	require.NoError(t, err)
	defer store.Close()
	_, isSQLite := store.(*kv.SQLiteStore)
	assert.True(t, isSQLite)

	store2, err := kv.Open(&config.Config{Dir: filepath.Join(dir, "nested"), Store: config.StoreFile})
	require.NoError(t, err)
	_, isFile := store2.(*kv.FileStore)
	assert.True(t, isFile)
}
