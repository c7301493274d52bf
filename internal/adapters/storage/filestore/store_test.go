package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "records", []byte(`[{"text":"a","category":"b"}]`)))

	got, err := s.Load(ctx, "records")
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"a","category":"b"}]`, string(got))

	// no temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "records.json", entries[0].Name())
}

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "records")

	assert.True(t, domain.IsNotFound(err))
}

func TestStore_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../escape", []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "..%2Fescape.json"))
	assert.NoError(t, err)
}

func TestStore_Check(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	assert.NoError(t, s.Check(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Check(context.Background()))
}
