package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveStreamRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("evidence report.pdf", strings.NewReader("contents"))
	require.NoError(t, err)
	require.NotContains(t, name, " ")

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "contents", string(data))

	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	require.Error(t, err)
}

func TestLocalStorageSaveStreamStripsCommas(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("a,b.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.NotContains(t, name, ",")
}

func TestLocalStorageSaveStreamRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	require.NotContains(t, name, "/")
	require.NotContains(t, name, "..")
}
