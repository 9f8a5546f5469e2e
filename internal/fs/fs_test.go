package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaultyFS_WriteLimit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("edges", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(dir, "edges.seg"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("abcd"))
	require.NoError(t, err)
	_, err = f.Write([]byte("e"))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_Passthrough(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("manifest", Fault{FailAfterBytes: -1, FailOnRename: true})

	name := filepath.Join(dir, "nodes.seg")
	f, err := ffs.OpenFile(name, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := ffs.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	err = ffs.Rename(name, filepath.Join(dir, "manifest.json"))
	assert.ErrorIs(t, err, ErrInjected)
}
