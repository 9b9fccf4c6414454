package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlaceholder(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscover_NonRecursiveFindsOnlyTopLevel(t *testing.T) {
	root := t.TempDir()
	writePlaceholder(t, filepath.Join(root, "a.so"))
	writePlaceholder(t, filepath.Join(root, "nested", "b.so"))
	writePlaceholder(t, filepath.Join(root, "c.txt"))

	found, err := Discover(DiscoveryConfig{SearchDirs: []string{root}})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, filepath.Join(root, "a.so"), found[0])
}

func TestDiscover_RecursiveFindsNestedFiles(t *testing.T) {
	root := t.TempDir()
	writePlaceholder(t, filepath.Join(root, "a.so"))
	writePlaceholder(t, filepath.Join(root, "nested", "b.so"))

	found, err := Discover(DiscoveryConfig{SearchDirs: []string{root}, Recursive: true})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDiscover_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writePlaceholder(t, filepath.Join(root, "a.dylib"))
	writePlaceholder(t, filepath.Join(root, "b.so"))

	found, err := Discover(DiscoveryConfig{SearchDirs: []string{root}, Extensions: []string{".dylib"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(root, "a.dylib"), found[0])
}

func TestDiscover_RespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writePlaceholder(t, filepath.Join(root, "level1", "a.so"))
	writePlaceholder(t, filepath.Join(root, "level1", "level2", "b.so"))

	found, err := Discover(DiscoveryConfig{SearchDirs: []string{root}, Recursive: true, MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
