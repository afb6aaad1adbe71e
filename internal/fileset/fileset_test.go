package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avoronin/unijar/internal/config"
)

// writeFiles creates empty files (and parent directories) under root.
func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()

	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
	}
}

// TestMatch selects files by include patterns and removes excluded ones.
func TestMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir,
		"libfoo.so",
		"libbar.so",
		"libbar.so.debug",
		"sub/libbaz.so",
		"README.txt",
	)

	matcher := Matcher{}

	files, err := matcher.Match(config.NativeSet{
		Directory: dir,
		Includes:  []string{"**/*.so"},
		Excludes:  []string{"libbar.*"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "libfoo.so"),
		filepath.Join(dir, "sub", "libbaz.so"),
	}, files)
}

// TestMatch_Deterministic ensures two runs over identical inputs produce
// the identical ordered list.
func TestMatch_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, "a.so", "b.so", "c.so", "nested/d.so")

	matcher := Matcher{}
	set := config.NativeSet{
		Directory: dir,
		Includes:  []string{"*.so", "**/*.so"},
	}

	first, err := matcher.Match(set)
	require.NoError(t, err)

	second, err := matcher.Match(set)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Overlapping patterns never produce duplicates.
	require.Len(t, first, 4)
}

// TestMatch_MissingDirectory fails for a nonexistent file-set root.
func TestMatch_MissingDirectory(t *testing.T) {
	t.Parallel()

	matcher := Matcher{}

	_, err := matcher.Match(config.NativeSet{
		Directory: filepath.Join(t.TempDir(), "nope"),
		Includes:  []string{"*.so"},
	})
	require.Error(t, err)
}

// TestMatch_BadPattern fails eagerly on a malformed glob.
func TestMatch_BadPattern(t *testing.T) {
	t.Parallel()

	matcher := Matcher{}

	_, err := matcher.Match(config.NativeSet{
		Directory: t.TempDir(),
		Includes:  []string{"[unclosed"},
	})
	require.ErrorIs(t, err, errInvalidPattern)
}
