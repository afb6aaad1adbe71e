package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// templateEntry is one entry written into a generated template archive.
type templateEntry struct {
	name    string
	content string
}

// writeTestTemplate produces a template archive on disk with the entries
// in the given order.
func writeTestTemplate(t *testing.T, path string, entries []templateEntry) {
	t.Helper()

	out, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(out)

	for _, entry := range entries {
		writer, err := zw.Create(entry.name)
		require.NoError(t, err)

		_, err = writer.Write([]byte(entry.content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

// bootManifest is the manifest carried by generated test templates.
const bootManifest = "Manifest-Version: 1.0\r\nMain-Class: com.unijar.boot.Loader\r\n\r\n"

// TestTemplateName checks the fixed prefix + version + suffix naming.
func TestTemplateName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unijar-boot-0.9.0.jar", TemplateName("0.9.0"))
}

// TestExtractManifest reads the manifest out of a template archive.
func TestExtractManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "unijar-boot-test.jar")
	writeTestTemplate(t, path, []templateEntry{
		{name: "boot/Loader.class", content: "loader"},
		{name: ManifestPath, content: bootManifest},
	})

	manifest, err := ExtractManifest(path)
	require.NoError(t, err)

	mainClass, ok := manifest.Get("Main-Class")
	require.True(t, ok)
	require.Equal(t, "com.unijar.boot.Loader", mainClass)
}

// TestExtractManifest_Missing fails for a template without a manifest.
func TestExtractManifest_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "unijar-boot-test.jar")
	writeTestTemplate(t, path, []templateEntry{
		{name: "boot/Loader.class", content: "loader"},
	})

	_, err := ExtractManifest(path)
	require.ErrorIs(t, err, ErrTemplateManifestMissing)
}

// TestMergeTemplate streams template entries into the writer, skipping the
// manifest and directory placeholders and renaming colliding names.
func TestMergeTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "unijar-boot-test.jar")
	writeTestTemplate(t, path, []templateEntry{
		{name: ManifestPath, content: bootManifest},
		{name: "boot/", content: ""},
		{name: "boot/Loader.class", content: "loader"},
		{name: "doc/NOTICE.txt", content: "template notice"},
	})

	var buf bytes.Buffer

	w := NewWriter(&buf)

	// An earlier dependency already claimed a template name.
	_, err := w.Write("doc/NOTICE.txt", bytes.NewReader([]byte("dependency notice")))
	require.NoError(t, err)

	require.NoError(t, MergeTemplate(path, w))
	require.NoError(t, w.Close())

	names, contents := readArchive(t, &buf)
	require.Equal(t, []string{"doc/NOTICE.txt", "boot/Loader.class", "doc/NOTICE-DUPLICATE-1.txt"}, names)
	require.Equal(t, "dependency notice", contents["doc/NOTICE.txt"])
	require.Equal(t, "template notice", contents["doc/NOTICE-DUPLICATE-1.txt"])
}
