package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// readArchive parses the produced bytes and returns entry names in archive
// order along with each entry's content.
func readArchive(t *testing.T, buf *bytes.Buffer) ([]string, map[string]string) {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(reader.File))
	contents := make(map[string]string, len(reader.File))

	for _, entry := range reader.File {
		names = append(names, entry.Name)

		rc, err := entry.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		contents[entry.Name] = string(data)
	}

	return names, contents
}

// TestWriter_NoDropsOnCollision checks that every write with a duplicate
// name survives under a distinct renamed identity and no content is lost.
func TestWriter_NoDropsOnCollision(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := NewWriter(&buf)

	for i, content := range []string{"first", "second", "third"} {
		name, err := w.Write("lib/dep.jar", strings.NewReader(content))
		require.NoError(t, err)

		if i == 0 {
			require.Equal(t, "lib/dep.jar", name)
		}
	}

	require.NoError(t, w.Close())
	require.Equal(t, 2, w.Renamed())

	names, contents := readArchive(t, &buf)
	require.Equal(t, []string{"lib/dep.jar", "lib/dep-DUPLICATE-1.jar", "lib/dep-DUPLICATE-2.jar"}, names)
	require.Equal(t, "first", contents["lib/dep.jar"])
	require.Equal(t, "second", contents["lib/dep-DUPLICATE-1.jar"])
	require.Equal(t, "third", contents["lib/dep-DUPLICATE-2.jar"])
}

// TestWriter_RenameKeepsExtension verifies the rename scheme preserves the
// original extension, including entries with no extension at all.
func TestWriter_RenameKeepsExtension(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := NewWriter(&buf)

	_, err := w.Write("binlib/libfoo.so", strings.NewReader("a"))
	require.NoError(t, err)

	name, err := w.Write("binlib/libfoo.so", strings.NewReader("b"))
	require.NoError(t, err)
	require.Equal(t, "binlib/libfoo-DUPLICATE-1.so", name)

	_, err = w.Write("LICENSE", strings.NewReader("a"))
	require.NoError(t, err)

	name, err = w.Write("LICENSE", strings.NewReader("b"))
	require.NoError(t, err)
	require.Equal(t, "LICENSE-DUPLICATE-2", name)

	require.NoError(t, w.Close())
}

// TestWriter_CounterIsPerInstance ensures the collision counter keeps
// increasing across different names within one writer but starts fresh in
// a new writer, keeping repeated runs reproducible.
func TestWriter_CounterIsPerInstance(t *testing.T) {
	t.Parallel()

	build := func() []string {
		var buf bytes.Buffer

		w := NewWriter(&buf)

		for _, name := range []string{"a.jar", "a.jar", "b.jar", "b.jar"} {
			_, err := w.Write(name, strings.NewReader("x"))
			require.NoError(t, err)
		}

		require.NoError(t, w.Close())

		names, _ := readArchive(t, &buf)

		return names
	}

	first := build()
	require.Equal(t, []string{"a.jar", "a-DUPLICATE-1.jar", "b.jar", "b-DUPLICATE-2.jar"}, first)

	// Identical inputs, fresh writer, identical output.
	require.Equal(t, first, build())
}

// TestWriter_ManifestReserved checks the manifest is written exactly once
// and that its name can never be claimed by a source entry.
func TestWriter_ManifestReserved(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := NewWriter(&buf)

	manifest := NewManifest()
	manifest.Set("Manifest-Version", "1.0")

	require.NoError(t, w.WriteManifest(manifest))
	require.ErrorIs(t, w.WriteManifest(manifest), errManifestAlreadyWritten)

	// A source entry with the manifest's name gets renamed, not merged.
	name, err := w.Write(ManifestPath, strings.NewReader("impostor"))
	require.NoError(t, err)
	require.Equal(t, "META-INF/MANIFEST-DUPLICATE-1.MF", name)

	require.NoError(t, w.Close())

	names, _ := readArchive(t, &buf)
	require.Equal(t, ManifestPath, names[0])
}

// closeRecorder wraps a reader and records whether Close was called.
type closeRecorder struct {
	io.Reader

	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

// TestWriter_ClosesContent verifies a successful write consumes and closes
// the supplied content stream.
func TestWriter_ClosesContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := NewWriter(&buf)

	content := &closeRecorder{Reader: strings.NewReader("payload")}

	_, err := w.Write("main/app.jar", content)
	require.NoError(t, err)
	require.True(t, content.closed)

	require.NoError(t, w.Close())
}

// TestWriter_EmptyEntry ensures zero-length content still produces an entry.
func TestWriter_EmptyEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := NewWriter(&buf)

	_, err := w.Write("lib/empty.jar", strings.NewReader(""))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, contents := readArchive(t, &buf)
	require.Equal(t, []string{"lib/empty.jar"}, names)
	require.Empty(t, contents["lib/empty.jar"])
}
