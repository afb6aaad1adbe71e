package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
)

// duplicateMarker separates the original entry base name from the
// collision counter in renamed entries.
const duplicateMarker = "-DUPLICATE-"

// errManifestAlreadyWritten is returned when the manifest entry is written twice.
var errManifestAlreadyWritten = errors.New("manifest entry already written")

// Writer streams entries into a single output archive. It is the only
// component allowed to append entries, which lets it guarantee that every
// accepted entry lands under a unique name: a colliding name is renamed
// deterministically instead of overwriting or dropping content.
//
// Writer is not safe for concurrent use; archive entries must be written
// strictly sequentially and the collision counter depends on one unsplit
// sequence of calls.
type Writer struct {
	zw   *zip.Writer
	used map[string]struct{}
	// renames counts collision renames performed so far; the first
	// renamed entry gets suffix 1.
	renames int
}

// NewWriter wraps the underlying stream in an archive writer.
// Deflate compression is served by klauspost's flate, which is
// considerably faster than the standard library at the default level.
func NewWriter(w io.Writer) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	return &Writer{
		zw:   zw,
		used: make(map[string]struct{}),
	}
}

// WriteManifest writes the manifest as the archive's next entry and
// reserves its well-known name so no later source entry can claim it.
// It must be called at most once, before any colliding content.
func (w *Writer) WriteManifest(manifest *Manifest) error {
	if _, taken := w.used[ManifestPath]; taken {
		return errManifestAlreadyWritten
	}

	_, err := w.Write(ManifestPath, bytes.NewReader(manifest.Encode()))

	return err
}

// Write appends one entry under the proposed name, renaming on collision,
// and returns the name the entry was actually stored under. The content
// reader is fully consumed and, if it implements io.Closer, closed.
// Renamed entries follow the scheme <base>-DUPLICATE-<n><ext> with a
// strictly increasing counter per Writer, so a retried name can never
// collide again.
func (w *Writer) Write(name string, content io.Reader) (string, error) {
	if closer, ok := content.(io.Closer); ok {
		defer func() {
			// Best-effort close; the copy below reports real failures.
			_ = closer.Close()
		}()
	}

	final := name
	for {
		if _, taken := w.used[final]; !taken {
			break
		}

		w.renames++
		final = renameEntry(name, w.renames)
	}

	entry, err := w.zw.CreateHeader(&zip.FileHeader{ //nolint:exhaustruct // Remaining header fields keep their zero values.
		Name:   final,
		Method: zip.Deflate,
	})
	if err != nil {
		return "", fmt.Errorf("create entry %s: %w", final, err)
	}

	if _, err := io.Copy(entry, content); err != nil {
		return "", fmt.Errorf("write entry %s: %w", final, err)
	}

	w.used[final] = struct{}{}

	return final, nil
}

// Renamed reports how many entries were stored under a collision-renamed name.
func (w *Writer) Renamed() int {
	return w.renames
}

// Close finalizes the archive's central directory. It does not close the
// underlying stream, which belongs to the caller.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}

// renameEntry derives the alternative name for the n-th collision,
// keeping the directory part and the original extension intact:
// "lib/foo.jar" becomes "lib/foo-DUPLICATE-<n>.jar".
func renameEntry(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	return base + duplicateMarker + strconv.Itoa(n) + ext
}
