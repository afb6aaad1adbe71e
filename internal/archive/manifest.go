package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// ManifestPath is the well-known manifest entry name inside an archive.
	ManifestPath = "META-INF/MANIFEST.MF"

	// AttributeMainClass records the application entry point read by the boot loader.
	AttributeMainClass = "UniJar-Main-Class"

	// AttributeImplementationVersion records the version of the assembled application.
	AttributeImplementationVersion = "Implementation-Version"

	// manifestLineLimit is the maximum encoded line length before a
	// continuation line is started, per the JAR manifest format.
	manifestLineLimit = 72
)

// errEmptyAttributeName is returned when parsing a manifest line without a name.
var errEmptyAttributeName = errors.New("manifest attribute has an empty name")

// Attribute is a single named manifest value.
type Attribute struct {
	// Name is the attribute key, e.g. "Main-Class".
	Name string
	// Value is the attribute value with continuation lines already joined.
	Value string
}

// Manifest holds the main attribute section of an archive manifest.
// Attribute order is preserved: merged manifests keep the template's
// ordering, with overridden values replaced in place and new attributes
// appended at the end.
type Manifest struct {
	attrs []Attribute
	// index maps folded attribute names to their position in attrs.
	// Manifest attribute names are case-insensitive.
	index map[string]int
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		attrs: nil,
		index: make(map[string]int),
	}
}

// ParseManifest reads the main attribute section from manifest bytes.
// Continuation lines (leading space) are joined to the preceding value.
// Parsing stops at the first blank line; per-entry sections are not used
// by the boot loader and are ignored.
func ParseManifest(r io.Reader) (*Manifest, error) {
	manifest := NewManifest()
	scanner := bufio.NewScanner(r)

	var (
		name  string
		value strings.Builder
	)

	flush := func() {
		if name != "" {
			manifest.Set(name, value.String())
		}

		name = ""

		value.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}

		if strings.HasPrefix(line, " ") {
			// Continuation of the previous attribute value.
			value.WriteString(line[1:])
			continue
		}

		flush()

		rawName, rawValue, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(rawName) == "" {
			return nil, fmt.Errorf("parse manifest line %q: %w", line, errEmptyAttributeName)
		}

		name = strings.TrimSpace(rawName)

		value.WriteString(strings.TrimPrefix(rawValue, " "))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	flush()

	return manifest, nil
}

// Set stores the attribute, replacing an existing value under the same
// name in place so the original position survives a merge.
func (m *Manifest) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := m.index[key]; ok {
		m.attrs[i].Value = value
		return
	}

	m.index[key] = len(m.attrs)
	m.attrs = append(m.attrs, Attribute{Name: name, Value: value})
}

// Get returns the attribute value and whether it is present.
func (m *Manifest) Get(name string) (string, bool) {
	if i, ok := m.index[strings.ToLower(name)]; ok {
		return m.attrs[i].Value, true
	}

	return "", false
}

// Attributes returns a copy of the attributes in manifest order.
func (m *Manifest) Attributes() []Attribute {
	return append([]Attribute(nil), m.attrs...)
}

// Len returns the number of attributes.
func (m *Manifest) Len() int {
	return len(m.attrs)
}

// Encode renders the manifest in the JAR manifest format: CRLF line
// endings, lines wrapped at 72 bytes with single-space continuations,
// and a terminating blank line.
func (m *Manifest) Encode() []byte {
	var buf bytes.Buffer

	for _, attr := range m.attrs {
		writeManifestLine(&buf, attr.Name+": "+attr.Value)
	}

	buf.WriteString("\r\n")

	return buf.Bytes()
}

// writeManifestLine writes one logical attribute line, splitting it into
// continuation lines whenever the byte limit is reached.
func writeManifestLine(buf *bytes.Buffer, line string) {
	for len(line) > manifestLineLimit {
		buf.WriteString(line[:manifestLineLimit])
		buf.WriteString("\r\n")

		line = " " + line[manifestLineLimit:]
	}

	buf.WriteString(line)
	buf.WriteString("\r\n")
}
