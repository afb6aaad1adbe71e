package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"strings"
)

const (
	// templatePrefix and templateSuffix frame the boot version in a
	// template archive's file name.
	templatePrefix = "unijar-boot-"
	templateSuffix = ".jar"
)

// ErrTemplateManifestMissing is returned when a boot template archive
// does not carry a manifest. Such a template is not usable: the output
// manifest is synthesized from it.
var ErrTemplateManifestMissing = errors.New("template archive has no manifest")

// TemplateName returns the boot template file name for a version,
// e.g. "unijar-boot-0.9.0.jar".
func TemplateName(version string) string {
	return templatePrefix + version + templateSuffix
}

// ExtractManifest opens the template archive and parses its manifest.
func ExtractManifest(templatePath string) (*Manifest, error) {
	reader, err := zip.OpenReader(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", templatePath, err)
	}

	defer func() {
		// Best-effort cleanup.
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if entry.Name != ManifestPath {
			continue
		}

		content, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open template manifest: %w", err)
		}

		manifest, err := ParseManifest(content)

		// The reader is exhausted either way.
		_ = content.Close()

		if err != nil {
			return nil, err
		}

		return manifest, nil
	}

	return nil, fmt.Errorf("%s: %w", templatePath, ErrTemplateManifestMissing)
}

// MergeTemplate streams every entry of the template archive into the
// writer in archive order. The template's manifest is skipped: it was
// already consumed by ExtractManifest and written as the output's own
// manifest. Directory placeholder entries carry no content and are
// skipped as well. Names already taken by earlier sources go through the
// writer's usual collision renaming.
func MergeTemplate(templatePath string, w *Writer) error {
	reader, err := zip.OpenReader(templatePath)
	if err != nil {
		return fmt.Errorf("open template %s: %w", templatePath, err)
	}

	defer func() {
		// Best-effort cleanup.
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if entry.Name == ManifestPath || strings.HasSuffix(entry.Name, "/") {
			continue
		}

		content, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open template entry %s: %w", entry.Name, err)
		}

		// Write consumes and closes the content stream.
		if _, err := w.Write(entry.Name, content); err != nil {
			return fmt.Errorf("merge template entry %s: %w", entry.Name, err)
		}
	}

	return nil
}
