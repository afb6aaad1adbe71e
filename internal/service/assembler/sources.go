package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avoronin/unijar/internal/config"
	"github.com/avoronin/unijar/internal/logger"
)

// Destination namespaces inside the assembled archive.
const (
	// NamespaceMain holds the primary artifact.
	NamespaceMain = "main"
	// NamespaceLib holds dependency archives, including system-scope ones.
	NamespaceLib = "lib"
	// NamespaceBinlib holds native library files.
	NamespaceBinlib = "binlib"
)

// Source is one file scheduled for embedding under a destination namespace.
// Sources are immutable once enumerated.
type Source struct {
	// Path is the file on disk.
	Path string
	// Namespace is the path prefix the entry is grouped under.
	Namespace string
}

// EntryName is the archive entry name proposed for this source:
// the namespace plus the original file name.
func (s Source) EntryName() string {
	return s.Namespace + "/" + filepath.Base(s.Path)
}

// enumerateSources produces the ordered list of files to embed: the main
// artifact first, then resolved dependencies with a materialized regular
// file, then declared system-scope dependencies at their declared paths,
// then expanded native library sets. The result is deterministic for
// identical inputs. No deduplication happens here: the entry writer's
// collision renaming is the safety net for overlapping names.
func (a *assembler) enumerateSources(ctx context.Context) ([]Source, error) {
	cfg := a.cfg
	sources := make([]Source, 0, len(cfg.Libraries)+len(cfg.Dependencies)+1)
	sources = append(sources, Source{Path: cfg.MainArtifact, Namespace: NamespaceMain})

	for _, lib := range cfg.Libraries {
		info, err := os.Stat(lib)
		if err != nil || !info.Mode().IsRegular() {
			// Artifacts without a backing file (unresolved, pom-only)
			// are skipped, not an error.
			logger.DebugKV(ctx, "Skipping dependency without a backing file", "path", lib)
			continue
		}

		sources = append(sources, Source{Path: lib, Namespace: NamespaceLib})
	}

	for _, dep := range cfg.Dependencies {
		if dep.Scope != config.ScopeSystem {
			continue
		}

		// System-scope paths are embedded as declared; a missing file
		// fails later when the entry is opened for writing.
		sources = append(sources, Source{Path: dep.SystemPath, Namespace: NamespaceLib})
	}

	for _, set := range cfg.NativeSets {
		files, err := a.matcher.Match(set)
		if err != nil {
			return nil, fmt.Errorf("expand native library set %s: %w", set.Directory, err)
		}

		for _, file := range files {
			sources = append(sources, Source{Path: file, Namespace: NamespaceBinlib})
		}
	}

	return sources, nil
}
