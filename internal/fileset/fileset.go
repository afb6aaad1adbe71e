package fileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/avoronin/unijar/internal/config"
)

var (
	// errNotADirectory is returned when a file-set root is not a directory.
	errNotADirectory = errors.New("file-set root is not a directory")
	// errInvalidPattern is returned for a malformed glob pattern.
	errInvalidPattern = errors.New("invalid glob pattern")
)

// Matcher expands file-set specifications into concrete file lists using
// doublestar-compatible glob patterns (e.g. "**/*.so").
type Matcher struct{}

// Match returns the files under the set's directory selected by the
// include patterns and not removed by the exclude patterns. Matches are
// returned as paths joined with the set's directory, in include-pattern
// order with each pattern's matches in lexical walk order. A missing
// directory or malformed pattern is an error: a partial native library
// set is worse than a failed build.
func (Matcher) Match(set config.NativeSet) ([]string, error) {
	info, err := os.Stat(set.Directory)
	if err != nil {
		return nil, fmt.Errorf("file-set root %s: %w", set.Directory, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", set.Directory, errNotADirectory)
	}

	// Validate all patterns eagerly so invalid globs fail the run
	// instead of silently matching nothing.
	if err := validatePatterns(set.Includes, "include"); err != nil {
		return nil, err
	}

	if err := validatePatterns(set.Excludes, "exclude"); err != nil {
		return nil, err
	}

	root := os.DirFS(set.Directory)
	seen := make(map[string]struct{})

	var result []string

	for _, pattern := range set.Includes {
		matches, err := doublestar.Glob(root, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q under %s: %w", pattern, set.Directory, err)
		}

		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}

			seen[match] = struct{}{}

			excluded, err := matchesAny(set.Excludes, match)
			if err != nil {
				return nil, err
			}

			if !excluded {
				result = append(result, filepath.Join(set.Directory, filepath.FromSlash(match)))
			}
		}
	}

	return result, nil
}

// matchesAny reports whether the slash-separated relative path matches any
// of the patterns.
func matchesAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("match %q: %w", pattern, err)
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}

// validatePatterns checks that every pattern in the slice is a valid
// doublestar glob. The label ("include" or "exclude") is used in errors.
func validatePatterns(patterns []string, label string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%s pattern %q: %w", label, pattern, errInvalidPattern)
		}
	}

	return nil
}
