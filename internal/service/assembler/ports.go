package assembler

import (
	"context"

	"github.com/avoronin/unijar/internal/config"
)

// FileMatcher expands a native library file-set specification into
// concrete files. fileset.Matcher is the production implementation;
// tests inject fakes returning fixed lists.
type FileMatcher interface {
	Match(set config.NativeSet) ([]string, error)
}

// Attacher registers a produced artifact with the surrounding build.
// ReportWriter is the default implementation.
type Attacher interface {
	Attach(ctx context.Context, artifact Attachment) error
}
