package assembler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avoronin/unijar/internal/archive"
	"github.com/avoronin/unijar/internal/config"
	"github.com/avoronin/unijar/internal/fileset"
	"github.com/avoronin/unijar/internal/logger"
	"github.com/avoronin/unijar/internal/version"
)

// Options contains inputs for the assembler entry point.
type Options struct {
	// ConfigPath is the assembly descriptor location. It is loaded when
	// Config is nil and used to persist the effective descriptor when a
	// Config is supplied directly.
	ConfigPath string
	// Config is a descriptor supplied by the caller (e.g. built from CLI
	// flags). Takes precedence over ConfigPath loading.
	Config *config.Config
	// Matcher expands native library file-sets. Defaults to fileset.Matcher.
	Matcher FileMatcher
	// Attacher registers the produced artifact. Defaults to a ReportWriter
	// at the descriptor's report path.
	Attacher Attacher
}

// errAssemblyRunning indicates another assembly into the same output
// directory is in progress.
var errAssemblyRunning = errors.New("another assembly is running now")

// Run executes the assembly workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "unijar")

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
	} else {
		if err := config.Validate(cfg); err != nil {
			return err
		}

		if opts.ConfigPath != "" {
			if err := config.Save(opts.ConfigPath, cfg); err != nil {
				return fmt.Errorf("save descriptor: %w", err)
			}
		}
	}

	matcher := opts.Matcher
	if matcher == nil {
		matcher = fileset.Matcher{}
	}

	attacher := opts.Attacher
	if attacher == nil {
		attacher = &ReportWriter{Path: cfg.ReportPath}
	}

	asm := &assembler{
		cfg:      cfg,
		matcher:  matcher,
		attacher: attacher,
	}

	if err := asm.Run(ctx); err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	logger.InfoKV(ctx, "Assembly completed successfully", "output", cfg.OutputPath)

	return nil
}

// assembler drives a single assembly run. It is unexported—callers use
// Run, which encapsulates descriptor loading and collaborator defaults.
type assembler struct {
	// cfg is the validated assembly descriptor.
	cfg *config.Config
	// matcher expands native library file-sets.
	matcher FileMatcher
	// attacher registers the produced artifact when attachment is enabled.
	attacher Attacher
}

// Run assembles the output archive: synthesize the manifest from the boot
// template, write the manifest plus every enumerated source, merge the
// template's remaining entries, then optionally attach the result. On any
// fatal error the partial output is removed and the original error
// surfaces; there is no partial success.
func (a *assembler) Run(ctx context.Context) error {
	outputDir := filepath.Dir(a.cfg.OutputPath)
	if isAssemblyRunningNow(ctx, outputDir) {
		return errAssemblyRunning
	}

	if err := createMarker(outputDir); err != nil {
		return fmt.Errorf("create assembly marker: %w", err)
	}

	defer removeMarker(ctx, outputDir)

	implVersion := a.cfg.ImplementationVersion
	if implVersion == "" {
		implVersion = version.Short()
	}

	bootVersion := a.cfg.BootVersion
	if bootVersion == "" {
		bootVersion = version.Short()
	}

	templatePath := filepath.Join(a.cfg.TemplateDir, archive.TemplateName(bootVersion))

	logger.InfoKV(ctx, "Synthesizing manifest", "template", templatePath)

	manifest, err := archive.ExtractManifest(templatePath)
	if err != nil {
		return err
	}

	// Overrides win over template attributes under the same key.
	if a.cfg.MainClass != "" {
		manifest.Set(archive.AttributeMainClass, a.cfg.MainClass)
	}

	manifest.Set(archive.AttributeImplementationVersion, implVersion)

	sources, err := a.enumerateSources(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Writing archive", "output", a.cfg.OutputPath, "sources", len(sources))

	if err := a.writeArchive(ctx, manifest, sources, templatePath); err != nil {
		// A half-written archive is not resumable; drop it.
		if removeErr := os.Remove(a.cfg.OutputPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.Warnf(ctx, "Unable to remove partial output: %v", removeErr)
		}

		return err
	}

	checksum, err := fileChecksum(a.cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("checksum output: %w", err)
	}

	encodedChecksum := base64.StdEncoding.EncodeToString(checksum)

	logger.InfoKV(ctx, "Assembled archive", "output", a.cfg.OutputPath, "checksum", encodedChecksum)

	if !a.cfg.Attach {
		return nil
	}

	// Attachment is an explicit opt-in step and must not fail silently:
	// its failure fails the run even though the archive exists on disk.
	attachment := Attachment{
		Path:       a.cfg.OutputPath,
		Classifier: a.cfg.Classifier,
		Checksum:   encodedChecksum,
		Version:    implVersion,
	}
	if err := a.attacher.Attach(ctx, attachment); err != nil {
		return fmt.Errorf("attach artifact: %w", err)
	}

	return nil
}

// writeArchive owns the output stream for its whole lifetime: it opens the
// file, writes the manifest first, then every source in order, then the
// template's entries, and closes the stream on every exit path.
func (a *assembler) writeArchive(
	ctx context.Context,
	manifest *archive.Manifest,
	sources []Source,
	templatePath string,
) (err error) {
	out, err := os.Create(a.cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output %s: %w", a.cfg.OutputPath, err)
	}

	defer func() {
		closeErr := out.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	writer := archive.NewWriter(out)
	if err := writer.WriteManifest(manifest); err != nil {
		return err
	}

	for _, src := range sources {
		content, openErr := os.Open(src.Path)
		if openErr != nil {
			return fmt.Errorf("open source %s: %w", src.Path, openErr)
		}

		// Write consumes and closes the content stream.
		storedName, writeErr := writer.Write(src.EntryName(), content)
		if writeErr != nil {
			return writeErr
		}

		if storedName != src.EntryName() {
			logger.InfoKV(ctx, "Renamed colliding entry",
				"proposed", src.EntryName(), "stored", storedName)
		}
	}

	if err := archive.MergeTemplate(templatePath, writer); err != nil {
		return err
	}

	return writer.Close()
}
