package assembler

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/avoronin/unijar/internal/config"
	"github.com/avoronin/unijar/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

// checksumFunction is used to fingerprint produced archives.
const checksumFunction crypto.Hash = crypto.SHA512

var errHashUnavailable = errors.New("hash function unavailable")

// Attachment describes a produced artifact being registered with the build.
type Attachment struct {
	// Path is the produced archive on disk.
	Path string
	// Classifier tags the artifact within the build's output list.
	Classifier string
	// Checksum is the base64-encoded digest of the archive.
	Checksum string
	// Version is the implementation version recorded in the archive.
	Version string
}

// ReportedArtifact is one registered artifact in the build report.
type ReportedArtifact struct {
	// Path is the artifact location on disk.
	Path string `yaml:"path"`
	// Checksum is the base64-encoded digest of the artifact.
	Checksum string `yaml:"checksum"`
	// Version is the implementation version of the artifact.
	Version string `yaml:"version"`
}

// Report is the YAML build report listing produced artifacts by classifier.
type Report struct {
	// Artifacts maps classifiers to registered artifacts.
	Artifacts map[string]ReportedArtifact `yaml:"artifacts"`
}

// ReportWriter is the default Attacher. It appends the produced artifact
// to a YAML build report on disk, creating the report if absent.
type ReportWriter struct {
	// Path is the build report file.
	Path string
}

// Attach records the artifact in the report under its classifier.
func (rw *ReportWriter) Attach(ctx context.Context, artifact Attachment) error {
	report, err := loadReport(rw.Path)
	if err != nil {
		return err
	}

	report.Artifacts[artifact.Classifier] = ReportedArtifact{
		Path:     artifact.Path,
		Checksum: artifact.Checksum,
		Version:  artifact.Version,
	}

	contents, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(rw.Path), contents, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write build report: %w", err)
	}

	logger.InfoKV(ctx, "Registered artifact in build report",
		"report", rw.Path, "classifier", artifact.Classifier)

	return nil
}

// loadReport reads an existing report or returns an empty one.
func loadReport(path string) (*Report, error) {
	report := &Report{
		Artifacts: make(map[string]ReportedArtifact),
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return report, nil
	} else if err != nil {
		return nil, fmt.Errorf("read build report: %w", err)
	}

	if err := yaml.Unmarshal(contents, report); err != nil {
		return nil, fmt.Errorf("unmarshal build report: %w", err)
	}

	if report.Artifacts == nil {
		report.Artifacts = make(map[string]ReportedArtifact)
	}

	return report, nil
}

// fileChecksum returns digest bytes for a file using checksumFunction.
func fileChecksum(path string) ([]byte, error) {
	if !checksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		// Best-effort cleanup.
		_ = file.Close()
	}()

	hasher := checksumFunction.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
