package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the assembly descriptor for one unijar run.
type Config struct {
	// MainArtifact is the path to the primary build artifact embedded under main/.
	MainArtifact string `yaml:"main_artifact"`
	// OutputPath is where the assembled archive is written.
	// Defaults to the main artifact's base name with a .onejar.jar suffix.
	OutputPath string `yaml:"output,omitempty"`
	// MainClass is the application entry point recorded in the manifest.
	// Optional: when empty, no entry-point attribute is written.
	MainClass string `yaml:"main_class,omitempty"`
	// ImplementationVersion is written into the manifest.
	// Defaults at runtime to the tool's own build version.
	ImplementationVersion string `yaml:"implementation_version,omitempty"`
	// BootVersion selects the boot template archive by version.
	BootVersion string `yaml:"boot_version,omitempty"`
	// TemplateDir is the directory holding boot template archives.
	TemplateDir string `yaml:"template_dir,omitempty"`
	// Libraries are resolved dependency archive paths embedded under lib/.
	Libraries []string `yaml:"libraries,omitempty"`
	// Dependencies are the project's declared dependencies. Only entries
	// with scope "system" contribute files, located via SystemPath.
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
	// NativeSets describe native library files embedded under binlib/.
	NativeSets []NativeSet `yaml:"native_libraries,omitempty"`
	// Attach registers the produced archive in the build report when true.
	Attach bool `yaml:"attach,omitempty"`
	// Classifier tags the attached artifact in the build report.
	Classifier string `yaml:"classifier,omitempty"`
	// ReportPath is the build report file used when Attach is enabled.
	ReportPath string `yaml:"report_path,omitempty"`
}

// Dependency is one declared project dependency.
type Dependency struct {
	// Scope is the declared dependency scope; ScopeSystem entries are
	// embedded from SystemPath, everything else is ignored here because
	// resolved dependencies arrive through Libraries.
	Scope string `yaml:"scope"`
	// SystemPath is the explicit file-system path for ScopeSystem entries.
	SystemPath string `yaml:"system_path,omitempty"`
}

// NativeSet selects native library files by directory and glob patterns.
type NativeSet struct {
	// Directory is the root the patterns are matched against.
	Directory string `yaml:"directory"`
	// Includes are glob patterns selecting files, e.g. "**/*.so".
	Includes []string `yaml:"includes"`
	// Excludes are glob patterns removing files from the selection.
	Excludes []string `yaml:"excludes,omitempty"`
}

const (
	// DefaultConfigFilename is the default assembly descriptor filename.
	DefaultConfigFilename = "unijar.yaml"

	// DefaultTemplateDirname is the default directory for boot templates,
	// relative to the working directory.
	DefaultTemplateDirname = "templates"

	// DefaultClassifier tags attached artifacts when none is configured.
	DefaultClassifier = "onejar"

	// DefaultReportFilename is the default build report filename.
	DefaultReportFilename = "unijar-report.yaml"

	// DefaultOutputSuffix is appended to the main artifact's base name
	// when no output path is configured.
	DefaultOutputSuffix = ".onejar.jar"

	// ScopeSystem marks dependencies located via an explicit path
	// instead of the dependency resolver.
	ScopeSystem = "system"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errMainArtifactRequired is returned when the primary artifact is missing.
	errMainArtifactRequired = errors.New("main artifact must be provided")
	// errSystemPathRequired is returned for a system-scope dependency without a path.
	errSystemPathRequired = errors.New("system-scope dependency must declare a system path")
	// errNativeDirRequired is returned for a native file-set without a directory.
	errNativeDirRequired = errors.New("native library set must declare a directory")
)

// Load reads a descriptor from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the descriptor to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults derived from other fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.MainArtifact == "" {
		return errMainArtifactRequired
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutputPath(cfg.MainArtifact)
	}

	if cfg.TemplateDir == "" {
		cfg.TemplateDir = DefaultTemplateDirname
	}

	if cfg.Classifier == "" {
		cfg.Classifier = DefaultClassifier
	}

	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportFilename
	}

	for i := range cfg.Dependencies {
		dep := &cfg.Dependencies[i]
		if dep.Scope == ScopeSystem && dep.SystemPath == "" {
			return fmt.Errorf("dependency %d: %w", i, errSystemPathRequired)
		}
	}

	for i := range cfg.NativeSets {
		if cfg.NativeSets[i].Directory == "" {
			return fmt.Errorf("native library set %d: %w", i, errNativeDirRequired)
		}
	}

	return nil
}

// defaultOutputPath derives the output archive path from the main artifact,
// replacing its extension with the default one-jar suffix.
func defaultOutputPath(mainArtifact string) string {
	base := filepath.Base(mainArtifact)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(filepath.Dir(mainArtifact), base+DefaultOutputSuffix)
}
