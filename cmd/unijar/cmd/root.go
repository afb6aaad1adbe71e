package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avoronin/unijar/internal/config"
	"github.com/avoronin/unijar/internal/logger"
	"github.com/avoronin/unijar/internal/service/assembler"
	"github.com/avoronin/unijar/internal/version"
)

var (
	// configPath to the assembly descriptor YAML file.
	configPath string
	// logLevel is the minimum level for console output.
	logLevel string
	// mainClass overrides the manifest entry-point attribute.
	mainClass string
	// implementationVersion overrides the manifest implementation version.
	implementationVersion string
	// bootVersion selects the boot template archive.
	bootVersion string
	// templateDir is the directory holding boot template archives.
	templateDir string
	// attach registers the produced archive in the build report.
	attach bool
	// classifier tags the attached artifact.
	classifier string

	// rootCmd represents the base command assembling one-jar archives.
	rootCmd = &cobra.Command{
		Use:   "unijar [main-artifact] [output-path]",
		Short: "Assemble a self-contained executable archive",
		Long: "Assemble the main artifact, its dependency archives, and native libraries " +
			"into one executable archive driven by a versioned boot template. " +
			"Dependencies and native library sets are listed in the assembly descriptor; " +
			"positional arguments and flags override descriptor values.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &assembler.Options{ConfigPath: configPath}

			// Positional arguments switch to descriptor-override mode:
			// start from the descriptor when present, apply the overrides,
			// and let the assembler persist the effective result.
			if len(args) > 0 {
				cfg, err := loadOrNewConfig(configPath)
				if err != nil {
					return err
				}

				cfg.MainArtifact = args[0]
				if len(args) == 2 {
					cfg.OutputPath = args[1]
				}

				applyFlagOverrides(command, cfg)

				options.Config = cfg
			}

			return assembler.Run(ctx, options)
		},
	}
)

// loadOrNewConfig loads the descriptor when the file exists and starts an
// empty one otherwise.
func loadOrNewConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return new(config.Config), nil
	}

	return cfg, err
}

// applyFlagOverrides copies explicitly set flags over descriptor values.
func applyFlagOverrides(command *cobra.Command, cfg *config.Config) {
	if mainClass != "" {
		cfg.MainClass = mainClass
	}

	if implementationVersion != "" {
		cfg.ImplementationVersion = implementationVersion
	}

	if bootVersion != "" {
		cfg.BootVersion = bootVersion
	}

	if templateDir != "" {
		cfg.TemplateDir = templateDir
	}

	if classifier != "" {
		cfg.Classifier = classifier
	}

	if command.Flags().Changed("attach") {
		cfg.Attach = attach
	}
}

// Execute runs the unijar CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to the assembly descriptor")
	flags.StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	flags.StringVar(&mainClass, "main-class", "", "application entry point recorded in the manifest")
	flags.StringVar(&implementationVersion, "implementation-version", "",
		"implementation version recorded in the manifest (defaults to the tool version)")
	flags.StringVar(&bootVersion, "boot-version", "", "boot template version (defaults to the tool version)")
	flags.StringVar(&templateDir, "templates", "", "directory holding boot template archives")
	flags.BoolVar(&attach, "attach", false, "register the produced archive in the build report")
	flags.StringVar(&classifier, "classifier", "", "classifier for the attached artifact")
}
