package assembler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/avoronin/unijar/internal/config"
	"github.com/avoronin/unijar/internal/logger"
)

const (
	// markerFilename marks that an assembly into this directory is in
	// progress, to avoid two runs corrupting the same output.
	markerFilename = ".unijar-assembly-marker"

	// markerLifetime is the period after which a marker is considered
	// stale and eligible for cleanup.
	markerLifetime = 30 * time.Second

	// assemblerExecutable is the process name scanned for when deciding
	// whether a stale marker still belongs to a live run.
	assemblerExecutable = "unijar"
)

// isAssemblyRunningNow checks for a marker left by another assembly into
// the same directory and attempts recovery if it looks stale.
func isAssemblyRunningNow(ctx context.Context, dir string) bool {
	marker := filepath.Join(dir, markerFilename)

	fileInfo, err := os.Stat(marker)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The assembly marker is stale, attempting cleanup")

		if otherAssemblerAlive() {
			return true
		}

		if err = os.Remove(marker); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read assembly marker: %v", err)

	return false
}

// otherAssemblerAlive scans the process list for another live assembler
// process. When the list cannot be read, the marker is treated as live.
func otherAssemblerAlive() bool {
	processList, err := ps.Processes()
	if err != nil {
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		name := strings.TrimSuffix(process.Executable(), ".exe")
		if name == assemblerExecutable {
			return true
		}
	}

	return false
}

// createMarker drops the in-progress marker into the output directory.
func createMarker(dir string) error {
	return os.WriteFile(filepath.Join(dir, markerFilename), nil, config.DefaultFilePermissions)
}

// removeMarker clears the marker, logging on failure.
func removeMarker(ctx context.Context, dir string) {
	if err := os.Remove(filepath.Join(dir, markerFilename)); err != nil {
		logger.Warnf(ctx, "Unable to remove assembly marker: %v", err)
	}
}
