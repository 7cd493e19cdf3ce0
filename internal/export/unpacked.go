package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ext_builder_server/internal/metrics"
	"ext_builder_server/internal/types"
)

// ErrTargetExists is returned when the unpacked directory is already present.
var ErrTargetExists = errors.New("target directory already exists")

// UnpackedDirName is the directory name WriteUnpacked uses for a result.
func UnpackedDirName(name string) string {
	return strings.TrimSuffix(ArchiveName(name), ".zip")
}

// WriteUnpacked writes the result's files under dir so the folder can be
// loaded with chrome://extensions "Load unpacked". Files are staged in a
// temporary directory and moved into place once all of them are written.
// It returns the created directory.
func WriteUnpacked(ctx context.Context, dir string, result types.ExtensionResult) (target string, err error) {
	defer func() { metrics.IncExport(FormatUnpacked, err) }()

	target = filepath.Join(dir, UnpackedDirName(result.Name))
	if _, statErr := os.Stat(target); statErr == nil {
		return "", fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	stagingDir, err := os.MkdirTemp(dir, ".unpack-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(stagingDir) // no-op after a successful rename
	if err := os.Chmod(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to set staging dir permissions: %w", err)
	}

	for _, f := range result.Files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !types.IsValidFilePath(f.Path) {
			return "", fmt.Errorf("refusing to write file outside extension root: %q", f.Path)
		}

		filePath := filepath.Join(stagingDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return "", fmt.Errorf("failed to create subdirectories for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(filePath, []byte(f.Content), 0o644); err != nil {
			return "", fmt.Errorf("failed to write file %s: %w", f.Path, err)
		}
	}

	if err := os.Rename(stagingDir, target); err != nil {
		return "", fmt.Errorf("failed to move files into %s: %w", target, err)
	}
	log.Printf("Wrote %d files to %s", len(result.Files), target)
	return target, nil
}
