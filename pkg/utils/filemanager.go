// =============================================================================
// sheet2csv - File Utilities
// =============================================================================
//
// This module provides the file handling used by the extractor:
//   - Existence checks for the input document
//   - Default output path derivation
//   - Atomic writes (temp file + rename)
//
// ATOMIC WRITE STRATEGY:
//   - The temp file lives in the destination directory so the final rename
//     never crosses file systems
//   - Its name carries a random UUID so concurrent runs never share a temp
//   - On any error the temp file is removed and the destination is untouched
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// PATH HELPERS
// =============================================================================

// FileExists checks if a file or directory exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// ReplaceExtension returns path with its final extension replaced by ext.
// A path without an extension gets ext appended. A leading dot in the base
// name (".log") does not count as an extension.
//
// Examples:
//   - "2025 harvest.numbers", ".csv" -> "2025 harvest.csv"
//   - "data/log.v2.xlsx", ".csv"     -> "data/log.v2.csv"
//   - "records", ".csv"              -> "records.csv"
func ReplaceExtension(path, ext string) string {
	path = strings.TrimRight(path, string(filepath.Separator))
	base := filepath.Base(path)

	current := filepath.Ext(base)
	if current == base {
		current = ""
	}

	return strings.TrimSuffix(path, current) + ext
}

// DefaultOutputPath derives the CSV path for an input document.
func DefaultOutputPath(inputPath string) string {
	return ReplaceExtension(inputPath, ".csv")
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic creates path with the content produced by write.
//
// PARAMETERS:
//   - path: The destination file. Replaced if it exists.
//   - write: Writes the full content. A returned error aborts the write.
//
// RETURNS:
//   - An error if the temp file cannot be created, written, synced, closed
//     or renamed. The destination is not modified in that case.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(file); err != nil {
		return err
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}
