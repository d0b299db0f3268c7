// =============================================================================
// sheet2csv - CSV Input/Output
// =============================================================================
//
// This module writes serialized table rows as CSV and reads CSV files back.
//
// OUTPUT FORMAT:
//   - One line per row, one field per cell, rows in source order
//   - Comma delimiter unless configured otherwise
//   - Fields containing the delimiter, a quote or a line break are quoted;
//     embedded quotes are doubled
//   - A row holding a single empty field is written as "" so it reads back
//     as one record
//   - UTF-8, newline-terminated rows ("\r\n" when UseCRLF is set)
//
// ATOMICITY:
//   WriteFile writes to a temporary file next to the destination and renames
//   it into place only after every row has been flushed. A failed write
//   leaves no partial output behind.
//
// =============================================================================

package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ginjaninja78/sheet2csv/pkg/utils"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings configures the CSV dialect.
type Settings struct {
	// Delimiter separates fields. Accepts a single character or one of the
	// names "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string

	// UseCRLF terminates rows with "\r\n" instead of "\n".
	// Default: false
	UseCRLF bool
}

// DefaultSettings returns the standard comma-separated dialect.
func DefaultSettings() Settings {
	return Settings{Delimiter: ",", UseCRLF: false}
}

// Comma resolves the configured delimiter to a rune.
func (s Settings) Comma() (rune, error) {
	switch s.Delimiter {
	case "", ",":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	r, size := utf8.DecodeRuneInString(s.Delimiter)
	if size != len(s.Delimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s.Delimiter)
	}
	return r, nil
}

// =============================================================================
// WRITING
// =============================================================================

// Write encodes rows to w.
func Write(w io.Writer, rows [][]string, settings Settings) error {
	comma, err := settings.Comma()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = comma
	writer.UseCRLF = settings.UseCRLF

	terminator := "\n"
	if settings.UseCRLF {
		terminator = "\r\n"
	}

	for i, row := range rows {
		if isBlankRow(row) {
			// A lone empty field would encode as a blank line, which readers
			// skip. Quote it so the row survives.
			writer.Flush()
			if err := writer.Error(); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
			if _, err := io.WriteString(w, `""`+terminator); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
			continue
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
//
// RETURNS:
//   - The number of rows written.
//   - An error if the file cannot be written. The destination is untouched
//     in that case.
func WriteFile(path string, rows [][]string, settings Settings) (int, error) {
	if _, err := settings.Comma(); err != nil {
		return 0, err
	}

	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		return Write(w, rows, settings)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// =============================================================================
// READING
// =============================================================================

// Read decodes all records from r. Records may have differing field counts.
func Read(r io.Reader, settings Settings) ([][]string, error) {
	comma, err := settings.Comma()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

// ReadFile decodes all records of the CSV file at path.
func ReadFile(path string, settings Settings) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Read(file, settings)
}

// isBlankRow reports whether row would otherwise encode as an empty line.
func isBlankRow(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && row[0] == "")
}
