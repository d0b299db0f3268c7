// =============================================================================
// sheet2csv - Converter Module
// =============================================================================
//
// This module contains the extraction pipeline. It takes one spreadsheet
// document and produces one CSV file, or nothing at all.
//
// EXTRACTION PIPELINE:
//   1. Check that the input exists
//   2. Load the document (sheets, tables, resolved cell values)
//   3. Select the sheet and the table (first/first by default)
//   4. Run the structural checks (header keywords, formula placement)
//   5. Serialize every cell to its display string
//   6. Write the CSV atomically
//   7. Re-read the CSV and compare the row count
//
// ALL-OR-NOTHING:
//   The output file is only created after every check has passed. Any
//   failure before or during the write leaves the destination untouched.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/sheet2csv/internal/config"
	"github.com/ginjaninja78/sheet2csv/internal/csvio"
	"github.com/ginjaninja78/sheet2csv/internal/logging"
	"github.com/ginjaninja78/sheet2csv/internal/types"
	"github.com/ginjaninja78/sheet2csv/internal/validation"
	"github.com/ginjaninja78/sheet2csv/pkg/utils"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = errors.New("file not found")

	// ErrEmptyDocument is returned when the document has no sheets.
	ErrEmptyDocument = errors.New("document has no sheets")

	// ErrEmptySheet is returned when the selected sheet has no tables.
	ErrEmptySheet = errors.New("sheet has no tables")

	// ErrSheetNotFound is returned when the sheet index is out of range.
	ErrSheetNotFound = errors.New("sheet index out of range")

	// ErrTableNotFound is returned when the table index is out of range.
	ErrTableNotFound = errors.New("table index out of range")

	// ErrOutputIsInput is returned when the output path names the input file.
	ErrOutputIsInput = errors.New("output path is the input document")

	// ErrVerification is returned when the written file does not read back
	// with the expected number of rows.
	ErrVerification = errors.New("output verification failed")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one extraction.
type Result struct {
	// InputPath is the document that was read.
	InputPath string

	// OutputPath is the CSV destination.
	OutputPath string

	// SheetCount and SheetName describe the document and the selected sheet.
	SheetCount int
	SheetName  string

	// TableCount and TableName describe the selected sheet and table.
	TableCount int
	TableName  string

	// RowCount is the number of rows in the selected table.
	RowCount int

	// Written is false for dry runs.
	Written bool

	// Checks holds the informational messages of the structural checks.
	Checks *validation.Result

	// ProcessingTime is the time taken by Run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	// Selection picks the sheet and table to export.
	Selection config.SelectionConfig

	// Validation configures the header check.
	Validation validation.Options

	// CSV is the output dialect.
	CSV csvio.Settings

	// Verify re-reads the written file.
	Verify bool

	// DryRun runs every step except writing the output.
	DryRun bool
}

// OptionsFromConfig builds converter options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Selection: cfg.Selection,
		Validation: validation.Options{
			HeaderRows:     cfg.Validation.HeaderRows,
			HeaderKeywords: cfg.Validation.HeaderKeywords,
		},
		CSV:    cfg.Output.CSVSettings(),
		Verify: cfg.Output.ShouldVerify(),
	}
}

// Converter extracts one table of a document to CSV.
type Converter struct {
	loader    types.Loader
	validator *validation.Validator
	options   Options
	logger    *slog.Logger
}

// New creates a Converter. A nil logger discards progress output.
func New(loader types.Loader, options Options, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Converter{
		loader:    loader,
		validator: validation.NewValidator(options.Validation),
		options:   options,
		logger:    logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run extracts the selected table of inputPath into outputPath.
//
// RETURNS:
//   - The extraction result. Fields are filled in as far as the pipeline got.
//   - An error describing the first failure. Nothing is written on error.
func (c *Converter) Run(inputPath, outputPath string) (*Result, error) {
	startTime := time.Now()
	result := &Result{InputPath: inputPath, OutputPath: outputPath}
	defer func() { result.ProcessingTime = time.Since(startTime) }()

	// =========================================================================
	// STEP 1: CHECK PATHS
	// =========================================================================

	if err := CheckInput(inputPath); err != nil {
		return result, err
	}
	if !c.options.DryRun && samePath(inputPath, outputPath) {
		return result, fmt.Errorf("%w: %s", ErrOutputIsInput, outputPath)
	}

	// =========================================================================
	// STEP 2: LOAD DOCUMENT
	// =========================================================================

	doc, err := c.loader.Load(inputPath)
	if err != nil {
		return result, fmt.Errorf("failed to load document: %w", err)
	}

	// =========================================================================
	// STEP 3: SELECT SHEET AND TABLE
	// =========================================================================

	table, err := c.selectTable(doc, result)
	if err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 4: STRUCTURAL CHECKS
	// =========================================================================

	c.logger.Info("performing sanity checks")

	checks, err := c.validator.Run(table)
	result.Checks = checks
	if checks.HeaderMessage != "" {
		c.logger.Info("header check", "result", checks.HeaderMessage)
	}
	if err != nil {
		return result, err
	}
	c.logger.Info("formula check", "result", checks.FormulaMessage)
	c.logger.Info("all sanity checks passed, extracting data")

	// =========================================================================
	// STEP 5: SERIALIZE
	// =========================================================================

	rows := SerializeTable(table)

	if c.options.DryRun {
		c.logger.Info("dry run, no output written", "rows", len(rows), "output", outputPath)
		return result, nil
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT
	// =========================================================================

	if _, err := csvio.WriteFile(outputPath, rows, c.options.CSV); err != nil {
		return result, fmt.Errorf("failed to write output: %w", err)
	}

	// =========================================================================
	// STEP 7: VERIFY
	// =========================================================================

	if c.options.Verify {
		if err := c.verify(outputPath, rows); err != nil {
			os.Remove(outputPath)
			return result, err
		}
	}

	result.Written = true
	c.logger.Info("extraction complete", "rows", len(rows), "output", outputPath)

	return result, nil
}

// selectTable applies the sheet and table selection to doc.
func (c *Converter) selectTable(doc *types.Document, result *Result) (*types.Table, error) {
	result.SheetCount = len(doc.Sheets)
	if len(doc.Sheets) == 0 {
		return nil, ErrEmptyDocument
	}
	c.logger.Info("found sheets", "count", len(doc.Sheets))

	sheetIndex := c.options.Selection.SheetIndex
	if sheetIndex < 0 || sheetIndex >= len(doc.Sheets) {
		return nil, fmt.Errorf("%w: index %d, document has %d sheet(s)", ErrSheetNotFound, sheetIndex, len(doc.Sheets))
	}
	sheet := &doc.Sheets[sheetIndex]
	result.SheetName = sheet.Name
	c.logger.Info("using sheet", "name", sheet.Name)

	result.TableCount = len(sheet.Tables)
	if len(sheet.Tables) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, sheet.Name)
	}
	c.logger.Info("found tables", "count", len(sheet.Tables))

	tableIndex := c.options.Selection.TableIndex
	if tableIndex < 0 || tableIndex >= len(sheet.Tables) {
		return nil, fmt.Errorf("%w: index %d, sheet %q has %d table(s)", ErrTableNotFound, tableIndex, sheet.Name, len(sheet.Tables))
	}
	table := &sheet.Tables[tableIndex]
	result.TableName = table.Name
	result.RowCount = table.RowCount()
	c.logger.Info("using table", "name", table.Name, "rows", table.RowCount(), "range", table.Range)

	return table, nil
}

// verify re-reads the written file and compares its record count.
func (c *Converter) verify(outputPath string, rows [][]string) error {
	records, err := csvio.ReadFile(outputPath, c.options.CSV)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}

	if len(records) != len(rows) {
		return fmt.Errorf("%w: read back %d rows, expected %d", ErrVerification, len(records), len(rows))
	}

	c.logger.Debug("output verified", "records", len(records))
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CheckInput returns ErrInputNotFound if inputPath does not exist.
func CheckInput(inputPath string) error {
	if !utils.FileExists(inputPath) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}
	return nil
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if infoA, err := os.Stat(a); err == nil {
		if infoB, err := os.Stat(b); err == nil {
			return os.SameFile(infoA, infoB)
		}
	}

	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
