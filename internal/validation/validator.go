// =============================================================================
// sheet2csv - Structural Validation
// =============================================================================
//
// This module guards against exporting the wrong table. Two independent
// checks are run before any output is written:
//
//   1. Header check: the first rows of the table must mention one of the
//      expected header keywords ("week number", "week ending").
//   2. Formula placement check: formulas may only appear in the bottom row
//      (the totals row). A bottom row without formulas is accepted.
//
// Both checks are pure functions of the table. They return an informational
// message on success and a *ValidationError on failure. The Validator runs
// them in order and stops at the first failure.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sheet2csv/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Kind identifies which check produced a ValidationError.
type Kind string

const (
	// KindHeader is a failed header keyword check.
	KindHeader Kind = "header"

	// KindFormula is a formula found outside the bottom row.
	KindFormula Kind = "formula"
)

var (
	// ErrHeaderCheck matches any header check failure via errors.Is.
	ErrHeaderCheck = errors.New("header check failed")

	// ErrFormulaCheck matches any formula placement failure via errors.Is.
	ErrFormulaCheck = errors.New("formula check failed")
)

// ValidationError describes a failed structural check.
type ValidationError struct {
	// Kind is the check that failed.
	Kind Kind

	// Message is a human-readable description of the failure.
	Message string

	// Texts holds the lowercased row texts inspected by the header check.
	Texts []string

	// Row and Column locate the offending cell of a formula check failure.
	// Both are 1-indexed; zero for header failures.
	Row    int
	Column int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindHeader:
		return fmt.Sprintf("%v: %s", ErrHeaderCheck, e.Message)
	case KindFormula:
		return fmt.Sprintf("%v: %s", ErrFormulaCheck, e.Message)
	default:
		return e.Message
	}
}

// Is lets errors.Is match a ValidationError against the check sentinels.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrHeaderCheck:
		return e.Kind == KindHeader
	case ErrFormulaCheck:
		return e.Kind == KindFormula
	}
	return false
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the header check.
type Options struct {
	// HeaderRows is the maximum number of leading rows inspected.
	// Default: 2
	HeaderRows int

	// HeaderKeywords are the lowercase substrings looked for in the header
	// rows. The check passes when any keyword is found in any inspected row.
	// Default: "week number", "week ending"
	HeaderKeywords []string
}

// DefaultHeaderKeywords are the keywords of a weekly log table.
var DefaultHeaderKeywords = []string{"week number", "week ending"}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{
		HeaderRows:     2,
		HeaderKeywords: append([]string(nil), DefaultHeaderKeywords...),
	}
}

func (o Options) withDefaults() Options {
	if o.HeaderRows <= 0 {
		o.HeaderRows = 2
	}
	if len(o.HeaderKeywords) == 0 {
		o.HeaderKeywords = append([]string(nil), DefaultHeaderKeywords...)
	}
	return o
}

// =============================================================================
// HEADER CHECK
// =============================================================================

// CheckHeaderRows checks that one of the first HeaderRows rows contains an
// expected header keyword.
//
// Each inspected row is reduced to the string form of its cells (empty for
// null cells) joined by single spaces and lowercased.
//
// RETURNS:
//   - An informational message on success.
//   - A *ValidationError of kind KindHeader on failure. The message quotes
//     the inspected texts.
func CheckHeaderRows(table *types.Table, opts Options) (string, error) {
	opts = opts.withDefaults()

	if len(table.Rows) < 1 {
		return "", &ValidationError{Kind: KindHeader, Message: "Table has no rows"}
	}

	texts := make([]string, 0, opts.HeaderRows)
	for i := 0; i < min(opts.HeaderRows, len(table.Rows)); i++ {
		texts = append(texts, RowText(table.Rows[i]))
	}

	matched := make([]string, 0, len(opts.HeaderKeywords))
	for _, keyword := range opts.HeaderKeywords {
		keyword = strings.ToLower(keyword)
		for _, text := range texts {
			if strings.Contains(text, keyword) {
				matched = append(matched, keyword)
				break
			}
		}
	}

	if len(matched) == 0 {
		return "", &ValidationError{
			Kind:  KindHeader,
			Texts: texts,
			Message: fmt.Sprintf("header rows don't contain %s. Found: [%s]",
				quoteList(opts.HeaderKeywords, " or "), quoteList(texts, ", ")),
		}
	}

	return fmt.Sprintf("Header check passed: matched %s", quoteList(matched, ", ")), nil
}

// RowText is the lowercased, space-joined string form of a row.
func RowText(row types.Row) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		parts[i] = cell.Text()
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// =============================================================================
// FORMULA PLACEMENT CHECK
// =============================================================================

// CheckFormulasOnlyInBottomRow checks that no row except the last contains a
// formula. Tables with fewer than two rows pass without inspection.
//
// RETURNS:
//   - An informational message on success, noting whether the bottom row
//     has formulas.
//   - A *ValidationError of kind KindFormula naming the first offending
//     cell (1-indexed, row-major order).
func CheckFormulasOnlyInBottomRow(table *types.Table) (string, error) {
	if len(table.Rows) < 2 {
		return "Table has fewer than 2 rows, skipping formula check", nil
	}

	last := len(table.Rows) - 1
	for rowIdx, row := range table.Rows[:last] {
		for colIdx, cell := range row {
			if cell.HasFormula() {
				return "", &ValidationError{
					Kind:   KindFormula,
					Row:    rowIdx + 1,
					Column: colIdx + 1,
					Message: fmt.Sprintf("formula found in row %d, column %d (expected only in bottom row)",
						rowIdx+1, colIdx+1),
				}
			}
		}
	}

	for _, cell := range table.Rows[last] {
		if cell.HasFormula() {
			return "Formula check passed: formulas only in bottom row", nil
		}
	}
	return "No formulas found in bottom row (this might be okay)", nil
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs the structural checks in order.
type Validator struct {
	options Options
}

// NewValidator creates a Validator using the given options.
func NewValidator(options Options) *Validator {
	return &Validator{options: options.withDefaults()}
}

// Result holds the informational messages of the checks that ran.
type Result struct {
	HeaderMessage  string
	FormulaMessage string
}

// Run runs the header check and then the formula check. The formula check
// does not run if the header check fails.
func (v *Validator) Run(table *types.Table) (*Result, error) {
	result := &Result{}

	msg, err := CheckHeaderRows(table, v.options)
	if err != nil {
		return result, err
	}
	result.HeaderMessage = msg

	msg, err = CheckFormulasOnlyInBottomRow(table)
	if err != nil {
		return result, err
	}
	result.FormulaMessage = msg

	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// quoteList quotes each value and joins them with sep.
func quoteList(values []string, sep string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, sep)
}
