// =============================================================================
// sheet2csv - Main Entry Point
// =============================================================================
//
// sheet2csv extracts the first table of a spreadsheet document to CSV after
// checking that it is the expected table.
//
// USAGE:
//   sheet2csv <document> [-o output.csv]  - Extract the first table
//   sheet2csv version                     - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : Loader, validation, serialization and CSV output
//   - pkg/      : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sheet2csv/cmd"
)

func main() {
	cmd.Execute()
}
