// =============================================================================
// Loan Aggregator - Main Entry Point
// =============================================================================
//
// USAGE:
//   loanagg summarize   - Total loan balances per grade
//   loanagg values      - List the distinct values of a field
//   loanagg validate    - Check configuration and exports
//   loanagg version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, cleaning, aggregation and reporting
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/loanagg/cmd"
)

func main() {
	cmd.Execute()
}
