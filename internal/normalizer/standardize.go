package normalizer

import (
	"github.com/ginjaninja78/loanagg/internal/types"
)

// =============================================================================
// STANDARDIZATION TABLES
// =============================================================================

// DefaultStandardization is the canonical table for the loan-size export.
//
// Keys are in cleaned, lower-cased form because Normalize looks values up
// after cleaning. Every entry maps a canonical value to itself, so
// normalizing already-normalized data is a no-op.
//
// CUSTOMIZATION:
//   Merge extra synonyms from the `standardization` section of the config file
//   (see MergeTables), e.g. "owned" -> "own".
var DefaultStandardization = types.StandardizationTable{
	types.ColumnHomeOwnership: {
		"mortgage": "mortgage",
		"rent":     "rent",
		"own":      "own",
	},
	types.ColumnTerm: {
		"36 months": "36 months",
		"60 months": "60 months",
	},
}

// MergeTables returns a new table holding every entry of the given tables.
// Later tables win on conflicting (field, value) pairs. The inputs are not
// modified.
func MergeTables(tables ...types.StandardizationTable) types.StandardizationTable {
	merged := make(types.StandardizationTable)

	for _, table := range tables {
		for field, mappings := range table {
			if merged[field] == nil {
				merged[field] = make(map[string]string, len(mappings))
			}
			for from, to := range mappings {
				merged[field][from] = to
			}
		}
	}

	return merged
}

// CleanTable runs Clean over every lookup key so tables written by hand in
// configuration files ("MORTGAGE", " Rent ") match cleaned values.
// Replacement values are kept as written.
func CleanTable(table types.StandardizationTable) types.StandardizationTable {
	cleaned := make(types.StandardizationTable, len(table))

	for field, mappings := range table {
		cleaned[field] = make(map[string]string, len(mappings))
		for from, to := range mappings {
			cleaned[field][Clean(from)] = to
		}
	}

	return cleaned
}
