package ports

import "pathexplorer/domain/result"

// LoadReport accounts for what happened during a table load. The dropped-row
// count is reported exactly so callers can surface it to the analyst.
type LoadReport struct {
	File        string
	TotalRows   int
	LoadedRows  int
	DroppedRows int
	Unified     bool // input carried its own entity_type column
}

// TableReader loads standardized result tables into the common record schema.
// Implementations validate required columns up front and treat non-numeric
// scores as fatal schema errors, not skippable rows.
type TableReader interface {
	// Read loads every record in the table.
	Read() ([]*result.ResultRecord, *LoadReport, error)

	// Contrasts lists the distinct contrast names present in the table
	// without materializing full records.
	Contrasts() ([]string, error)
}
