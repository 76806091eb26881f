package app

import (
	"fmt"
	"runtime"

	"pathexplorer/domain/result"
	"pathexplorer/internal/embedding"
	"pathexplorer/internal/similarity"
)

// Config is the fully-resolved, immutable configuration for dashboard
// generation. It is constructed once at startup and passed down through
// the pipeline; concurrent per-contrast runs share it read-only.
type Config struct {
	// DataPath points at the unified result table (.csv or .xlsx).
	DataPath string

	// LegacyTables maps per-source table files onto the kind their records
	// default to, the pre-unified layout where GSEA, TF and PROGENy results
	// live in separate master tables. Used when DataPath is empty.
	LegacyTables map[string]result.SourceKind

	// OutputDir receives generated dashboards in batch mode and when no
	// explicit OutputPath is given.
	OutputDir string

	// OutputPath overrides the derived output file path (single runs only).
	OutputPath string

	// Thresholds are the per-kind hit/background cutoffs.
	Thresholds result.ThresholdConfig

	// Embedding controls the projection method and seed.
	Embedding embedding.Config

	// TELevel selects which transposable-element aggregation level to
	// keep: "family" (default), "class", or "all".
	TELevel string

	// Kinds restricts the dashboard to the listed source kinds.
	// Empty means all kinds.
	Kinds []result.SourceKind

	// NotesPath optionally names a Markdown file rendered into the
	// dashboard as analyst notes.
	NotesPath string

	// NeighborCount and MinEdgeSimilarity tune neighbor extraction.
	NeighborCount     int
	MinEdgeSimilarity float64

	// Workers bounds batch-mode concurrency.
	Workers int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	return Config{
		OutputDir:         "interactive",
		Thresholds:        result.DefaultThresholds(),
		Embedding:         embedding.DefaultConfig(),
		TELevel:           "family",
		NeighborCount:     similarity.DefaultNeighborCount,
		MinEdgeSimilarity: similarity.DefaultMinEdgeSimilarity,
		Workers:           workers,
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.DataPath == "" && len(c.LegacyTables) == 0 {
		return fmt.Errorf("config: a unified data path or legacy per-source tables are required")
	}
	switch c.TELevel {
	case "family", "class", "all":
	default:
		return fmt.Errorf("config: invalid TE level %q (want family, class or all)", c.TELevel)
	}
	if _, ok := embedding.ParseMethod(string(c.Embedding.Method)); !ok {
		return fmt.Errorf("config: unknown embedding method %q", c.Embedding.Method)
	}
	return nil
}

// wantsKind reports whether records of the given kind are included.
func (c Config) wantsKind(k result.SourceKind) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, kind := range c.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}
