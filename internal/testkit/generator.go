package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pathexplorer/domain/result"
)

// GeneratorConfig configures the synthetic result-table generator.
type GeneratorConfig struct {
	Contrasts     []string
	PathwayCount  int
	TFCount       int
	ProgenyCount  int
	TECount       int
	GeneUniverse  int
	GenesPerSet   int
	// HitFraction controls how many records land under the significance
	// cutoff; the remainder get padj spread across (0.05, 1].
	HitFraction float64
	Seed        int64
}

// DefaultGeneratorConfig returns a small but structurally complete dataset:
// two contrasts, all four entity kinds, roughly a third of records
// significant.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Contrasts:    []string{"KO_vs_WT", "Treated_vs_Control"},
		PathwayCount: 30,
		TFCount:      10,
		ProgenyCount: 5,
		TECount:      8,
		GeneUniverse: 200,
		GenesPerSet:  15,
		HitFraction:  0.35,
		Seed:         42,
	}
}

// Generator produces deterministic synthetic pathway-analysis records for
// tests. Identical config yields identical records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the config.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

var pathwayDatabases = []string{"Hallmark", "KEGG", "Reactome", "GO_BP"}

// Generate builds records for every contrast in the config.
func (g *Generator) Generate() []*result.ResultRecord {
	universe := g.geneUniverse()
	var records []*result.ResultRecord
	for _, contrast := range g.cfg.Contrasts {
		for i := 0; i < g.cfg.PathwayCount; i++ {
			db := pathwayDatabases[i%len(pathwayDatabases)]
			id := fmt.Sprintf("%s_PATHWAY_%02d", strings.ToUpper(db), i)
			records = append(records, g.record(id, db, result.KindPathway, contrast, universe))
		}
		for i := 0; i < g.cfg.TFCount; i++ {
			id := fmt.Sprintf("TF_%02d", i)
			records = append(records, g.record(id, "CollecTRI", result.KindTF, contrast, universe))
		}
		for i := 0; i < g.cfg.ProgenyCount; i++ {
			id := fmt.Sprintf("PROGENY_%02d", i)
			records = append(records, g.record(id, "PROGENy", result.KindProgeny, contrast, universe))
		}
		for i := 0; i < g.cfg.TECount; i++ {
			id := fmt.Sprintf("TE_FAM_%02d", i)
			rec := g.record(id, "TE_Family", result.KindTE, contrast, universe)
			rec.Genes = map[string]struct{}{}
			records = append(records, rec)
		}
	}
	return records
}

func (g *Generator) geneUniverse() []string {
	genes := make([]string, g.cfg.GeneUniverse)
	for i := range genes {
		genes[i] = fmt.Sprintf("GENE%03d", i)
	}
	return genes
}

func (g *Generator) record(id, database string, kind result.SourceKind, contrast string, universe []string) *result.ResultRecord {
	score := g.rng.NormFloat64() * 1.5
	var padj float64
	if g.rng.Float64() < g.cfg.HitFraction {
		padj = math.Pow(10, -1.5-g.rng.Float64()*6) // well under 0.05
	} else {
		padj = 0.05 + g.rng.Float64()*0.95
	}
	if padj > 1 {
		padj = 1
	}

	genes := map[string]struct{}{}
	if len(universe) > 0 && g.cfg.GenesPerSet > 0 {
		for len(genes) < g.cfg.GenesPerSet {
			genes[universe[g.rng.Intn(len(universe))]] = struct{}{}
		}
	}

	direction := "Up"
	if score < 0 {
		direction = "Down"
	}
	rec := &result.ResultRecord{
		ID:              id,
		Name:            id,
		DisplayName:     id,
		Database:        database,
		Kind:            kind,
		Contrast:        contrast,
		Score:           score,
		PValue:          padj / 2,
		Padj:            padj,
		SetSize:         len(genes),
		LeadingEdgeSize: len(genes),
		Direction:       direction,
		Genes:           genes,
	}
	rec.Standardize()
	return rec
}

// WriteCSV writes the generated records as a unified result table the
// loader accepts, returning the file path.
func WriteCSV(dir, name string, records []*result.ResultRecord) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"pathway_id", "name", "database", "entity_type", "contrast",
		"nes", "pvalue", "padj", "set_size", "leading_edge_size", "direction", "core_enrichment"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			r.ID, r.Name, r.Database, string(r.Kind), r.Contrast,
			formatFloat(r.Score), formatFloat(r.PValue), formatFloat(r.Padj),
			strconv.Itoa(r.SetSize), strconv.Itoa(r.LeadingEdgeSize),
			r.Direction, strings.Join(r.GeneList(0), "/"),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
