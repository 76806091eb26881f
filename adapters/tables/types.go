package tables

import (
	"strings"
	"unicode"
)

// Canonical column names of the common record schema. Input tables from the
// upstream R pipeline are inconsistent about naming, so each canonical
// column carries a list of accepted aliases (matched case-insensitively).
const (
	colID        = "pathway_id"
	colName      = "pathway_name"
	colScore     = "nes"
	colPadj      = "padj"
	colPValue    = "pvalue"
	colDatabase  = "database"
	colContrast  = "contrast"
	colKind      = "entity_type"
	colSetSize   = "set_size"
	colLeading   = "leading_edge_size"
	colGenes     = "core_enrichment"
	colDirection = "direction"
)

// columnAliases maps canonical column names onto the header spellings seen
// in GSEA, decoupleR (TF/PROGENy) and TE-count exports.
var columnAliases = map[string][]string{
	colID:        {"pathway_id", "id", "term_id", "source_id"},
	colName:      {"pathway_name", "name", "term", "description"},
	colScore:     {"nes", "score", "activity", "activity_score", "logfc"},
	colPadj:      {"padj", "adj.p.val", "fdr", "qvalue", "p_adj"},
	colPValue:    {"pvalue", "p_value", "p.value", "pval"},
	colDatabase:  {"database", "source", "collection", "db"},
	colContrast:  {"contrast", "comparison"},
	colKind:      {"entity_type", "kind"},
	colSetSize:   {"set_size", "setsize", "size", "n_genes"},
	colLeading:   {"leading_edge_size", "leading_edge", "core_size"},
	colGenes:     {"core_enrichment", "genes", "leading_edge_genes", "members", "targets"},
	colDirection: {"direction"},
}

// requiredColumns must be present in every table; a missing one fails the
// load before any row is parsed.
var requiredColumns = []string{colID, colName, colScore, colPadj}

// columnIndex resolves a header row into canonical-column -> index.
func columnIndex(header []string) map[string]int {
	idx := map[string]int{}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			for i, h := range norm {
				if h == alias {
					if _, taken := idx[canonical]; !taken {
						idx[canonical] = i
					}
				}
			}
		}
	}
	return idx
}

const displayNameMax = 60

// CleanDisplayName prepares a raw pathway name for display: underscores
// become spaces, words are title-cased, and over-long names are truncated.
func CleanDisplayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unknown"
	}
	cleaned := titleCase(strings.ReplaceAll(name, "_", " "))
	if len(cleaned) > displayNameMax {
		cleaned = cleaned[:displayNameMax-3] + "..."
	}
	return cleaned
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReclassifyDatabase splits the generic Mitochondria collection into its
// actual sources based on the identifier prefix.
func ReclassifyDatabase(database, id string) string {
	if database != "Mitochondria" {
		return database
	}
	switch {
	case strings.HasPrefix(id, "MITOPATHWAYS_"):
		return "MitoPathways"
	case strings.HasPrefix(id, "MITOXPLORER_"):
		return "MitoXplorer"
	}
	return database
}

// ParseGeneSet splits a slash-delimited member-gene cell into a set.
// Empty, "NA" and "nan" cells yield an empty set.
func ParseGeneSet(cell string) map[string]struct{} {
	genes := map[string]struct{}{}
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "NA" || cell == "nan" {
		return genes
	}
	for _, g := range strings.Split(cell, "/") {
		g = strings.TrimSpace(g)
		if g != "" {
			genes[g] = struct{}{}
		}
	}
	return genes
}
