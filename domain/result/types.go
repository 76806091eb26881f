package result

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SourceKind classifies what a scored record is: a gene-set enrichment
// pathway, an inferred transcription-factor activity, a PROGENy signaling
// pathway activity, or a transposable-element family activity.
type SourceKind string

const (
	KindPathway SourceKind = "Pathway"
	KindTF      SourceKind = "TF"
	KindProgeny SourceKind = "PROGENy"
	KindTE      SourceKind = "TE"
)

// AllKinds lists the recognized source kinds in display order.
func AllKinds() []SourceKind {
	return []SourceKind{KindPathway, KindTF, KindProgeny, KindTE}
}

// ParseSourceKind parses a source kind string (case-insensitive).
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pathway", "gsea":
		return KindPathway, nil
	case "tf":
		return KindTF, nil
	case "progeny":
		return KindProgeny, nil
	case "te":
		return KindTE, nil
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// KindForDatabase maps a source database label onto a SourceKind.
// CollecTRI carries TF activities, PROGENy its 14 signaling pathways,
// TE_* the transposable-element tables; everything else is a gene-set
// enrichment database.
func KindForDatabase(database string) SourceKind {
	switch {
	case database == "CollecTRI":
		return KindTF
	case database == "PROGENy":
		return KindProgeny
	case strings.HasPrefix(database, "TE_"):
		return KindTE
	default:
		return KindPathway
	}
}

// Shape returns the marker shape used for this kind in the dashboard.
func (k SourceKind) Shape() string {
	switch k {
	case KindTF:
		return "diamond"
	case KindProgeny:
		return "square"
	case KindTE:
		return "triangle"
	default:
		return "circle"
	}
}

// RecordKey uniquely identifies a record within a dashboard:
// identifier + kind + contrast. Identifiers may collide across contrasts
// in the combined view; the key keeps those instances distinct.
type RecordKey struct {
	ID       string
	Kind     SourceKind
	Contrast string
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.ID, k.Kind, k.Contrast)
}

// ResultRecord is one scored entity within one contrast.
type ResultRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"full_name"`
	DisplayName string     `json:"name"`
	Database    string     `json:"database"`
	Kind        SourceKind `json:"entity_type"`
	Contrast    string     `json:"contrast"`

	// Scores. Score is the normalized enrichment score for GSEA records
	// and the activity score for TF/PROGENy/TE records.
	Score     float64 `json:"nes"`
	PValue    float64 `json:"pvalue"`
	Padj      float64 `json:"padj"`
	SignedSig float64 `json:"signed_sig"`

	// Optional metadata
	SetSize         int    `json:"set_size"`
	LeadingEdgeSize int    `json:"leading_edge_size"`
	Direction       string `json:"direction"`

	// Member genes (or TE subfamilies) backing the score, used for
	// overlap similarity. May be empty.
	Genes map[string]struct{} `json:"-"`

	// Hit is a filter-derived flag: true when the record passes the
	// active thresholds, false when it is background.
	Hit bool `json:"hit"`
}

// Key returns the record's unique key within a dashboard.
func (r *ResultRecord) Key() RecordKey {
	return RecordKey{ID: r.ID, Kind: r.Kind, Contrast: r.Contrast}
}

// GeneList returns the member genes sorted, capped at limit (0 = all).
func (r *ResultRecord) GeneList(limit int) []string {
	genes := make([]string, 0, len(r.Genes))
	for g := range r.Genes {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	if limit > 0 && len(genes) > limit {
		genes = genes[:limit]
	}
	return genes
}

const (
	// SignedSigCap bounds the standardized score so extreme adjusted
	// p-values cannot dominate the color scale.
	SignedSigCap = 50.0

	// PadjFloor guards -log10 against zero adjusted p-values.
	PadjFloor = 1e-50
)

// StandardizeScore computes the unified signed significance used to compare
// GSEA, TF, PROGENy and TE records on one color scale:
//
//	signed_sig = -log10(max(padj, PadjFloor)) * sign(score)
//
// clamped to [-SignedSigCap, +SignedSigCap].
func StandardizeScore(score, padj float64) float64 {
	p := padj
	if p < PadjFloor {
		p = PadjFloor
	}
	s := -math.Log10(p)
	if score < 0 {
		s = -s
	} else if score == 0 {
		s = 0
	}
	if s > SignedSigCap {
		s = SignedSigCap
	}
	if s < -SignedSigCap {
		s = -SignedSigCap
	}
	return s
}

// Standardize fills the record's SignedSig and Direction from its scores.
func (r *ResultRecord) Standardize() {
	r.SignedSig = StandardizeScore(r.Score, r.Padj)
	if r.Direction == "" {
		if r.Score > 0 {
			r.Direction = "Up"
		} else {
			r.Direction = "Down"
		}
	}
}

// Contrast is a named comparison owning the records loaded for it.
// Immutable once loaded except for the records' filter-derived Hit flags.
type Contrast struct {
	Name    string
	Records []*ResultRecord
}

// Databases returns the sorted distinct source databases present.
func (c *Contrast) Databases() []string {
	seen := map[string]bool{}
	for _, r := range c.Records {
		seen[r.Database] = true
	}
	dbs := make([]string, 0, len(seen))
	for db := range seen {
		dbs = append(dbs, db)
	}
	sort.Strings(dbs)
	return dbs
}

// KindCounts returns the number of records per source kind.
func (c *Contrast) KindCounts() map[SourceKind]int {
	counts := map[SourceKind]int{}
	for _, r := range c.Records {
		counts[r.Kind]++
	}
	return counts
}

// Coord is a 2-D dashboard coordinate in [0,1] space.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Embedding maps each displayed record to its 2-D coordinate. Coordinates
// are only comparable within a single dashboard.
type Embedding map[RecordKey]Coord
