package render

import (
	"math"
	"sort"
	"strings"
	"time"

	"pathexplorer/domain/result"
	"pathexplorer/internal/similarity"
)

// recordJSON is the shape of one record in the embedded dashboard payload.
type recordJSON struct {
	Key             string         `json:"key"`
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	FullName        string         `json:"full_name"`
	Database        string         `json:"database"`
	EntityType      string         `json:"entity_type"`
	Contrast        string         `json:"contrast"`
	Score           float64        `json:"nes"`
	SignedSig       float64        `json:"signed_sig"`
	Padj            float64        `json:"padj"`
	PValue          float64        `json:"pvalue"`
	SetSize         int            `json:"set_size"`
	LeadingEdgeSize int            `json:"leading_edge_size"`
	GeneCount       int            `json:"gene_count"`
	Direction       string         `json:"direction"`
	Hit             bool           `json:"hit"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Genes           string         `json:"genes"`
	Neighbors       []neighborJSON `json:"neighbors"`
}

type neighborJSON struct {
	Key        string  `json:"key"`
	Similarity float64 `json:"sim"`
}

// Metadata describes the dashboard as a whole; it is embedded alongside the
// records and shown in the sidebar.
type Metadata struct {
	Title        string         `json:"title"`
	Contrast     string         `json:"contrast"`
	Contrasts    []string       `json:"contrasts"`
	Databases    []string       `json:"databases"`
	EntityCounts map[string]int `json:"entity_types"`
	Method       string         `json:"embedding_method"`
	Seed         int64          `json:"seed"`
	TELevel      string         `json:"te_level"`
	TotalRecords int            `json:"total_records"`
	HitCount     int            `json:"hit_count"`
	DroppedRows  int            `json:"dropped_rows"`
	GeneratedAt  string         `json:"generated_at"`
}

// geneExportLimit caps how many member genes are embedded per record.
const geneExportLimit = 20

// buildPayload flattens records, coordinates and neighbors into the JSON
// structures embedded in the document, ordered by record key so identical
// inputs serialize identically.
func buildPayload(records []*result.ResultRecord, emb result.Embedding,
	neighbors map[result.RecordKey][]similarity.Neighbor) []recordJSON {

	ordered := make([]*result.ResultRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Key().String() < ordered[j].Key().String()
	})

	payload := make([]recordJSON, 0, len(ordered))
	for _, r := range ordered {
		key := r.Key()
		coord := emb[key]

		nbs := make([]neighborJSON, 0, len(neighbors[key]))
		for _, nb := range neighbors[key] {
			nbs = append(nbs, neighborJSON{Key: nb.Key.String(), Similarity: round3(nb.Similarity)})
		}

		payload = append(payload, recordJSON{
			Key:             key.String(),
			ID:              r.ID,
			Name:            r.DisplayName,
			FullName:        r.Name,
			Database:        r.Database,
			EntityType:      string(r.Kind),
			Contrast:        r.Contrast,
			Score:           round3(r.Score),
			SignedSig:       round3(r.SignedSig),
			Padj:            r.Padj,
			PValue:          r.PValue,
			SetSize:         r.SetSize,
			LeadingEdgeSize: r.LeadingEdgeSize,
			GeneCount:       len(r.Genes),
			Direction:       r.Direction,
			Hit:             r.Hit,
			X:               round4(coord.X),
			Y:               round4(coord.Y),
			Genes:           strings.Join(r.GeneList(geneExportLimit), "/"),
			Neighbors:       nbs,
		})
	}
	return payload
}

// NewMetadata assembles dashboard metadata from the final record set.
func NewMetadata(title, contrast string, records []*result.ResultRecord,
	method string, seed int64, teLevel string, droppedRows int) Metadata {

	dbSet := map[string]bool{}
	contrastSet := map[string]bool{}
	counts := map[string]int{}
	hits := 0
	for _, r := range records {
		dbSet[r.Database] = true
		contrastSet[r.Contrast] = true
		counts[string(r.Kind)]++
		if r.Hit {
			hits++
		}
	}
	dbs := make([]string, 0, len(dbSet))
	for db := range dbSet {
		dbs = append(dbs, db)
	}
	sort.Strings(dbs)
	contrasts := make([]string, 0, len(contrastSet))
	for c := range contrastSet {
		contrasts = append(contrasts, c)
	}
	sort.Strings(contrasts)

	return Metadata{
		Title:        title,
		Contrast:     contrast,
		Contrasts:    contrasts,
		Databases:    dbs,
		EntityCounts: counts,
		Method:       method,
		Seed:         seed,
		TELevel:      teLevel,
		TotalRecords: len(records),
		HitCount:     hits,
		DroppedRows:  droppedRows,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

func round3(v float64) float64 { return roundTo(v, 1000) }
func round4(v float64) float64 { return roundTo(v, 10000) }

func roundTo(v, scale float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*scale) / scale
}
