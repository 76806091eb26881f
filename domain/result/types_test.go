package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizeScore(t *testing.T) {
	// -log10(0.01) = 2, signed by the score
	assert.InDelta(t, 2.0, StandardizeScore(1.5, 0.01), 1e-9)
	assert.InDelta(t, -2.0, StandardizeScore(-1.5, 0.01), 1e-9)

	// Zero score stays at zero regardless of significance
	assert.Equal(t, 0.0, StandardizeScore(0, 1e-20))
}

func TestStandardizeScore_Clamped(t *testing.T) {
	// Underflowed padj hits the floor and the cap, never infinity
	assert.Equal(t, SignedSigCap, StandardizeScore(2.0, 0))
	assert.Equal(t, -SignedSigCap, StandardizeScore(-2.0, 1e-300))
	assert.Equal(t, SignedSigCap, StandardizeScore(0.5, PadjFloor))
}

func TestStandardize_FillsDirection(t *testing.T) {
	up := &ResultRecord{Score: 1.2, Padj: 0.01}
	up.Standardize()
	assert.Equal(t, "Up", up.Direction)

	down := &ResultRecord{Score: -0.8, Padj: 0.01}
	down.Standardize()
	assert.Equal(t, "Down", down.Direction)

	kept := &ResultRecord{Score: 1.2, Padj: 0.01, Direction: "Mixed"}
	kept.Standardize()
	assert.Equal(t, "Mixed", kept.Direction)
}

func TestKindForDatabase(t *testing.T) {
	assert.Equal(t, KindTF, KindForDatabase("CollecTRI"))
	assert.Equal(t, KindProgeny, KindForDatabase("PROGENy"))
	assert.Equal(t, KindTE, KindForDatabase("TE_Family"))
	assert.Equal(t, KindTE, KindForDatabase("TE_Class"))
	assert.Equal(t, KindPathway, KindForDatabase("Hallmark"))
	assert.Equal(t, KindPathway, KindForDatabase("Reactome"))
}

func TestParseSourceKind(t *testing.T) {
	for raw, want := range map[string]SourceKind{
		"pathway": KindPathway,
		"GSEA":    KindPathway,
		"tf":      KindTF,
		"TF":      KindTF,
		"progeny": KindProgeny,
		"te":      KindTE,
	} {
		got, err := ParseSourceKind(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseSourceKind("chromatin")
	assert.Error(t, err)
}

func TestRecordKey_DistinctAcrossContrasts(t *testing.T) {
	a := ResultRecord{ID: "HALLMARK_HYPOXIA", Kind: KindPathway, Contrast: "KO_vs_WT"}
	b := ResultRecord{ID: "HALLMARK_HYPOXIA", Kind: KindPathway, Contrast: "Treated_vs_Control"}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, "HALLMARK_HYPOXIA|Pathway|KO_vs_WT", a.Key().String())
}

func TestGeneList_SortedAndCapped(t *testing.T) {
	r := ResultRecord{Genes: map[string]struct{}{"C": {}, "A": {}, "B": {}}}
	assert.Equal(t, []string{"A", "B", "C"}, r.GeneList(0))
	assert.Equal(t, []string{"A", "B"}, r.GeneList(2))
}
