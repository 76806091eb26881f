package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRecords() []*ResultRecord {
	return []*ResultRecord{
		{ID: "sig-up", Kind: KindPathway, Score: 2.0, Padj: 0.001},
		{ID: "sig-down", Kind: KindPathway, Score: -1.8, Padj: 0.04},
		{ID: "borderline", Kind: KindPathway, Score: 1.1, Padj: 0.051},
		{ID: "weak", Kind: KindTF, Score: 0.2, Padj: 0.01},
		{ID: "noise", Kind: KindTE, Score: 0.9, Padj: 0.6},
	}
}

func TestApplyThresholds_Defaults(t *testing.T) {
	records := testRecords()
	hits, background := ApplyThresholds(records, DefaultThresholds())

	assert.Equal(t, 3, hits)
	assert.Equal(t, 2, background)
	assert.Len(t, records, 5, "background records are kept, not removed")

	hit := map[string]bool{}
	for _, r := range records {
		hit[r.ID] = r.Hit
	}
	assert.True(t, hit["sig-up"])
	assert.True(t, hit["sig-down"])
	assert.True(t, hit["weak"])
	assert.False(t, hit["borderline"], "padj just above cutoff is background")
	assert.False(t, hit["noise"])
}

func TestApplyThresholds_PerKind(t *testing.T) {
	records := testRecords()
	cfg := DefaultThresholds()
	cfg.PerKind = map[SourceKind]KindThreshold{
		KindTF: {SignificanceCutoff: 0.05, MinScore: 0.5},
		KindTE: {SignificanceCutoff: 0.9, MinScore: 0},
	}

	ApplyThresholds(records, cfg)

	hit := map[string]bool{}
	for _, r := range records {
		hit[r.ID] = r.Hit
	}
	assert.False(t, hit["weak"], "TF score below its MinScore floor")
	assert.True(t, hit["noise"], "TE cutoff relaxed to 0.9")
	assert.True(t, hit["sig-up"], "pathway kind still uses the default")
}

func TestApplyThresholds_Idempotent(t *testing.T) {
	records := testRecords()
	cfg := DefaultThresholds()

	h1, b1 := ApplyThresholds(records, cfg)
	first := make([]bool, len(records))
	for i, r := range records {
		first[i] = r.Hit
	}

	h2, b2 := ApplyThresholds(records, cfg)
	assert.Equal(t, h1, h2)
	assert.Equal(t, b1, b2)
	for i, r := range records {
		assert.Equal(t, first[i], r.Hit)
	}
}

func TestApplyThresholds_TighterCutoffShrinksHits(t *testing.T) {
	records := testRecords()

	loose := DefaultThresholds()
	ApplyThresholds(records, loose)
	looseHits := map[string]bool{}
	for _, r := range Hits(records) {
		looseHits[r.ID] = true
	}

	tight := ThresholdConfig{Default: KindThreshold{SignificanceCutoff: 0.01}}
	ApplyThresholds(records, tight)
	for _, r := range Hits(records) {
		assert.True(t, looseHits[r.ID], "tightening thresholds must only remove hits, never add")
	}
}

func TestHits(t *testing.T) {
	records := testRecords()
	ApplyThresholds(records, DefaultThresholds())
	hits := Hits(records)
	assert.Len(t, hits, 3)
	for _, r := range hits {
		assert.True(t, r.Hit)
	}
}
