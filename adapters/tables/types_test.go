package tables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnIndex_Aliases(t *testing.T) {
	header := []string{"ID", "Description", "NES", "adj.P.Val", "p.value", "Source", "Comparison"}
	idx := columnIndex(header)

	assert.Equal(t, 0, idx[colID])
	assert.Equal(t, 1, idx[colName])
	assert.Equal(t, 2, idx[colScore])
	assert.Equal(t, 3, idx[colPadj])
	assert.Equal(t, 4, idx[colPValue])
	assert.Equal(t, 5, idx[colDatabase])
	assert.Equal(t, 6, idx[colContrast])
}

func TestColumnIndex_MissingColumns(t *testing.T) {
	idx := columnIndex([]string{"pathway_id", "nes"})
	_, hasName := idx[colName]
	assert.False(t, hasName)
	_, hasPadj := idx[colPadj]
	assert.False(t, hasPadj)
}

func TestCleanDisplayName(t *testing.T) {
	assert.Equal(t, "Hallmark Hypoxia", CleanDisplayName("HALLMARK_HYPOXIA"))
	assert.Equal(t, "Tnfa Signaling Via Nfkb", CleanDisplayName("TNFA_SIGNALING_VIA_NFKB"))
	assert.Equal(t, "Unknown", CleanDisplayName("   "))
}

func TestCleanDisplayName_Truncates(t *testing.T) {
	long := strings.Repeat("REGULATION_", 10)
	cleaned := CleanDisplayName(long)
	assert.Len(t, cleaned, displayNameMax)
	assert.True(t, strings.HasSuffix(cleaned, "..."))
}

func TestReclassifyDatabase(t *testing.T) {
	assert.Equal(t, "MitoPathways", ReclassifyDatabase("Mitochondria", "MITOPATHWAYS_OXPHOS"))
	assert.Equal(t, "MitoXplorer", ReclassifyDatabase("Mitochondria", "MITOXPLORER_FISSION"))
	assert.Equal(t, "Mitochondria", ReclassifyDatabase("Mitochondria", "UNPREFIXED_TERM"))
	assert.Equal(t, "Hallmark", ReclassifyDatabase("Hallmark", "MITOPATHWAYS_OXPHOS"))
}

func TestParseGeneSet(t *testing.T) {
	genes := ParseGeneSet("TP53/MYC/ BRCA1 /TP53")
	assert.Len(t, genes, 3)
	_, ok := genes["BRCA1"]
	assert.True(t, ok)

	assert.Empty(t, ParseGeneSet(""))
	assert.Empty(t, ParseGeneSet("NA"))
	assert.Empty(t, ParseGeneSet("nan"))
}
