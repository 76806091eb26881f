package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathexplorer/domain/core"
	"pathexplorer/domain/result"
	"pathexplorer/internal/embedding"
	"pathexplorer/internal/similarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func sampleDashboard(t *testing.T) Dashboard {
	t.Helper()
	mk := func(id string, kind result.SourceKind, db string, score, padj float64, members ...string) *result.ResultRecord {
		genes := map[string]struct{}{}
		for _, g := range members {
			genes[g] = struct{}{}
		}
		r := &result.ResultRecord{
			ID: id, Name: id, DisplayName: id, Kind: kind, Database: db,
			Contrast: "KO_vs_WT", Score: score, Padj: padj, PValue: padj,
			SetSize: len(genes), Genes: genes,
		}
		r.Standardize()
		return r
	}
	records := []*result.ResultRecord{
		mk("HALLMARK_HYPOXIA", result.KindPathway, "Hallmark", 2.1, 0.001, "VEGFA", "SLC2A1", "PGK1"),
		mk("HALLMARK_GLYCOLYSIS", result.KindPathway, "Hallmark", 1.8, 0.01, "SLC2A1", "PGK1", "PKM"),
		mk("STAT3", result.KindTF, "CollecTRI", -1.4, 0.2, "VEGFA", "SOCS3"),
	}
	result.ApplyThresholds(records, result.DefaultThresholds())

	m, ok := similarity.Compute(records)
	require.True(t, ok)
	neighbors := similarity.TopNeighbors(m, 5, 0.1)
	emb := embedding.Project(records, m, embedding.DefaultConfig())

	return Dashboard{
		Records:   records,
		Embedding: emb,
		Neighbors: neighbors,
		Meta:      NewMetadata("Pathway Explorer - KO_vs_WT", "KO_vs_WT", records, "force", 42, "family", 1),
	}
}

func payloadFrom(t *testing.T, html string) string {
	t.Helper()
	const marker = "const RAW_DATA = "
	start := strings.Index(html, marker)
	require.GreaterOrEqual(t, start, 0, "embedded payload not found")
	rest := html[start+len(marker):]
	end := strings.Index(rest, ";\n")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestRender_SelfContainedDocument(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render(sampleDashboard(t))
	require.NoError(t, err)

	doc := string(html)
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "</html>")
	assert.NotContains(t, doc, "http://", "document must not reference external resources")
	assert.NotContains(t, doc, "https://", "document must not reference external resources")
	assert.Contains(t, doc, "Pathway Explorer - KO_vs_WT")
}

func TestRender_PayloadContent(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	html, err := r.Render(sampleDashboard(t))
	require.NoError(t, err)

	payload := payloadFrom(t, string(html))
	require.True(t, gjson.Valid(payload))

	records := gjson.Parse(payload)
	assert.Equal(t, int64(3), records.Get("#").Int())

	// Sorted by key, so GLYCOLYSIS comes first
	first := records.Get("0")
	assert.Equal(t, "HALLMARK_GLYCOLYSIS", first.Get("id").String())
	assert.Equal(t, "Pathway", first.Get("entity_type").String())
	assert.True(t, first.Get("hit").Bool())
	assert.True(t, first.Get("x").Exists())
	assert.True(t, first.Get("y").Exists())
	assert.Equal(t, int64(2), first.Get("signed_sig").Int())

	stat3 := records.Get(`#(id=="STAT3")`)
	assert.False(t, stat3.Get("hit").Bool(), "background record carried with hit=false")
	assert.True(t, stat3.Get("neighbors.#").Exists())
}

func TestRender_EmptyState(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render(Dashboard{
		Meta: NewMetadata("Pathway Explorer", "All", nil, "force", 42, "family", 0),
	})
	require.NoError(t, err)

	doc := string(html)
	assert.Contains(t, doc, "</html>", "empty dashboard is still a complete document")
	assert.Contains(t, doc, "No records", "empty state is explicit, not a blank canvas")
}

func TestRender_NotesMarkdown(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	d := sampleDashboard(t)
	d.NotesMarkdown = []byte("## Methods\n\nSamples were *paired*.")
	html, err := r.Render(d)
	require.NoError(t, err)

	doc := string(html)
	assert.Contains(t, doc, "<h2")
	assert.Contains(t, doc, "<em>paired</em>")
}

func TestWriteFile_Atomic(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "dashboard.html")
	require.NoError(t, r.WriteFile(path, sampleDashboard(t)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "</html>")

	// No stray temp files left in the destination directory
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_FailureLeavesNoFile(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	// Destination parent is a regular file, so staging must fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, "dashboard.html")

	err = r.WriteFile(path, sampleDashboard(t))
	require.Error(t, err)
	assert.True(t, core.IsOutputWriteError(err))
	_, statErr := os.Stat(path)
	assert.Error(t, statErr, "no partial file may appear")
}

func TestWriteIndex(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.html")
	entries := []IndexEntry{
		{Contrast: "KO_vs_WT", File: "pathway_explorer_KO_vs_WT.html", Records: 120, Hits: 34},
		{Contrast: "Treated_vs_Control", File: "pathway_explorer_Treated_vs_Control.html", Records: 98, Hits: 12},
	}
	require.NoError(t, r.WriteIndex(path, entries))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(content)
	assert.Contains(t, doc, "pathway_explorer_KO_vs_WT.html")
	assert.Contains(t, doc, "34 hits / 120 records")
}

func TestColorForDatabase(t *testing.T) {
	assert.Equal(t, DatabaseColors["Hallmark"], ColorForDatabase("Hallmark"))
	assert.Equal(t, fallbackColor, ColorForDatabase("SomethingNew"))
}

func TestRender_UnknownDatabaseGetsFallbackColor(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	d := sampleDashboard(t)
	for _, rec := range d.Records {
		if rec.Database == "CollecTRI" {
			rec.Database = "CustomAtlas"
		}
	}
	d.Meta = NewMetadata(d.Meta.Title, d.Meta.Contrast, d.Records, "force", 42, "family", 0)

	html, err := r.Render(d)
	require.NoError(t, err)

	doc := string(html)
	assert.Contains(t, doc, `"CustomAtlas":"`+fallbackColor+`"`)
	assert.Contains(t, doc, `"Hallmark":"`+DatabaseColors["Hallmark"]+`"`)
}
