package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pathexplorer/domain/core"
	"pathexplorer/domain/result"
	"pathexplorer/internal/similarity"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer produces self-contained HTML dashboards. The rendered document
// embeds all data and visualization logic inline; opening it requires no
// server and no network access.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Dashboard is the write-once snapshot handed to the renderer: final
// records, their coordinates, neighbor edges and the configuration used.
type Dashboard struct {
	Records   []*result.ResultRecord
	Embedding result.Embedding
	Neighbors map[result.RecordKey][]similarity.Neighbor
	Meta      Metadata

	// NotesMarkdown is an optional analyst-notes document rendered into
	// the dashboard sidebar.
	NotesMarkdown []byte
}

// templateData is what the dashboard template executes against.
type templateData struct {
	Title           string
	Meta            Metadata
	Empty           bool
	PayloadJSON     template.JS
	MetaJSON        template.JS
	DBColorsJSON    template.JS
	ScoreColorsJSON template.JS
	ScoreColorMax   float64
	NESColorMax     float64
	NotesHTML       template.HTML
}

// Render produces the complete HTML document in memory. Rendering to a
// buffer first means a template failure can never leave a partial file.
func (r *Renderer) Render(d Dashboard) ([]byte, error) {
	payload := buildPayload(d.Records, d.Embedding, d.Neighbors)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dashboard payload: %w", err)
	}
	metaJSON, err := json.Marshal(d.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dashboard metadata: %w", err)
	}
	// Resolve a color for every database actually present, so the
	// embedded JS never sees an unmapped database.
	dbColors := make(map[string]string, len(d.Meta.Databases))
	for _, db := range d.Meta.Databases {
		dbColors[db] = ColorForDatabase(db)
	}
	dbColorsJSON, _ := json.Marshal(dbColors)
	scoreColorsJSON, _ := json.Marshal(ScoreColors)

	data := templateData{
		Title:           d.Meta.Title,
		Meta:            d.Meta,
		Empty:           len(d.Records) == 0,
		PayloadJSON:     template.JS(payloadJSON),
		MetaJSON:        template.JS(metaJSON),
		DBColorsJSON:    template.JS(dbColorsJSON),
		ScoreColorsJSON: template.JS(scoreColorsJSON),
		ScoreColorMax:   ScoreColorMax,
		NESColorMax:     NESColorMax,
		NotesHTML:       renderNotes(d.NotesMarkdown),
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "dashboard.html.tmpl", data); err != nil {
		return nil, fmt.Errorf("dashboard template failed: %w", err)
	}
	if !strings.Contains(buf.String(), "</html>") {
		return nil, fmt.Errorf("rendered dashboard appears truncated (missing </html>)")
	}
	return buf.Bytes(), nil
}

// WriteFile renders the dashboard and writes it atomically: the document is
// staged in a temp file in the destination directory and renamed into
// place, so the caller either sees a complete valid file or no file.
func (r *Renderer) WriteFile(path string, d Dashboard) error {
	html, err := r.Render(d)
	if err != nil {
		return err
	}
	return atomicWrite(path, html)
}

// IndexEntry is one row of the batch index page.
type IndexEntry struct {
	Contrast string
	File     string
	Records  int
	Hits     int
}

// WriteIndex writes the index.html page linking every contrast dashboard
// generated by a batch run.
func (r *Renderer) WriteIndex(path string, entries []IndexEntry) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index.html.tmpl", entries); err != nil {
		return fmt.Errorf("index template failed: %w", err)
	}
	return atomicWrite(path, buf.Bytes())
}

func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.NewOutputWriteError(path, err)
	}
	tmp, err := os.CreateTemp(dir, ".pathexplorer-*.html")
	if err != nil {
		return core.NewOutputWriteError(path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return core.NewOutputWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return core.NewOutputWriteError(path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return core.NewOutputWriteError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return core.NewOutputWriteError(path, err)
	}
	log.Printf("[Renderer] Wrote %s (%d bytes)", path, len(content))
	return nil
}

// renderNotes converts the optional analyst-notes markdown to HTML.
func renderNotes(md []byte) template.HTML {
	if len(md) == 0 {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	out := markdown.ToHTML(md, p, renderer)
	return template.HTML(out)
}
