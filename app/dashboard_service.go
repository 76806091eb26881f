package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pathexplorer/adapters/tables"
	"pathexplorer/domain/core"
	"pathexplorer/domain/result"
	"pathexplorer/domain/run"
	"pathexplorer/internal/aggregate"
	"pathexplorer/internal/embedding"
	"pathexplorer/internal/render"
	"pathexplorer/internal/similarity"
	"pathexplorer/ports"

	"golang.org/x/sync/semaphore"
)

// combinedLabel names the all-contrasts view.
const combinedLabel = "All"

// DashboardService drives the pipeline Loading -> Filtering ->
// (Aggregating) -> Embedding -> Rendering for one contrast or for all of
// them.
type DashboardService struct {
	cfg      Config
	renderer *render.Renderer
	registry ports.RunRegistry // nil disables provenance recording
}

// NewDashboardService validates the config and prepares the renderer.
func NewDashboardService(cfg Config, registry ports.RunRegistry) (*DashboardService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	return &DashboardService{cfg: cfg, renderer: renderer, registry: registry}, nil
}

// Contrasts lists the contrast names available in the input tables.
func (s *DashboardService) Contrasts() ([]string, error) {
	if s.cfg.DataPath != "" {
		return tables.NewDataReader(s.cfg.DataPath).Contrasts()
	}
	records, _, err := tables.LoadTables(s.cfg.LegacyTables)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, r := range records {
		if r.Contrast != "" {
			seen[r.Contrast] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// read loads records from the unified table, or from the legacy per-source
// tables when no unified path is configured.
func (s *DashboardService) read() ([]*result.ResultRecord, *ports.LoadReport, error) {
	if s.cfg.DataPath != "" {
		return tables.NewDataReader(s.cfg.DataPath).Read()
	}
	records, reports, err := tables.LoadTables(s.cfg.LegacyTables)
	if err != nil {
		return nil, nil, err
	}
	combined := &ports.LoadReport{}
	for _, rep := range reports {
		combined.TotalRows += rep.TotalRows
		combined.LoadedRows += rep.LoadedRows
		combined.DroppedRows += rep.DroppedRows
	}
	return records, combined, nil
}

// Generate runs the pipeline for one contrast. An empty contrast name
// produces the combined all-contrasts view. The returned Run carries the
// output path on success and the failing stage on error.
func (s *DashboardService) Generate(ctx context.Context, contrast string) (*run.Run, error) {
	label := contrast
	if label == "" {
		label = combinedLabel
	}
	r := run.NewRun(label, s.cfg.Embedding.Seed, string(s.cfg.Embedding.Method))
	err := s.execute(ctx, r, contrast)
	s.record(ctx, r)
	return r, err
}

func (s *DashboardService) execute(ctx context.Context, r *run.Run, contrast string) error {
	// Loading
	records, report, err := s.load(contrast)
	if err != nil {
		return r.Fail(err)
	}
	r.RecordCount = len(records)

	// Filtering
	r.Advance(run.StageFiltering)
	hits, background := result.ApplyThresholds(records, s.cfg.Thresholds)
	r.HitCount = hits
	log.Printf("[Pipeline] %s: %d hits, %d background", r.Contrast, hits, background)

	// Aggregating applies only to the combined view; per-contrast runs
	// embed their own records directly.
	if contrast == "" {
		r.Advance(run.StageAggregating)
		records = aggregate.Union(aggregate.SplitByContrast(records, combinedLabel))
	}

	// Embedding
	r.Advance(run.StageEmbedding)
	matrix, neighbors := s.embedInputs(records)
	emb := embedding.Project(records, matrix, s.cfg.Embedding)

	// Rendering
	r.Advance(run.StageRendering)
	droppedRows := 0
	if report != nil {
		droppedRows = report.DroppedRows
	}
	meta := render.NewMetadata(s.title(r.Contrast), r.Contrast, records,
		string(s.cfg.Embedding.Method), s.cfg.Embedding.Seed, s.cfg.TELevel, droppedRows)

	notes, err := s.loadNotes()
	if err != nil {
		return r.Fail(err)
	}

	outputPath := s.outputPath(contrast)
	dashboard := render.Dashboard{
		Records:       records,
		Embedding:     emb,
		Neighbors:     neighbors,
		Meta:          meta,
		NotesMarkdown: notes,
	}
	if err := s.renderer.WriteFile(outputPath, dashboard); err != nil {
		return r.Fail(err)
	}

	r.Complete(outputPath)
	log.Printf("[Pipeline] %s: dashboard written to %s (%s)", r.Contrast, outputPath, r.Duration().Round(time.Millisecond))
	return nil
}

// load reads the input table and applies contrast, kind, and TE-level
// selection. A requested contrast that does not exist is fatal; an empty
// record set is not (the renderer shows an explicit empty state).
func (s *DashboardService) load(contrast string) ([]*result.ResultRecord, *ports.LoadReport, error) {
	records, report, err := s.read()
	if err != nil {
		return nil, nil, err
	}

	if contrast != "" {
		available := map[string]bool{}
		selected := records[:0]
		for _, rec := range records {
			available[rec.Contrast] = true
			if rec.Contrast == contrast {
				selected = append(selected, rec)
			}
		}
		if len(selected) == 0 {
			names := make([]string, 0, len(available))
			for name := range available {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, nil, core.NewContrastNotFoundError(contrast, names)
		}
		records = selected
	}

	teDatabase := map[string]string{"family": "TE_Family", "class": "TE_Class"}[s.cfg.TELevel]
	kept := records[:0]
	for _, rec := range records {
		if !s.cfg.wantsKind(rec.Kind) {
			continue
		}
		if rec.Kind == result.KindTE && teDatabase != "" && rec.Database != teDatabase {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		log.Printf("[Pipeline] no records left after filtering; rendering empty state")
	}
	return kept, report, nil
}

// embedInputs computes similarity with the documented fallback chain:
// gene-set overlap, then score-profile correlation, then none (the
// projection degrades to a score-ordered axis).
func (s *DashboardService) embedInputs(records []*result.ResultRecord) (*similarity.Matrix, map[result.RecordKey][]similarity.Neighbor) {
	if len(records) < 2 {
		return nil, nil
	}
	matrix, ok := similarity.Compute(records)
	if !ok {
		log.Printf("[Pipeline] No gene-set membership available, trying score-profile correlation")
		matrix, ok = similarity.ComputeFromProfiles(records, records)
	}
	if !ok {
		log.Printf("[Pipeline] Similarity unavailable, records will be placed on a score axis")
		return nil, nil
	}
	return matrix, similarity.TopNeighbors(matrix, s.cfg.NeighborCount, s.cfg.MinEdgeSimilarity)
}

// GenerateAll runs an isolated pipeline per contrast concurrently, then
// writes an index page linking the dashboards that succeeded. One
// contrast's failure never aborts the others; the joined error reports
// every failure at the end.
func (s *DashboardService) GenerateAll(ctx context.Context) ([]*run.Run, error) {
	contrasts, err := s.Contrasts()
	if err != nil {
		return nil, err
	}
	if len(contrasts) == 0 {
		return nil, fmt.Errorf("%w: input table has no contrast column, cannot batch", core.ErrContrastNotFound)
	}
	log.Printf("[Pipeline] Generating dashboards for %d contrasts with %d workers", len(contrasts), s.cfg.Workers)

	sem := semaphore.NewWeighted(int64(s.cfg.Workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	runs := make([]*run.Run, 0, len(contrasts))
	var failures []error

	for _, contrast := range contrasts {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return runs, err
		}
		wg.Add(1)
		go func(contrast string) {
			defer wg.Done()
			defer sem.Release(1)
			r, err := s.Generate(ctx, contrast)
			mu.Lock()
			defer mu.Unlock()
			runs = append(runs, r)
			if err != nil {
				log.Printf("[Pipeline] %s FAILED: %v", contrast, err)
				failures = append(failures, fmt.Errorf("%s: %w", contrast, err))
			}
		}(contrast)
	}
	wg.Wait()

	sort.Slice(runs, func(i, j int) bool { return runs[i].Contrast < runs[j].Contrast })

	entries := make([]render.IndexEntry, 0, len(runs))
	for _, r := range runs {
		if r.Status != run.StatusDone {
			continue
		}
		entries = append(entries, render.IndexEntry{
			Contrast: r.Contrast,
			File:     filepath.Base(r.OutputPath),
			Records:  r.RecordCount,
			Hits:     r.HitCount,
		})
	}
	if len(entries) > 0 {
		indexPath := filepath.Join(s.cfg.OutputDir, "index.html")
		if err := s.renderer.WriteIndex(indexPath, entries); err != nil {
			failures = append(failures, err)
		} else {
			log.Printf("[Pipeline] Index page written to %s", indexPath)
		}
	}

	return runs, errors.Join(failures...)
}

// History returns recent runs from the registry, when one is configured.
func (s *DashboardService) History(ctx context.Context, limit int) ([]*run.Run, error) {
	if s.registry == nil {
		return nil, nil
	}
	return s.registry.History(ctx, limit)
}

func (s *DashboardService) record(ctx context.Context, r *run.Run) {
	if s.registry == nil {
		return
	}
	// Provenance is best-effort; a registry problem never fails a run.
	if err := s.registry.Record(ctx, r); err != nil {
		log.Printf("[Registry] Failed to record run %s: %v", r.ID, err)
	}
}

func (s *DashboardService) loadNotes() ([]byte, error) {
	if s.cfg.NotesPath == "" {
		return nil, nil
	}
	notes, err := os.ReadFile(s.cfg.NotesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes file: %w", err)
	}
	return notes, nil
}

func (s *DashboardService) outputPath(contrast string) string {
	// Batch mode never sets OutputPath, so an explicit path always wins.
	if s.cfg.OutputPath != "" {
		return s.cfg.OutputPath
	}
	name := "pathway_explorer.html"
	if contrast != "" {
		name = fmt.Sprintf("pathway_explorer_%s.html", sanitizeName(contrast))
	}
	return filepath.Join(s.cfg.OutputDir, name)
}

func (s *DashboardService) title(contrast string) string {
	if contrast == combinedLabel {
		return "Pathway Explorer"
	}
	return "Pathway Explorer - " + contrast
}

// sanitizeName keeps contrast-derived file names filesystem-safe.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
