package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"pathexplorer/adapters/sqlite"
	"pathexplorer/app"
	"pathexplorer/domain/result"
	"pathexplorer/internal/embedding"
	"pathexplorer/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional .env for local defaults (EXPLORER_DATA, EXPLORER_REGISTRY).
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "explorer",
		Short: "Generate self-contained interactive dashboards from pathway analysis tables",
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newAllCmd(),
		newContrastsCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// pipelineFlags binds the shared pipeline flags onto a command and returns
// a loader that resolves them into a config.
func pipelineFlags(cmd *cobra.Command) func() (app.Config, error) {
	defaults := app.DefaultConfig()

	var (
		dataPath    string
		gseaPath    string
		tfPath      string
		progenyPath string
		tePath      string
		outputDir   string
		seed        int64
		method      string
		teLevel     string
		entityTypes []string
		notesPath   string
		fdr         float64
		minScore    float64
		workers     int
	)

	cmd.Flags().StringVar(&dataPath, "data", os.Getenv("EXPLORER_DATA"), "Unified result table (.csv or .xlsx)")
	cmd.Flags().StringVar(&gseaPath, "gsea", "", "Legacy GSEA master table (used when --data is absent)")
	cmd.Flags().StringVar(&tfPath, "tf", "", "Legacy TF-activity master table (used when --data is absent)")
	cmd.Flags().StringVar(&progenyPath, "progeny", "", "Legacy PROGENy master table (used when --data is absent)")
	cmd.Flags().StringVar(&tePath, "te", "", "Legacy TE-activity master table (used when --data is absent)")
	cmd.Flags().StringVar(&outputDir, "output-dir", defaults.OutputDir, "Directory for generated dashboards")
	cmd.Flags().Int64Var(&seed, "seed", defaults.Embedding.Seed, "Random seed for deterministic layouts")
	cmd.Flags().StringVar(&method, "method", string(defaults.Embedding.Method), "Projection method: force, pca or score")
	cmd.Flags().StringVar(&teLevel, "te-level", defaults.TELevel, "TE aggregation level: family, class or all")
	cmd.Flags().StringSliceVar(&entityTypes, "entity-types", nil, "Restrict to entity types (pathway,tf,progeny,te)")
	cmd.Flags().StringVar(&notesPath, "notes", "", "Markdown notes file embedded into the dashboard")
	cmd.Flags().Float64Var(&fdr, "fdr", defaults.Thresholds.Default.SignificanceCutoff, "Significance cutoff on adjusted p-value")
	cmd.Flags().Float64Var(&minScore, "min-score", defaults.Thresholds.Default.MinScore, "Minimum absolute score for hits")
	cmd.Flags().IntVar(&workers, "workers", defaults.Workers, "Concurrent contrasts in batch mode")

	return func() (app.Config, error) {
		cfg := defaults
		cfg.DataPath = dataPath
		legacy := map[string]result.SourceKind{}
		for path, kind := range map[string]result.SourceKind{
			gseaPath:    result.KindPathway,
			tfPath:      result.KindTF,
			progenyPath: result.KindProgeny,
			tePath:      result.KindTE,
		} {
			if path != "" {
				legacy[path] = kind
			}
		}
		if len(legacy) > 0 {
			cfg.LegacyTables = legacy
		}
		cfg.OutputDir = outputDir
		cfg.Embedding.Seed = seed
		cfg.TELevel = teLevel
		cfg.NotesPath = notesPath
		cfg.Workers = workers
		cfg.Thresholds.Default.SignificanceCutoff = fdr
		cfg.Thresholds.Default.MinScore = minScore

		m, ok := embedding.ParseMethod(method)
		if !ok {
			return cfg, fmt.Errorf("unknown projection method %q", method)
		}
		cfg.Embedding.Method = m

		for _, raw := range entityTypes {
			kind, err := result.ParseSourceKind(raw)
			if err != nil {
				return cfg, err
			}
			cfg.Kinds = append(cfg.Kinds, kind)
		}
		return cfg, nil
	}
}

// openRegistry connects the run registry when EXPLORER_REGISTRY names a
// sqlite file. Runs work fine without one.
func openRegistry() ports.RunRegistry {
	path := os.Getenv("EXPLORER_REGISTRY")
	if path == "" {
		return nil
	}
	registry, err := sqlite.NewRunRegistry(path)
	if err != nil {
		log.Printf("[Registry] Unavailable (%v), continuing without provenance", err)
		return nil
	}
	return registry
}

func newService(load func() (app.Config, error)) (*app.DashboardService, ports.RunRegistry, error) {
	cfg, err := load()
	if err != nil {
		return nil, nil, err
	}
	registry := openRegistry()
	svc, err := app.NewDashboardService(cfg, registry)
	if err != nil {
		if registry != nil {
			registry.Close()
		}
		return nil, nil, err
	}
	return svc, registry, nil
}

func newGenerateCmd() *cobra.Command {
	var contrast string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one dashboard, for a single contrast or the combined view",
		Long: `Generate a self-contained HTML dashboard from the input table.

With --contrast the dashboard covers that contrast only; without it, all
contrasts are combined into one view.

Example: explorer generate --data results.csv --contrast KO_vs_WT --seed 42`,
	}
	load := pipelineFlags(cmd)
	cmd.Flags().StringVar(&contrast, "contrast", "", "Contrast to render (empty = combined view)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Explicit output file path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, registry, err := newService(func() (app.Config, error) {
			cfg, err := load()
			cfg.OutputPath = outputPath
			return cfg, err
		})
		if err != nil {
			return err
		}
		if registry != nil {
			defer registry.Close()
		}

		r, err := svc.Generate(cmd.Context(), contrast)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d records (%d hits) -> %s\n", r.Contrast, r.RecordCount, r.HitCount, r.OutputPath)
		return nil
	}
	return cmd
}

func newAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Generate one dashboard per contrast plus an index page",
		Long: `Generate a dashboard for every contrast found in the input table,
writing an index.html linking them. Contrasts run concurrently and one
failure does not stop the others.

Example: explorer all --data results.xlsx --output-dir interactive`,
	}
	load := pipelineFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, registry, err := newService(load)
		if err != nil {
			return err
		}
		if registry != nil {
			defer registry.Close()
		}

		runs, err := svc.GenerateAll(cmd.Context())
		for _, r := range runs {
			if r.OutputPath != "" {
				fmt.Printf("%s: %d records (%d hits) -> %s\n", r.Contrast, r.RecordCount, r.HitCount, r.OutputPath)
			} else {
				fmt.Printf("%s: FAILED (%v)\n", r.Contrast, r.Err)
			}
		}
		return err
	}
	return cmd
}

func newContrastsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contrasts",
		Short: "List the contrasts present in the input table",
	}
	load := pipelineFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, registry, err := newService(load)
		if err != nil {
			return err
		}
		if registry != nil {
			defer registry.Close()
		}

		contrasts, err := svc.Contrasts()
		if err != nil {
			return err
		}
		if len(contrasts) == 0 {
			fmt.Println("(no contrast column)")
			return nil
		}
		fmt.Println(strings.Join(contrasts, "\n"))
		return nil
	}
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dashboard-generation runs from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := openRegistry()
			if registry == nil {
				return fmt.Errorf("no run registry configured (set EXPLORER_REGISTRY)")
			}
			defer registry.Close()

			runs, err := registry.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				status := string(r.Status)
				if r.Err != nil {
					status = fmt.Sprintf("%s (%v)", status, r.Err)
				}
				fmt.Printf("%s  %-24s seed=%d method=%-6s %d/%d  %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Contrast,
					r.Seed, r.Method, r.HitCount, r.RecordCount, status)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
