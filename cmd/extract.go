package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/celerya/visura-cli/internal/model"
)

var (
	extractSave        bool
	extractConcurrency int
)

// fileResult pairs one input file with its extraction outcome for batch output.
type fileResult struct {
	File       string              `json:"file"`
	TextMethod string              `json:"text_method,omitempty"`
	Failure    string              `json:"failure,omitempty"`
	Record     *model.VisuraResult `json:"record"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf> [pdf...]",
	Short: "Extract business-identity fields from visura PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(loadAtecoTable())
		if err != nil {
			return err
		}

		var persist persistFunc
		if extractSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			persist = func(ctx context.Context, filename string, result *model.VisuraResult, status model.RunStatus) error {
				_, err := st.CreateRun(ctx, filename, result, status)
				return err
			}
		}

		concurrency := extractConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentFiles
		}

		results, err := extractFiles(ctx, p, args, concurrency, persist)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0].Record)
		}
		return enc.Encode(results)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "persist each run to the store")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 0, "max concurrent files (default from config)")
	rootCmd.AddCommand(extractCmd)
}

// persistFunc saves one finished run; nil means no persistence.
type persistFunc func(ctx context.Context, filename string, result *model.VisuraResult, status model.RunStatus) error

// extractor is the pipeline surface extractFiles needs; tests substitute stubs.
type extractor interface {
	Extract(ctx context.Context, content []byte, filename string) (*model.VisuraResult, *model.ExtractionReport)
}

// extractFiles runs the pipeline over the given paths concurrently, keeping
// output in input order. Per-file problems degrade that file's entry instead
// of aborting the batch; only an unreadable path is a hard error.
func extractFiles(ctx context.Context, p extractor, paths []string, concurrency int, persist persistFunc) ([]fileResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("extracting batch",
		zap.Int("files", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]fileResult, len(paths))
	var degraded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read %s", path)
			}

			filename := filepath.Base(path)
			record, report := p.Extract(gctx, content, filename)

			status := model.RunStatusComplete
			if report.Failure != model.FailureNone {
				status = model.RunStatusDegraded
				degraded.Add(1)
			}

			if persist != nil {
				if err := persist(gctx, filename, record, status); err != nil {
					zap.L().Warn("failed to persist run",
						zap.String("file", filename), zap.Error(err))
				}
			}

			results[i] = fileResult{
				File:       path,
				TextMethod: report.TextMethod,
				Failure:    string(report.Failure),
				Record:     record,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("batch complete",
		zap.Int("files", len(paths)),
		zap.Int64("degraded", degraded.Load()),
	)
	return results, nil
}
