package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/celerya/visura-cli/internal/ateco"
	"github.com/celerya/visura-cli/internal/config"
	"github.com/celerya/visura-cli/internal/pipeline"
	"github.com/celerya/visura-cli/internal/store"
	"github.com/celerya/visura-cli/internal/textacq"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "visura-cli",
	Short: "Field extraction for Italian company-registry certificates",
	Long:  "Extracts P.IVA, ATECO code, oggetto sociale, sede legale, denominazione and forma giuridica from visura PDFs, with ATECO 2022→2025 recoding and confidence scoring.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadAtecoTable loads the recode dataset; a missing dataset downgrades
// legacy-code resolution to "absent" instead of failing startup.
func loadAtecoTable() *ateco.Table {
	table, err := ateco.LoadTable(cfg.Ateco.DatasetPath, cfg.Ateco.SheetName)
	if err != nil {
		zap.L().Warn("ateco dataset unavailable, legacy codes will be reported absent",
			zap.String("path", cfg.Ateco.DatasetPath),
			zap.Error(err),
		)
		return nil
	}
	return table
}

// buildPipeline assembles the extraction pipeline from config.
func buildPipeline(table *ateco.Table) (*pipeline.Pipeline, error) {
	acquirer, err := textacq.NewAcquirer(cfg.Extract, nil)
	if err != nil {
		return nil, err
	}

	var lookup ateco.Lookup
	if table != nil {
		lookup = table
	}

	p := pipeline.New(acquirer, ateco.NewResolver(lookup))
	if cfg.Extract.TempDir != "" {
		p = p.WithTempDir(cfg.Extract.TempDir)
	}
	return p, nil
}

// initStore opens and migrates the run-history store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
