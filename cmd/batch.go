package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/proffdata/import-cli/internal/importer"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch <object-name>...",
	Short: "Run import jobs for several uploaded objects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Import.MaxConcurrent
		}

		return processBatch(ctx, args, concurrency, env.Importer)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent jobs (default from config)")
	rootCmd.AddCommand(batchCmd)
}

// processBatch runs one import job per object concurrently. Individual job
// failures are recorded in their status documents and do not abort the
// batch; only status-record maintenance errors do.
func processBatch(ctx context.Context, objects []string, concurrency int, imp *importer.Importer) error {
	zap.L().Info("processing batch",
		zap.Int("objects", len(objects)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var failed atomic.Int64

	for _, object := range objects {
		g.Go(func() error {
			if err := imp.Run(gctx, object); err != nil {
				failed.Add(1)
				zap.L().Error("import job failed", zap.String("object", object), zap.Error(err))
				return nil // don't abort batch on individual failure
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int("objects", len(objects)),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
