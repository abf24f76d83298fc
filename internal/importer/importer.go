// Package importer orchestrates one import job end to end: fetch the
// uploaded object, detect its format, canonicalize the records, commit
// them in chunks and keep the job status current throughout.
package importer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/proffdata/import-cli/internal/canonical"
	"github.com/proffdata/import-cli/internal/commit"
	"github.com/proffdata/import-cli/internal/job"
	"github.com/proffdata/import-cli/internal/model"
	"github.com/proffdata/import-cli/internal/objstore"
	"github.com/proffdata/import-cli/internal/store"
)

// DefaultPrefix is the object namespace that triggers imports. Objects
// outside it are ignored.
const DefaultPrefix = "imports/"

// Options configures an Importer.
type Options struct {
	Prefix    string // upload namespace; DefaultPrefix when empty
	TempDir   string // scoped download location; os.TempDir() when empty
	ChunkSize int    // records per atomic commit; commit.DefaultChunkSize when 0
	Aliases   canonical.AliasTable
}

// Importer drives import jobs. One Run call handles one uploaded object;
// concurrent Runs for different objects are independent.
type Importer struct {
	objects objstore.ObjectStore
	store   store.Store
	opts    Options
}

// New creates an Importer.
func New(objects objstore.ObjectStore, st store.Store, opts Options) *Importer {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Importer{objects: objects, store: st, opts: opts}
}

// Run executes the import job for one uploaded object. Objects outside the
// import namespace are skipped without creating any records. Pipeline
// failures (unsupported format, unparsable input, download errors) mark
// the job failed and return nil: the job ran and its outcome is recorded.
// A non-nil error means the status record itself could not be maintained.
func (i *Importer) Run(ctx context.Context, objectName string) error {
	if !strings.HasPrefix(objectName, i.opts.Prefix) {
		zap.L().Debug("object outside import namespace, skipping", zap.String("object", objectName))
		return nil
	}

	fileName := path.Base(objectName)
	jobID := model.JobIDFromObjectName(objectName)
	log := zap.L().With(zap.String("job", jobID), zap.String("file", fileName))

	tracker, err := job.Start(ctx, i.store, jobID, fileName)
	if err != nil {
		return err
	}
	log.Info("import started")

	tmpPath, err := i.fetchToTemp(ctx, objectName)
	if tmpPath != "" {
		defer func() {
			if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(rmErr))
			}
		}()
	}
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return tracker.Fail(ctx, err.Error())
	}

	format, err := canonical.Detect(objectName)
	if err != nil {
		log.Error("format detection failed", zap.Error(err))
		return tracker.Fail(ctx, err.Error())
	}

	raws, single, err := canonical.ParseFile(tmpPath, format)
	if err != nil {
		log.Error("parse failed", zap.Error(err))
		return tracker.Fail(ctx, err.Error())
	}

	if err := tracker.SetTotal(ctx, len(raws)); err != nil {
		return err
	}

	conv := canonical.New(canonical.Options{
		CSV:     format == canonical.FormatCSV,
		Aliases: i.opts.Aliases,
	})
	records := make([]model.CanonicalCompanyRecord, len(raws))
	for n, raw := range raws {
		records[n] = conv.Record(raw)
	}

	if single {
		return i.commitSingle(ctx, tracker, records[0], log)
	}

	engine := commit.NewEngine(i.store, i.opts.ChunkSize)
	total, err := engine.Commit(ctx, records, func(res commit.Result) error {
		return tracker.RecordChunk(ctx, res.Successful, res.Failed, res.Errors)
	})
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrapf(err, "importer: job %s interrupted", jobID)
		}
		return err
	}

	if err := tracker.Complete(ctx); err != nil {
		return err
	}
	log.Info("import complete",
		zap.Int("total", len(records)),
		zap.Int("successful", total.Successful),
		zap.Int("failed", total.Failed),
	)
	return nil
}

// commitSingle handles a non-list JSON upload: one direct write with the
// same status semantics as the chunked path.
func (i *Importer) commitSingle(ctx context.Context, tracker *job.Tracker, rec model.CanonicalCompanyRecord, log *zap.Logger) error {
	if werr := i.store.UpsertCompanies(ctx, []model.CanonicalCompanyRecord{rec}); werr != nil {
		log.Warn("single record commit failed", zap.Error(werr))
		if err := tracker.RecordChunk(ctx, 0, 1, []string{werr.Error()}); err != nil {
			return err
		}
	} else if err := tracker.RecordChunk(ctx, 1, 0, nil); err != nil {
		return err
	}

	if err := tracker.Complete(ctx); err != nil {
		return err
	}
	log.Info("import complete", zap.Int("total", 1))
	return nil
}

// fetchToTemp downloads the object into the scoped temp dir, keeping the
// original extension so format detection also works from the local name.
func (i *Importer) fetchToTemp(ctx context.Context, objectName string) (string, error) {
	f, err := os.CreateTemp(i.opts.TempDir, "import-*"+filepath.Ext(objectName))
	if err != nil {
		return "", eris.Wrap(err, "importer: create temp file")
	}
	tmpPath := f.Name()
	if err := f.Close(); err != nil {
		return tmpPath, eris.Wrap(err, "importer: close temp file")
	}

	if err := i.objects.FetchToFile(ctx, objectName, tmpPath); err != nil {
		return tmpPath, err
	}
	return tmpPath, nil
}
