package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/proffdata/import-cli/internal/canonical"
	"github.com/proffdata/import-cli/internal/importer"
	"github.com/proffdata/import-cli/internal/objstore"
	"github.com/proffdata/import-cli/internal/store"
)

// importEnv holds the initialized store, object store and importer shared
// by the run/batch/serve/status commands.
type importEnv struct {
	Store    store.Store
	Objects  objstore.ObjectStore
	Importer *importer.Importer
}

// Close releases resources held by the environment.
func (e *importEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, runs migrations, opens the object store and
// builds the importer. Callers should defer env.Close().
func initEnv(ctx context.Context) (*importEnv, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	objects, err := objstore.Open(cfg.Objects)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	aliases := canonical.DefaultAliases()
	if cfg.Import.AliasFile != "" {
		aliases, err = canonical.LoadAliases(cfg.Import.AliasFile)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		zap.L().Info("field aliases loaded", zap.String("file", cfg.Import.AliasFile))
	}

	imp := importer.New(objects, st, importer.Options{
		Prefix:    cfg.Import.Prefix,
		TempDir:   cfg.Import.TempDir,
		ChunkSize: cfg.Import.ChunkSize,
		Aliases:   aliases,
	})

	return &importEnv{Store: st, Objects: objects, Importer: imp}, nil
}
