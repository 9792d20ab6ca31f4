// Package importer loads ledger exports (semicolon separated CSV files) into
// the repository, one database transaction per file.
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/cryptofolio/internal/logger"
	"github.com/guttosm/cryptofolio/internal/storage"
)

const (
	filePattern = "*.csv"
	maxParallel = 8
)

// ProcessDirectory imports every *.csv file of dir.
//
//   - dir:      directory containing the ledger files.
//   - repo:     destination repository.
//   - parallel: files processed concurrently (0 = min(NumCPU, 8)).
//   - force:    import again files already recorded in the import log.
//
// Behavior:
//   - Files are processed in name order, bounded by parallel.
//   - A file is parsed completely before anything is written, then stored
//     with a single repo.ImportBatch call.
//   - If any file returns an error, the rest are cancelled and that error
//     is returned. Files already committed stay imported.
func ProcessDirectory(ctx context.Context, dir string, repo storage.Repository, parallel int, force bool) error {
	files, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files in %s", filePattern, dir)
	}
	sort.Strings(files)

	limit := parallel
	if limit <= 0 {
		limit = min(runtime.NumCPU(), maxParallel)
	}
	limit = min(limit, maxParallel)

	log := logger.Source(sourceImport, "processDirectory")
	log.Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", limit).Bool("force", force).Msg("import start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, f := range files {
		g.Go(func() error {
			return importFile(gctx, repo, f, i+1, len(files), force)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Int("files", len(files)).Msg("import done")
	return nil
}

func importFile(ctx context.Context, repo storage.Repository, path string, idx, total int, force bool) error {
	start := time.Now()
	base := filepath.Base(path)
	log := logger.Source(sourceImport, "importFile")

	exists, err := repo.HasImport(ctx, base)
	if err != nil {
		log.Error().Str("file", base).Err(err).Msg("check import log failed")
		return fmt.Errorf("file %s: check import log: %w", base, err)
	}
	if exists && !force {
		log.Info().Int("idx", idx).Int("total", total).Str("file", base).Bool("skipped", true).Msg("already imported")
		return nil
	}

	txs, err := parseFile(ctx, path)
	if err != nil {
		log.Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
		return fmt.Errorf("file %s: %w", base, err)
	}

	if err := repo.ImportBatch(ctx, base, txs); err != nil {
		log.Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("persisting file failed")
		return fmt.Errorf("file %s: %w", base, err)
	}

	log.Info().Int("idx", idx).Int("total", total).Str("file", base).Int("rows", len(txs)).Dur("elapsed", time.Since(start)).Msg("file done")
	return nil
}
