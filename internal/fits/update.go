package fits

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpdateResult summarizes a cache reconciliation.
type UpdateResult struct {
	Removed int // documents deleted because their file left the accession
	Added   int // files newly characterized
	Failed  int // files FITS could not characterize
}

// ListFiles returns every regular file under root as a cleaned absolute
// path, in lexical walk order.
func ListFiles(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "fits: resolve %s", root)
	}
	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fits: walk %s", root)
	}
	return files, nil
}

// Characterize builds a fresh cache for the accession with one recursive
// FITS run.
func Characterize(ctx context.Context, c Characterizer, accessionDir, cacheDir string) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return eris.Wrapf(err, "fits: create cache %s", cacheDir)
	}
	zap.L().Info("fits: characterizing accession",
		zap.String("accession", accessionDir),
		zap.String("cache", cacheDir),
	)
	return c.CharacterizeTree(ctx, accessionDir, cacheDir)
}

// Update reconciles an existing cache with the accession tree. Documents
// whose embedded path is no longer in the accession (or that cannot be
// parsed, as after an interrupted run) are deleted, and every accession file
// without a document is characterized. workers bounds concurrent FITS runs.
func Update(ctx context.Context, c Characterizer, accessionDir, cacheDir string, workers int) (UpdateResult, error) {
	var res UpdateResult

	files, err := ListFiles(accessionDir)
	if err != nil {
		return res, err
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = false
	}

	docs, err := ListDocuments(cacheDir)
	if err != nil {
		return res, err
	}
	taken := make(map[string]bool, len(docs))
	for _, doc := range docs {
		path, err := documentPath(ctx, doc)
		switch {
		case err != nil:
			zap.L().Warn("fits: removing unreadable document", zap.String("document", doc), zap.Error(err))
		case !inAccession(present, path):
			zap.L().Info("fits: removing document for deleted file", zap.String("path", path))
		case present[filepath.Clean(path)]:
			zap.L().Info("fits: removing duplicate document", zap.String("document", doc), zap.String("path", path))
		default:
			present[filepath.Clean(path)] = true
			taken[filepath.Base(doc)] = true
			continue
		}
		if err := os.Remove(doc); err != nil {
			return res, eris.Wrapf(err, "fits: remove %s", doc)
		}
		res.Removed++
	}

	type job struct{ path, out string }
	var jobs []job
	for _, f := range files {
		if present[f] {
			continue
		}
		jobs = append(jobs, job{path: f, out: filepath.Join(cacheDir, uniqueDocName(taken, filepath.Base(f)))})
	}

	if workers < 1 {
		workers = 1
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for _, j := range jobs {
		g.Go(func() error {
			err := c.CharacterizeFile(gCtx, j.path, j.out)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrToolLoad) {
				return err
			}
			if err != nil {
				res.Failed++
				zap.L().Warn("fits: characterization failed", zap.String("path", j.path), zap.Error(err))
				return nil
			}
			res.Added++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	zap.L().Info("fits: cache updated",
		zap.Int("removed", res.Removed),
		zap.Int("added", res.Added),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func documentPath(ctx context.Context, doc string) (string, error) {
	f, err := os.Open(doc)
	if err != nil {
		return "", eris.Wrapf(err, "fits: open %s", doc)
	}
	defer f.Close() //nolint:errcheck
	return OriginalPath(ctx, f)
}

func inAccession(present map[string]bool, path string) bool {
	_, ok := present[filepath.Clean(path)]
	return ok
}

// uniqueDocName returns "<base>.fits.xml", adding "-1", "-2", ... when a
// document of that name is already in the cache.
func uniqueDocName(taken map[string]bool, base string) string {
	name := base + DocumentSuffix
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s-%d%s", base, i, DocumentSuffix)
	}
	taken[name] = true
	return name
}
