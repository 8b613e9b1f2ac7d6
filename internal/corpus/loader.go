package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"
)

// DefaultSubdirectories is the walk order of the legacy data layout.
// On a filename collision the later subdirectory wins.
var DefaultSubdirectories = []string{"recreated", "original_dumps"}

// subtree is the result of walking one subdirectory.
type subtree struct {
	name       string
	files      map[string][]byte
	order      []string
	missing    bool
	unreadable int
	err        error
}

// Load reads every regular file under dataDir/<subdir> for each subdir
// into memory, keyed by base filename. Subdirectories are walked
// concurrently but merged in the given order, so the last one wins on
// collisions. Missing subdirectories and unreadable files are logged and
// skipped.
func Load(ctx context.Context, dataDir string, subdirs []string) (*Corpus, error) {
	return LoadWithLogger(ctx, dataDir, subdirs, slog.Default())
}

// LoadWithLogger is Load with an explicit logger.
func LoadWithLogger(ctx context.Context, dataDir string, subdirs []string, logger *slog.Logger) (*Corpus, error) {
	if len(subdirs) == 0 {
		return nil, errors.New("at least one corpus subdirectory is required")
	}

	results := make([]subtree, len(subdirs))
	p := pool.New().WithMaxGoroutines(min(len(subdirs), runtime.NumCPU()))
	for i, name := range subdirs {
		p.Go(func() {
			results[i] = walkSubtree(ctx, filepath.Join(dataDir, name), name, logger)
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("corpus load interrupted: %w", err)
	}

	c := newCorpus()
	for _, st := range results {
		if st.err != nil {
			return nil, fmt.Errorf("walk %s: %w", st.name, st.err)
		}
		for _, filename := range st.order {
			c.add(filename, st.files[filename], st.name)
		}
		c.stats.Unreadable += st.unreadable
		c.stats.Subdirectories = append(c.stats.Subdirectories, SubdirectoryStats{
			Name:    st.name,
			Files:   len(st.files),
			Missing: st.missing,
		})
	}
	c.seal()

	logger.Info("Corpus loaded",
		"files", c.stats.Files,
		"size", humanize.IBytes(uint64(c.stats.TotalBytes)),
		"groups", c.stats.Groups,
		"unreadable", c.stats.Unreadable)
	return c, nil
}

// walkSubtree reads all regular files below root. Only context
// cancellation is reported as an error.
func walkSubtree(ctx context.Context, root, name string, logger *slog.Logger) subtree {
	st := subtree{name: name, files: make(map[string][]byte)}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Warn("Missing corpus directory", "path", root)
		st.missing = true
		return st
	}

	st.err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Error("Failed to walk corpus path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !shouldRead(path, d) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to load corpus file", "path", path, "error", err)
			st.unreadable++
			return nil
		}

		filename := d.Name()
		if _, seen := st.files[filename]; !seen {
			st.order = append(st.order, filename)
		}
		st.files[filename] = data
		logger.Debug("Cached corpus file", "filename", filename, "subdirectory", name)
		return nil
	})
	return st
}

// shouldRead reports whether the entry is a regular file or a symbolic
// link that does not point at something else (a dangling link is read so
// the failure is reported). Devices, sockets and pipes are skipped.
func shouldRead(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err != nil || info.Mode().IsRegular()
}
