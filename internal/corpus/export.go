package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/diwancrawl/internal/storage"
	"github.com/IshaanNene/diwancrawl/internal/types"
)

// ExportSummary reports what an export run did.
type ExportSummary struct {
	Files   int
	Skipped int
	Rows    int
}

// Export walks the crawl tree under root in lexical order and writes one
// verse-table row per verse of every poem file to outPath. Files that do
// not decode as a poem are logged and skipped. An existing outPath is an
// ErrOutputExists error unless overwrite is set, and it is only replaced
// once the whole tree has been read.
func Export(ctx context.Context, root, outPath string, overwrite bool, logger *slog.Logger) (*ExportSummary, error) {
	logger = logger.With("component", "exporter")

	if !overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrOutputExists, outPath)
		}
	}

	w, err := storage.NewCSVWriter(outPath, Headers, logger)
	if err != nil {
		return nil, err
	}

	summary := &ExportSummary{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isPoemFile(d.Name()) {
			return nil
		}

		poem, err := readPoem(path)
		if err != nil {
			summary.Skipped++
			logger.Warn("skipping unreadable poem file", "path", path, "error", err)
			return nil
		}
		summary.Files++

		for _, v := range poem.Verses {
			row := []string{v.RightHemistich, v.LeftHemistich, poem.Bahr, poem.Qafiyah, poem.Diwan, poem.Poet, poem.Era}
			if err := w.Write(row); err != nil {
				return err
			}
			summary.Rows++
		}
		return nil
	})

	if walkErr != nil {
		w.Discard()
		return nil, walkErr
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	logger.Info("export complete", "root", root, "output", outPath,
		"files", summary.Files, "skipped", summary.Skipped, "rows", summary.Rows)
	return summary, nil
}

// isPoemFile matches poem JSON files and skips in-flight temp files.
func isPoemFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}

func readPoem(path string) (*types.Poem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var poem types.Poem
	if err := json.Unmarshal(data, &poem); err != nil {
		return nil, err
	}
	return &poem, nil
}
