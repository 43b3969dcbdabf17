package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/diwancrawl/internal/config"
	"github.com/IshaanNene/diwancrawl/internal/pipeline"
	"github.com/IshaanNene/diwancrawl/internal/storage"
	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Output file names under the prepare output directory.
const (
	TrainFile = "train.jsonl"
	ValFile   = "val.jsonl"
)

// Summary reports what a prepare run did.
type Summary struct {
	Loaded  int
	Kept    int
	Dropped map[string]int
	Poems   int
	Train   int
	Val     int
}

// Preparer builds the training corpus from the verse table.
type Preparer struct {
	cfg    config.PrepareConfig
	logger *slog.Logger
}

// NewPreparer creates a Preparer.
func NewPreparer(cfg config.PrepareConfig, logger *slog.Logger) *Preparer {
	return &Preparer{
		cfg:    cfg,
		logger: logger.With("component", "preparer"),
	}
}

// Run loads the table at cfg.InputPath, filters and cleans it, groups
// verses into poems, splits them and writes train and validation JSONL
// files to cfg.OutputDir.
func (p *Preparer) Run(ctx context.Context) (*Summary, error) {
	p.logger.Info("loading dataset", "path", p.cfg.InputPath)
	rows, err := LoadTableFile(p.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	p.logger.Info("dataset loaded", "verses", len(rows))

	kept, chain, err := p.filter(ctx, rows)
	if err != nil {
		return nil, err
	}
	p.logger.Info("rows filtered", "kept", len(kept), "meters", countMeters(kept), "dropped", chain.Dropped())

	records := BuildRecords(GroupRows(kept))
	p.logger.Info("verses grouped", "poems", len(records))

	train, val := Split(records, p.cfg.ValidationRatio, p.cfg.Seed)
	p.logger.Info("corpus split", "train", len(train), "val", len(val))

	if err := p.write(filepath.Join(p.cfg.OutputDir, TrainFile), train); err != nil {
		return nil, err
	}
	if err := p.write(filepath.Join(p.cfg.OutputDir, ValFile), val); err != nil {
		return nil, err
	}

	return &Summary{
		Loaded:  len(rows),
		Kept:    len(kept),
		Dropped: chain.Dropped(),
		Poems:   len(records),
		Train:   len(train),
		Val:     len(val),
	}, nil
}

func (p *Preparer) filter(ctx context.Context, rows []*types.VerseRow) ([]*types.VerseRow, *pipeline.Pipeline, error) {
	chain := pipeline.NewCorpusPipeline(p.cfg.ValidMeters, p.logger)

	kept := make([]*types.VerseRow, 0, len(rows))
	for i, row := range rows {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		out, err := chain.Process(row)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		if out != nil {
			kept = append(kept, out)
		}
	}
	return kept, chain, nil
}

func (p *Preparer) write(path string, records []types.CorpusRecord) error {
	w, err := storage.NewJSONLWriter(path, p.logger)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func countMeters(rows []*types.VerseRow) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Meter] = struct{}{}
	}
	return len(seen)
}
