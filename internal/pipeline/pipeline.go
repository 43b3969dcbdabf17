package pipeline

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Middleware processes a verse row and returns the (possibly modified) row.
// Return nil to drop the row from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a row. Return nil to drop the row.
	Process(row *types.VerseRow) (*types.VerseRow, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger

	mu      sync.Mutex
	dropped map[string]int
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger:  logger.With("component", "pipeline"),
		dropped: make(map[string]int),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the row through all middleware in order.
func (p *Pipeline) Process(row *types.VerseRow) (*types.VerseRow, error) {
	current := row

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				Row:   current,
				Err:   err,
			}
		}
		if result == nil {
			p.mu.Lock()
			p.dropped[mw.Name()]++
			p.mu.Unlock()
			p.logger.Debug("row dropped", "stage", mw.Name(), "line", row.Line)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// Dropped returns how many rows each stage has dropped so far.
func (p *Pipeline) Dropped() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.dropped))
	for k, v := range p.dropped {
		out[k] = v
	}
	return out
}

// --- Built-in Middleware ---

// MeterFilterMiddleware drops rows whose meter is not exactly one of the
// accepted meters.
type MeterFilterMiddleware struct {
	meters map[string]struct{}
}

func NewMeterFilterMiddleware(meters []string) *MeterFilterMiddleware {
	m := &MeterFilterMiddleware{meters: make(map[string]struct{}, len(meters))}
	for _, meter := range meters {
		m.meters[meter] = struct{}{}
	}
	return m
}

func (m *MeterFilterMiddleware) Name() string { return "meter_filter" }

func (m *MeterFilterMiddleware) Process(row *types.VerseRow) (*types.VerseRow, error) {
	if _, ok := m.meters[row.Meter]; !ok {
		return nil, nil
	}
	return row, nil
}

// RequiredFieldsMiddleware drops rows missing a hemistich, meter or rhyme.
// Hemistichs made only of whitespace count as missing.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(row *types.VerseRow) (*types.VerseRow, error) {
	if row.Meter == "" || row.Rhyme == "" {
		return nil, nil
	}
	if strings.TrimSpace(row.Right) == "" || strings.TrimSpace(row.Left) == "" {
		return nil, nil
	}
	return row, nil
}

// ArabicCleanMiddleware normalizes both hemistichs with CleanArabic.
// Rows are never dropped here, even when a hemistich cleans to nothing.
type ArabicCleanMiddleware struct{}

func (m *ArabicCleanMiddleware) Name() string { return "arabic_clean" }

func (m *ArabicCleanMiddleware) Process(row *types.VerseRow) (*types.VerseRow, error) {
	right, err := CleanArabic(row.Right)
	if err != nil {
		return nil, err
	}
	left, err := CleanArabic(row.Left)
	if err != nil {
		return nil, err
	}

	out := *row
	out.Right = right
	out.Left = left
	return &out, nil
}

// NewCorpusPipeline builds the chain used by prepare: meter filter, then
// required fields, then Arabic cleaning.
func NewCorpusPipeline(validMeters []string, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewMeterFilterMiddleware(validMeters))
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&ArabicCleanMiddleware{})
	return p
}
