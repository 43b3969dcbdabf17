package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for a crawl. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Request metrics
	RequestsTotal   atomic.Int64
	RequestsFailed  atomic.Int64
	BytesDownloaded atomic.Int64

	// Traversal metrics
	ErasFound  atomic.Int64
	PoetsFound atomic.Int64
	PoetsDone  atomic.Int64

	// Poem metrics
	PoemsSaved   atomic.Int64
	PoemsSkipped atomic.Int64
	PoemsEmpty   atomic.Int64
	PoemsFailed  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

func (m *Metrics) RequestSent() {
	if m != nil {
		m.RequestsTotal.Add(1)
	}
}

func (m *Metrics) RequestFailed() {
	if m != nil {
		m.RequestsFailed.Add(1)
	}
}

func (m *Metrics) Downloaded(n int) {
	if m != nil {
		m.BytesDownloaded.Add(int64(n))
	}
}

func (m *Metrics) Eras(n int) {
	if m != nil {
		m.ErasFound.Add(int64(n))
	}
}

func (m *Metrics) Poets(n int) {
	if m != nil {
		m.PoetsFound.Add(int64(n))
	}
}

func (m *Metrics) PoetDone() {
	if m != nil {
		m.PoetsDone.Add(1)
	}
}

func (m *Metrics) PoemSaved() {
	if m != nil {
		m.PoemsSaved.Add(1)
	}
}

func (m *Metrics) PoemSkipped() {
	if m != nil {
		m.PoemsSkipped.Add(1)
	}
}

// PoemEmpty records a poem page that parsed but carried no verses.
func (m *Metrics) PoemEmpty() {
	if m != nil {
		m.PoemsEmpty.Add(1)
	}
}

// PoemFailed records a poem page that could not be fetched.
func (m *Metrics) PoemFailed() {
	if m != nil {
		m.PoemsFailed.Add(1)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"diwancrawl_requests_total", "Total requests made", "counter", m.RequestsTotal.Load()},
		{"diwancrawl_requests_failed_total", "Total failed requests", "counter", m.RequestsFailed.Load()},
		{"diwancrawl_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
		{"diwancrawl_eras_found", "Eras found on the root page", "gauge", m.ErasFound.Load()},
		{"diwancrawl_poets_found_total", "Poets found across eras", "counter", m.PoetsFound.Load()},
		{"diwancrawl_poets_done_total", "Poets fully processed", "counter", m.PoetsDone.Load()},
		{"diwancrawl_poems_saved_total", "Poem files written", "counter", m.PoemsSaved.Load()},
		{"diwancrawl_poems_skipped_total", "Poems skipped because already on disk", "counter", m.PoemsSkipped.Load()},
		{"diwancrawl_poems_empty_total", "Poem pages without verses", "counter", m.PoemsEmpty.Load()},
		{"diwancrawl_poems_failed_total", "Poem pages that failed to fetch", "counter", m.PoemsFailed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Handler returns a mux serving the metrics at path plus a /health check.
func (m *Metrics) Handler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) {
	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, m.Handler(path)); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	return map[string]int64{
		"requests_total":   m.RequestsTotal.Load(),
		"requests_failed":  m.RequestsFailed.Load(),
		"bytes_downloaded": m.BytesDownloaded.Load(),
		"eras_found":       m.ErasFound.Load(),
		"poets_found":      m.PoetsFound.Load(),
		"poets_done":       m.PoetsDone.Load(),
		"poems_saved":      m.PoemsSaved.Load(),
		"poems_skipped":    m.PoemsSkipped.Load(),
		"poems_empty":      m.PoemsEmpty.Load(),
		"poems_failed":     m.PoemsFailed.Load(),
	}
}
