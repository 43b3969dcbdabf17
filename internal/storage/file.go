package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// --- Poem File Storage ---

// FileStorage writes each poem as a pretty-printed JSON file at
// <root>/<era>/<poet>/<name>.json.
type FileStorage struct {
	root   string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewFileStorage creates a poem file store rooted at root. The root itself
// is created lazily by Prepare.
func NewFileStorage(root string, logger *slog.Logger) *FileStorage {
	return &FileStorage{
		root:   root,
		logger: logger.With("component", "file_storage"),
	}
}

func (s *FileStorage) Name() string { return "file" }

// Dir returns the directory holding a poet's poems.
func (s *FileStorage) Dir(era, poet string) string {
	return filepath.Join(s.root, era, poet)
}

// Path returns the file a poem is written to.
func (s *FileStorage) Path(key Key) string {
	return filepath.Join(s.Dir(key.Era, key.Poet), key.Name+".json")
}

func (s *FileStorage) Prepare(era, poet string) error {
	dir := s.Dir(era, poet)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.StorageError{Backend: s.Name(), Path: dir, Err: err}
	}
	return nil
}

// Exists reports whether the poem file is present and non-empty. A
// zero-byte file counts as missing so the poem is fetched again.
func (s *FileStorage) Exists(key Key) bool {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Store writes the poem to a temp file in the poet directory and renames
// it into place, so an interrupted write never leaves a partial file.
func (s *FileStorage) Store(ctx context.Context, key Key, poem *types.Poem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(key)
	if err := writeJSONFile(path, poem); err != nil {
		return &types.StorageError{Backend: s.Name(), Path: path, Err: err}
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	s.logger.Debug("poem written", "path", path, "verses", len(poem.Verses))
	return nil
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("file storage closing", "root", s.root, "poems", s.count)
	return nil
}

func writeJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".poem-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode JSON: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// --- JSONL Writer ---

// JSONLWriter writes values as newline-delimited JSON, one object per line,
// with non-ASCII text kept verbatim.
type JSONLWriter struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLWriter creates (or truncates) the JSONL file at outputPath.
func NewJSONLWriter(outputPath string, logger *slog.Logger) (*JSONLWriter, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Path: dir, Err: err}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Path: outputPath, Err: err}
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)

	return &JSONLWriter{
		path:   outputPath,
		file:   f,
		enc:    enc,
		logger: logger.With("component", "jsonl_writer"),
	}, nil
}

// Write appends one record.
func (w *JSONLWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(v); err != nil {
		return &types.StorageError{Backend: "jsonl", Path: w.path, Err: err}
	}
	w.count++
	return nil
}

// Count returns the number of records written so far.
func (w *JSONLWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *JSONLWriter) Close() error {
	w.logger.Info("JSONL written", "path", w.path, "records", w.count)
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// --- CSV Writer ---

// CSVWriter writes rows under a fixed header. Rows go to a temp file next to
// the output; Close renames it into place and Discard drops it, so an
// existing file at the output path is only replaced by a complete table.
type CSVWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *csv.Writer
	headers []string
	mu      sync.Mutex
	count   int
	done    bool
	logger  *slog.Logger
}

// NewCSVWriter starts a CSV table for outputPath and writes the header row.
func NewCSVWriter(outputPath string, headers []string, logger *slog.Logger) (*CSVWriter, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: dir, Err: err}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+"-*.tmp")
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Path: outputPath, Err: fmt.Errorf("create temp file: %w", err)}
	}

	w := &CSVWriter{
		path:    outputPath,
		tmpPath: f.Name(),
		file:    f,
		writer:  csv.NewWriter(f),
		headers: headers,
		logger:  logger.With("component", "csv_writer"),
	}
	if err := w.writer.Write(headers); err != nil {
		w.Discard()
		return nil, &types.StorageError{Backend: "csv", Path: outputPath, Err: fmt.Errorf("write CSV header: %w", err)}
	}
	return w, nil
}

// Write appends one row. The row must have one cell per header.
func (w *CSVWriter) Write(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(row) != len(w.headers) {
		return &types.StorageError{Backend: "csv", Path: w.path,
			Err: fmt.Errorf("row has %d cells, want %d", len(row), len(w.headers))}
	}
	if err := w.writer.Write(row); err != nil {
		return &types.StorageError{Backend: "csv", Path: w.path, Err: fmt.Errorf("write CSV row: %w", err)}
	}
	w.count++
	return nil
}

// Count returns the number of data rows written so far.
func (w *CSVWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes the table and renames it to the output path.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	w.done = true

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		os.Remove(w.tmpPath)
		return &types.StorageError{Backend: "csv", Path: w.path, Err: err}
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return &types.StorageError{Backend: "csv", Path: w.path, Err: fmt.Errorf("close temp file: %w", err)}
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return &types.StorageError{Backend: "csv", Path: w.path, Err: fmt.Errorf("rename temp file: %w", err)}
	}

	w.logger.Info("CSV written", "path", w.path, "rows", w.count)
	return nil
}

// Discard drops the partial table and leaves the output path untouched.
func (w *CSVWriter) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.done = true

	w.file.Close()
	os.Remove(w.tmpPath)
	w.logger.Debug("CSV discarded", "path", w.path, "rows", w.count)
}
