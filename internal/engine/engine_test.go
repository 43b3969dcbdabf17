package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/diwancrawl/internal/config"
	"github.com/IshaanNene/diwancrawl/internal/fetcher"
	"github.com/IshaanNene/diwancrawl/internal/observability"
	"github.com/IshaanNene/diwancrawl/internal/storage"
	"github.com/IshaanNene/diwancrawl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	eraName  = "العصر الجاهلي"
	poetName = "امرؤ القيس"
)

// fakeSite serves a tiny copy of the site and counts hits per path.
type fakeSite struct {
	t     *testing.T
	srv   *httptest.Server
	mu    sync.Mutex
	hits  map[string]int
	pages map[string]string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	s := &fakeSite{t: t, hits: make(map[string]int)}
	s.pages = map[string]string{
		"/": `<html><body><div class="s-menu"><h2>تصنيفات العصور</h2><div class="content">
<a href="cat-era-1">العصر الجاهلي</a><a href="cat-era-2">العصر الأموي</a></div></div></body></html>`,
		"/cat-era-1": `<html><body>
<a href="cat-poet-imru"><span class="h3">امرؤ القيس</span></a>
<a href="cat-poet-imru"><span class="h3">امرؤ القيس</span></a></body></html>`,
		"/cat-era-2": `<html><body><a href="cat-poet-jarir"><span class="h3">جرير</span></a></body></html>`,
		"/cat-poet-imru": `<html><body>
<div class="record"><a class="float-right" href="poem-1.html">قفا نبك</a></div>
<div class="record"><a class="float-right" href="poem-2.html">???</a></div>
<div class="record"><a class="float-right" href="poem-3.html">قفا نبك</a></div>
<div class="record"><a class="float-right">بلا رابط</a></div>
<div class="record"><a class="float-right" href="poem-4.html">مفقودة</a></div>
<div class="record"><a class="float-right" href="poem-5.html">فارغة</a></div>
</body></html>`,
		"/cat-poet-jarir": `<html><body>
<div class="record"><a class="float-right" href="poem-9.html">ودع هريرة</a></div></body></html>`,
		"/poem-1.html": poemPage("بحر الطويل", "قافية اللام", "قفا نبك من ذكرى حبيب ومنزل", "بسقط اللوى بين الدخول فحومل"),
		"/poem-2.html": poemPage("", "", "A", "B", "C"),
		"/poem-3.html": poemPage("بحر الكامل", "", "X", "Y"),
		"/poem-5.html": `<html><body><div id="poem_content"></div></body></html>`,
		"/poem-9.html": poemPage("", "", "ودع هريرة", "إن الركب مرتحل"),
	}

	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		page, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *fakeSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *fakeSite) resetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}

func poemPage(meter, rhyme string, lines ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="tips">`)
	for _, m := range []string{meter, rhyme} {
		if m != "" {
			b.WriteString("<a>" + m + "</a>")
		}
	}
	b.WriteString(`</div><div id="poem_content">`)
	for _, l := range lines {
		b.WriteString("<h3>" + l + "</h3>")
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

type harness struct {
	site    *fakeSite
	cfg     *config.Config
	metrics *observability.Metrics
	store   *storage.FileStorage
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	site := newFakeSite(t)

	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = site.srv.URL + "/"
	cfg.Crawl.OutputDir = filepath.Join(t.TempDir(), "al_diwan")
	cfg.Crawl.PoemDelay = 0
	cfg.Crawl.PoetDelay = 0

	return &harness{site: site, cfg: cfg}
}

func (h *harness) crawler(t *testing.T) *Crawler {
	t.Helper()
	h.metrics = observability.NewMetrics(testLogger)
	h.store = storage.NewFileStorage(h.cfg.Crawl.OutputDir, testLogger)
	f := fetcher.NewHTTPFetcher(h.cfg, h.metrics, testLogger)
	t.Cleanup(func() { f.Close() })

	c, err := NewCrawler(h.cfg, f, h.store, h.metrics, testLogger)
	require.NoError(t, err)
	return c
}

func (h *harness) poemPath(era, poet, name string) string {
	return filepath.Join(h.cfg.Crawl.OutputDir, era, poet, name+".json")
}

func TestCrawlerRun(t *testing.T) {
	h := newHarness(t)
	c := h.crawler(t)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, StateStopped, c.GetState())

	for _, name := range []string{"قفا نبك", "poem_unnamed_2", "قفا نبك_2"} {
		assert.FileExists(t, h.poemPath(eraName, poetName, name))
	}
	assert.FileExists(t, h.poemPath("العصر الأموي", "جرير", "ودع هريرة"))
	assert.NoFileExists(t, h.poemPath(eraName, poetName, "مفقودة"), "failed fetch writes nothing")
	assert.NoFileExists(t, h.poemPath(eraName, poetName, "فارغة"), "empty poem writes nothing")

	assert.Equal(t, 1, h.site.hitCount("/cat-poet-imru"), "duplicate poet links are scraped once")
	assert.Equal(t, 1, h.site.hitCount("/poem-4.html"), "a failed poem is tried once")

	snap := h.metrics.Snapshot()
	assert.Equal(t, int64(2), snap["eras_found"])
	assert.Equal(t, int64(2), snap["poets_found"])
	assert.Equal(t, int64(2), snap["poets_done"])
	assert.Equal(t, int64(4), snap["poems_saved"])
	assert.Equal(t, int64(1), snap["poems_failed"])
	assert.Equal(t, int64(1), snap["poems_empty"])
}

func TestCrawlerPoemRecord(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.crawler(t).Run(context.Background()))

	data, err := os.ReadFile(h.poemPath(eraName, poetName, "قفا نبك"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "قفا نبك من ذكرى حبيب ومنزل")

	poem := decodePoem(t, data)
	assert.Equal(t, types.Poem{
		Era:       eraName,
		Poet:      poetName,
		PoemTitle: "قفا نبك",
		Diwan:     types.MainDiwan,
		Bahr:      "الطويل",
		Qafiyah:   "اللام",
		SourceURL: h.site.srv.URL + "/poem-1.html",
		Verses: []types.Verse{
			types.NewVerse("قفا نبك من ذكرى حبيب ومنزل", "بسقط اللوى بين الدخول فحومل"),
		},
	}, poem)

	unnamed := decodePoem(t, mustRead(t, h.poemPath(eraName, poetName, "poem_unnamed_2")))
	assert.Equal(t, "???", unnamed.PoemTitle, "the record keeps the original title")
	assert.Equal(t, types.UnspecifiedMeta, unnamed.Bahr)
	assert.Equal(t, types.UnspecifiedMeta, unnamed.Qafiyah)
	require.Len(t, unnamed.Verses, 2)
	assert.Equal(t, types.NewVerse("C", ""), unnamed.Verses[1])

	second := decodePoem(t, mustRead(t, h.poemPath(eraName, poetName, "قفا نبك_2")))
	assert.Equal(t, h.site.srv.URL+"/poem-3.html", second.SourceURL)
	assert.Equal(t, "الكامل", second.Bahr)
}

func TestCrawlerResumeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.crawler(t).Run(context.Background()))

	path := h.poemPath(eraName, poetName, "قفا نبك")
	before := mustRead(t, path)
	h.site.resetHits()

	require.NoError(t, h.crawler(t).Run(context.Background()))

	for _, p := range []string{"/poem-1.html", "/poem-2.html", "/poem-3.html", "/poem-9.html"} {
		assert.Zero(t, h.site.hitCount(p), "%s is already saved", p)
	}
	assert.Equal(t, 1, h.site.hitCount("/poem-4.html"), "missing poems are retried on the next run")
	assert.Equal(t, before, mustRead(t, path))
	assert.Equal(t, int64(4), h.metrics.Snapshot()["poems_skipped"])
}

func TestCrawlerRefetchesZeroByteFile(t *testing.T) {
	h := newHarness(t)
	path := h.poemPath(eraName, poetName, "قفا نبك")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	c := h.crawler(t)
	err := c.ScrapePoet(context.Background(), types.Poet{Name: poetName, URL: h.site.srv.URL + "/cat-poet-imru"}, eraName)
	require.NoError(t, err)

	assert.Equal(t, 1, h.site.hitCount("/poem-1.html"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestScrapePoetUnavailablePage(t *testing.T) {
	h := newHarness(t)
	c := h.crawler(t)

	err := c.ScrapePoet(context.Background(), types.Poet{Name: "مجهول", URL: h.site.srv.URL + "/cat-poet-missing"}, eraName)
	require.NoError(t, err, "an unavailable poet page is not an error")
	assert.DirExists(t, filepath.Join(h.cfg.Crawl.OutputDir, eraName, "مجهول"))
}

func TestScrapePoetSanitizesDirectories(t *testing.T) {
	h := newHarness(t)
	c := h.crawler(t)

	poet := types.Poet{Name: `امرؤ/القيس?`, URL: h.site.srv.URL + "/cat-poet-jarir"}
	require.NoError(t, c.ScrapePoet(context.Background(), poet, `العصر: الجاهلي`))

	assert.FileExists(t, h.poemPath("العصر الجاهلي", "امرؤالقيس", "ودع هريرة"))
}

func TestScrapePoetLongTitle(t *testing.T) {
	h := newHarness(t)
	title := strings.Repeat("ب", 210) // 420 bytes, over the filename limit
	h.site.pages["/cat-poet-long"] = `<html><body>
<div class="record"><a class="float-right" href="poem-1.html">` + title + `</a></div>
<div class="record"><a class="float-right" href="poem-9.html">ودع هريرة</a></div></body></html>`
	c := h.crawler(t)
	poet := types.Poet{Name: poetName, URL: h.site.srv.URL + "/cat-poet-long"}

	require.NoError(t, c.ScrapePoet(context.Background(), poet, eraName))

	stem := strings.Repeat("ب", storage.MaxNameBytes/2)
	assert.FileExists(t, h.poemPath(eraName, poetName, stem))
	assert.FileExists(t, h.poemPath(eraName, poetName, "ودع هريرة"))
	assert.Equal(t, 1, h.site.hitCount("/poem-9.html"), "the crawl continues past a long title")

	got := decodePoem(t, mustRead(t, h.poemPath(eraName, poetName, stem)))
	assert.Equal(t, title, got.PoemTitle, "the record keeps the full title")

	h.site.resetHits()
	require.NoError(t, c.ScrapePoet(context.Background(), poet, eraName))
	assert.Zero(t, h.site.hitCount("/poem-1.html"), "a truncated name still resumes")
}

func TestScrapePoetDotDirectories(t *testing.T) {
	h := newHarness(t)
	c := h.crawler(t)

	poet := types.Poet{Name: "..", URL: h.site.srv.URL + "/cat-poet-jarir"}
	require.NoError(t, c.ScrapePoet(context.Background(), poet, ".."))

	assert.FileExists(t, h.poemPath(unnamedEra, "cat-poet-jarir", "ودع هريرة"))

	entries, err := os.ReadDir(filepath.Dir(h.cfg.Crawl.OutputDir))
	require.NoError(t, err)
	require.Len(t, entries, 1, "nothing is written outside the crawl root")
	assert.Equal(t, filepath.Base(h.cfg.Crawl.OutputDir), entries[0].Name())
}

func TestCrawlerEraFilter(t *testing.T) {
	h := newHarness(t)
	h.cfg.Crawl.Eras = []string{" العصر الأموي "}

	require.NoError(t, h.crawler(t).Run(context.Background()))

	assert.Zero(t, h.site.hitCount("/cat-era-1"))
	assert.Equal(t, 1, h.site.hitCount("/cat-era-2"))
	assert.FileExists(t, h.poemPath("العصر الأموي", "جرير", "ودع هريرة"))
}

func TestCrawlerNoEras(t *testing.T) {
	h := newHarness(t)
	delete(h.site.pages, "/")

	require.NoError(t, h.crawler(t).Run(context.Background()))
	assert.NoDirExists(t, h.cfg.Crawl.OutputDir)
}

func TestCrawlerStorageFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	h.cfg.Crawl.OutputDir = blocker

	err := h.crawler(t).Run(context.Background())

	var se *types.StorageError
	require.ErrorAs(t, err, &se)
}

func TestCrawlerCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.crawler(t).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestCrawlerRunOnce(t *testing.T) {
	h := newHarness(t)
	c := h.crawler(t)
	require.NoError(t, c.Run(context.Background()))
	assert.Error(t, c.Run(context.Background()))
}

func TestNewCrawlerBadBaseURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = "http://[::1"
	_, err := NewCrawler(cfg, nil, nil, nil, testLogger)
	assert.ErrorIs(t, err, types.ErrInvalidURL)
}

// --- Name Allocation Tests ---

func TestNameAllocator(t *testing.T) {
	a := newNameAllocator()

	got := []string{
		a.allocate("قفا نبك", 1),
		a.allocate(`"*?`, 2),
		a.allocate("قفا نبك", 3),
		a.allocate("قفا نبك_2", 4),
		a.allocate("  قفا نبك ", 5),
		a.allocate("", 6),
	}
	want := []string{"قفا نبك", "poem_unnamed_2", "قفا نبك_2", "قفا نبك_2_2", "قفا نبك_3", "poem_unnamed_6"}
	assert.Equal(t, want, got)
}

func TestNameAllocatorLongTitles(t *testing.T) {
	a := newNameAllocator()
	prefix := strings.Repeat("ق", 150)

	first := a.allocate(prefix+"أ", 1)
	second := a.allocate(prefix+"ب", 2)

	assert.LessOrEqual(t, len(first), storage.MaxNameBytes)
	assert.Equal(t, first+"_2", second, "titles equal up to the cut collide")
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "جرير", dirName(" جرير ", unnamedPoet))
	assert.Equal(t, unnamedPoet, dirName("..", unnamedPoet))
	assert.Equal(t, unnamedEra, dirName(`/\`, unnamedEra))
	assert.Len(t, dirName(strings.Repeat("ع", 300), unnamedPoet), storage.MaxNameBytes)
}

func TestFilterEras(t *testing.T) {
	eras := []types.Era{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Equal(t, eras, filterEras(eras, nil))
	assert.Equal(t, []types.Era{{Name: "a"}, {Name: "c"}}, filterEras(eras, []string{"c", "a"}))
	assert.Empty(t, filterEras(eras, []string{"z"}))
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateIdle: "idle", StateRunning: "running", StateStopped: "stopped", State(9): "unknown"} {
		assert.Equal(t, want, s.String(), fmt.Sprint(int32(s)))
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func decodePoem(t *testing.T, data []byte) types.Poem {
	t.Helper()
	var p types.Poem
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}
