package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/diwancrawl/internal/config"
	"github.com/IshaanNene/diwancrawl/internal/observability"
	"github.com/IshaanNene/diwancrawl/internal/parser"
	"github.com/IshaanNene/diwancrawl/internal/storage"
	"github.com/IshaanNene/diwancrawl/internal/types"
)

// State represents the crawler's current lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateStopped State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Fetcher is the interface for all fetcher implementations.
type Fetcher interface {
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)
	Close() error
}

// Crawler walks the site era by era, poet by poet and poem by poem,
// strictly sequentially. Every poem is written once; what is already on
// disk is skipped, so an interrupted crawl resumes by simply running again.
type Crawler struct {
	cfg     *config.Config
	base    *url.URL
	fetcher Fetcher
	store   storage.Storage
	metrics *observability.Metrics
	logger  *slog.Logger

	state atomic.Int32
}

// NewCrawler creates a Crawler. metrics may be nil.
func NewCrawler(cfg *config.Config, f Fetcher, store storage.Storage, metrics *observability.Metrics, logger *slog.Logger) (*Crawler, error) {
	base, err := url.Parse(cfg.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", types.ErrInvalidURL, cfg.Site.BaseURL, err)
	}

	return &Crawler{
		cfg:     cfg,
		base:    base,
		fetcher: f,
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "crawler"),
	}, nil
}

// GetState returns the current crawler state.
func (c *Crawler) GetState() State {
	return State(c.state.Load())
}

// Run performs the full traversal. Fetch failures are logged and treated as
// "nothing found"; storage failures and cancellation end the run with an
// error.
func (c *Crawler) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("crawler is in state %s, cannot start", c.GetState())
	}
	defer c.state.Store(int32(StateStopped))

	start := time.Now()
	c.logger.Info("crawl starting",
		"base_url", c.base.String(),
		"output_dir", c.cfg.Crawl.OutputDir,
		"poem_delay", c.cfg.Crawl.PoemDelay,
		"poet_delay", c.cfg.Crawl.PoetDelay,
	)

	eras := parser.ExtractEras(c.fetchDocument(ctx, c.base.String(), types.TagRoot), c.base)
	if err := ctx.Err(); err != nil {
		return err
	}
	c.metrics.Eras(len(eras))
	if len(eras) == 0 {
		c.logger.Warn("no eras found", "url", c.base.String())
	}

	eras = filterEras(eras, c.cfg.Crawl.Eras)
	for _, era := range eras {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.logger.Info("era", "era", era.Name, "url", era.URL)

		poets := parser.ExtractPoets(c.fetchDocument(ctx, era.URL, types.TagEra), c.base)
		c.metrics.Poets(len(poets))
		c.logger.Info("poets found", "era", era.Name, "count", len(poets))

		for i, poet := range poets {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.logger.Debug("poet", "era", era.Name, "poet", poet.Name, "index", i+1, "total", len(poets))

			if err := c.ScrapePoet(ctx, poet, era.Name); err != nil {
				return err
			}
			c.metrics.PoetDone()

			if err := sleep(ctx, c.cfg.Crawl.PoetDelay); err != nil {
				return err
			}
		}
	}

	c.logger.Info("crawl complete",
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"stats", c.metrics.Snapshot(),
	)
	return nil
}

// ScrapePoet downloads every poem listed on a poet's profile page that is
// not stored yet. Only directory and write failures are returned.
func (c *Crawler) ScrapePoet(ctx context.Context, poet types.Poet, eraName string) error {
	eraDir := dirName(eraName, unnamedEra)
	poetDir := dirName(poet.Name, dirName(path.Base(poet.URL), unnamedPoet))
	if err := c.store.Prepare(eraDir, poetDir); err != nil {
		return err
	}

	doc := c.fetchDocument(ctx, poet.URL, types.TagPoet)
	if doc == nil {
		return nil
	}

	links := parser.ExtractPoemLinks(doc)
	if len(links) == 0 {
		c.logger.Info("no poems found", "poet", poet.Name)
		return nil
	}
	c.logger.Info("scraping poet", "poet", poet.Name, "poems", len(links))

	names := newNameAllocator()
	var saved int
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := i + 1
		if link.Href == "" {
			continue
		}

		key := storage.Key{Era: eraDir, Poet: poetDir, Name: names.allocate(link.Title, index)}
		if c.store.Exists(key) {
			c.metrics.PoemSkipped()
			c.logger.Info("already saved", "index", index, "total", len(links), "title", link.Title)
			continue
		}

		ok, err := c.scrapePoem(ctx, link, key, poet.Name, eraName, index, len(links))
		if err != nil {
			return err
		}
		if ok {
			saved++
		}

		if err := sleep(ctx, c.cfg.Crawl.PoemDelay); err != nil {
			return err
		}
	}

	c.logger.Info("poet completed", "poet", poet.Name, "saved", saved, "total", len(links))
	return nil
}

// scrapePoem fetches and stores one poem. It reports whether a file was
// written.
func (c *Crawler) scrapePoem(ctx context.Context, link types.PoemLink, key storage.Key, poetName, eraName string, index, total int) (bool, error) {
	poemURL, err := c.base.Parse(link.Href)
	if err != nil {
		c.metrics.PoemFailed()
		c.logger.Warn("bad poem link", "href", link.Href, "error", err)
		return false, nil
	}

	c.logger.Info("downloading", "index", index, "total", total, "title", link.Title)

	content := parser.ExtractPoem(c.fetchDocument(ctx, poemURL.String(), types.TagPoem))
	if content == nil {
		c.metrics.PoemFailed()
		return false, nil
	}
	if len(content.Verses) == 0 {
		c.metrics.PoemEmpty()
		c.logger.Warn("poem has no verses", "title", link.Title, "url", poemURL.String())
		return false, nil
	}

	poem := types.NewPoem(eraName, poetName, link.Title, poemURL.String(), content)
	if err := c.store.Store(ctx, key, poem); err != nil {
		return false, err
	}
	c.metrics.PoemSaved()
	return true, nil
}

// fetchDocument fetches rawURL and parses it. Any failure is logged and
// yields nil.
func (c *Crawler) fetchDocument(ctx context.Context, rawURL, tag string) *goquery.Document {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		c.logger.Warn("invalid url", "url", rawURL, "error", err)
		return nil
	}
	req.Tag = tag

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		c.logger.Warn("fetch failed", "url", rawURL, "tag", tag, "error", err)
		return nil
	}

	doc, err := resp.Document()
	if err != nil {
		c.logger.Warn("parse failed", "url", rawURL, "error", err)
		return nil
	}
	c.logger.Debug("page loaded", "url", resp.FinalURL, "tag", tag, "duration", resp.FetchDuration)
	return doc
}

// filterEras keeps the eras named in allow, in site order. An empty allow
// list keeps everything.
func filterEras(eras []types.Era, allow []string) []types.Era {
	if len(allow) == 0 {
		return eras
	}

	wanted := make(map[string]bool, len(allow))
	for _, name := range allow {
		wanted[strings.TrimSpace(name)] = true
	}

	kept := make([]types.Era, 0, len(eras))
	for _, era := range eras {
		if wanted[strings.TrimSpace(era.Name)] {
			kept = append(kept, era)
		}
	}
	return kept
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
