package webscraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yingtu35/site-deadlink-crawler/internal/storage"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// StaticHunter crawls the server-rendered HTML of one site breadth first and
// reports same-site links that do not answer 200.
type StaticHunter struct {
	scraperOptions *ScraperOptions // The scraper options to use
	url            string          // The canonical seed URL
	domain         string          // The host every crawled page must belong to

	extractor *LinkExtractor
	validator *LinkValidator
	transport http.RoundTripper

	sink     storage.Sink
	reporter Reporter
	logger   *zap.Logger
	now      func() time.Time

	results []domain.DeadlinkRecord // dead links of the last finished crawl
	summary Summary
}

// NewStaticHunter prepares a crawl of seed, which must already be verified
// (see VerifySeed). A sink is required.
func NewStaticHunter(seed string, options *ScraperOptions, opts ...HunterOption) (*StaticHunter, error) {
	if options == nil {
		options = DefaultScraperOptions()
	}
	if options.MaxConcurrency <= 0 || options.MaxPages <= 0 || options.MaxDepth < 0 {
		return nil, fmt.Errorf("invalid scraper options: %+v", *options)
	}

	seed, err := domain.CanonicalURL(seed)
	if err != nil {
		return nil, fmt.Errorf("error parsing seed URL: %w", err)
	}
	host, err := domain.GetHost(seed)
	if err != nil {
		return nil, fmt.Errorf("error getting domain from URL: %w", err)
	}

	d := &StaticHunter{
		scraperOptions: options,
		url:            seed,
		domain:         host,
		reporter:       nopReporter{},
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sink == nil {
		return nil, errors.New("a result sink is required")
	}
	if d.transport == nil {
		d.transport = NewTransport(options)
	}

	d.extractor = NewLinkExtractor(newClient(d.transport, options.PageTimeout), options.MaxBodyBytes, d.logger)
	d.validator = NewLinkValidator(newClient(d.transport, options.LinkTimeout))
	return d, nil
}

// StartHunting runs the crawl until the frontier is empty or MaxPages pages
// have been visited. Cancelling ctx aborts the current batch; links whose
// check was cut short are neither reported nor saved.
func (d *StaticHunter) StartHunting(ctx context.Context) error {
	history, err := d.sink.LoadHistory(ctx)
	if err != nil {
		return err
	}
	previous, err := d.sink.LoadExistingResults(ctx)
	if err != nil {
		return err
	}

	state := newCrawlState(d.url)
	gate := NewRescanGate(d.scraperOptions.RescanWindow, history, d.now)
	d.logger.Info("starting crawl",
		zap.String("session", state.id),
		zap.String("url", d.url),
		zap.Int("history", len(history)),
		zap.Int("previous_deadlinks", len(previous)))

	for state.pending() > 0 && state.visitedCount() < d.scraperOptions.MaxPages {
		if err := ctx.Err(); err != nil {
			d.finish(state, "Scraping interrupted.")
			return err
		}

		// Never form a batch that could push the visited set past MaxPages.
		batch := state.nextBatch(min(d.scraperOptions.MaxConcurrency, d.scraperOptions.MaxPages-state.visitedCount()))
		discovered := make([][]FrontierEntry, len(batch))

		var g errgroup.Group
		g.SetLimit(d.scraperOptions.MaxConcurrency)
		for i, entry := range batch {
			g.Go(func() error {
				discovered[i] = d.hunt(ctx, state, gate, entry, entry.URL == d.url)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			d.finish(state, "Scraping interrupted.")
			return err
		}

		for _, links := range discovered {
			state.enqueue(links)
		}
		d.reporter.Report(state.status(fmt.Sprintf("Queue size: %d", state.pending())))
	}

	d.finish(state, "Scraping completed.")
	return nil
}

// hunt processes one frontier entry and returns the children to enqueue.
func (d *StaticHunter) hunt(ctx context.Context, state *crawlState, gate *RescanGate, entry FrontierEntry, force bool) []FrontierEntry {
	if entry.Depth > d.scraperOptions.MaxDepth {
		return nil
	}
	// Check if the URL has already been visited
	if !state.visit(entry.URL) {
		return nil
	}
	state.observeDepth(entry.Depth)

	if gate.ShouldSkip(entry.URL, force) {
		state.skipped.Add(1)
		d.logger.Debug("skipping recently scanned page", zap.String("url", entry.URL))
		return nil
	}

	d.reporter.Report(state.status(fmt.Sprintf("Scanning: %s (Depth: %d)", entry.URL, entry.Depth)))
	d.logger.Debug("fetching page", zap.String("url", entry.URL), zap.Int("depth", entry.Depth))

	links, err := d.extractor.Extract(ctx, entry.URL)
	if ctx.Err() != nil {
		// An aborted fetch is not a scan; leave the history untouched.
		return nil
	}
	d.recordScan(ctx, gate, entry.URL, d.now())
	if err != nil {
		state.failed.Add(1)
		d.logger.Warn("error scanning page", zap.String("url", entry.URL), zap.Error(err))
		return nil
	}
	state.fetched.Add(1)

	var children []FrontierEntry
	for _, link := range links {
		if !domain.IsSameDomain(d.domain, link) {
			continue
		}
		outcome := d.validator.Check(ctx, link)
		if outcome.Verdict == Unchecked {
			return nil
		}
		if outcome.IsDead() {
			d.addDeadLink(ctx, state, domain.DeadlinkRecord{
				Source:       entry.URL,
				Deadlink:     link,
				DiscoveredAt: d.now(),
			}, outcome)
			continue
		}
		if entry.Depth+1 > d.scraperOptions.MaxDepth || state.isVisited(link) {
			continue
		}
		children = append(children, FrontierEntry{URL: link, Depth: entry.Depth + 1})
	}

	return children
}

func (d *StaticHunter) addDeadLink(ctx context.Context, state *crawlState, record domain.DeadlinkRecord, outcome Outcome) {
	state.addDeadlink(record)
	d.logger.Info("dead link found",
		zap.String("source", record.Source),
		zap.String("deadlink", record.Deadlink),
		zap.String("reason", outcome.Reason))
	if err := d.sink.AppendDeadlink(context.WithoutCancel(ctx), record); err != nil {
		d.logger.Error("failed to save dead link", zap.String("deadlink", record.Deadlink), zap.Error(err))
	}
}

func (d *StaticHunter) recordScan(ctx context.Context, gate *RescanGate, u string, scanned time.Time) {
	gate.Record(u, scanned)
	if err := d.sink.UpsertHistory(context.WithoutCancel(ctx), domain.HistoryRecord{URL: u, LastScanned: scanned}); err != nil {
		d.logger.Error("failed to update scan history", zap.String("url", u), zap.Error(err))
	}
}

func (d *StaticHunter) finish(state *crawlState, activity string) {
	d.reporter.Report(state.status(activity))
	d.results = state.deadlinkRecords()
	d.summary = state.summary()
	d.logger.Info("crawl finished",
		zap.String("session", d.summary.SessionID),
		zap.Int("pages", len(d.summary.Visited)),
		zap.Int("fetched", d.summary.Fetched),
		zap.Int("skipped", d.summary.Skipped),
		zap.Int("failed", d.summary.Failed),
		zap.Int("deadlinks", d.summary.Deadlinks),
		zap.Int("max_depth", d.summary.MaxDepth),
		zap.Int("abandoned", d.summary.FrontierLeft))
}

func (d *StaticHunter) GetResults() []domain.DeadlinkRecord {
	return d.results
}

func (d *StaticHunter) Summary() Summary {
	return d.summary
}

func (d *StaticHunter) PrintResults(w io.Writer) {
	printResults(w, d.results)
}
