package webscraper

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/internal/progress"
	"github.com/yingtu35/site-deadlink-crawler/internal/storage"
)

// ScraperOptions holds the crawl limits. They must not change once a crawl
// has started.
type ScraperOptions struct {
	MaxPages          int
	MaxDepth          int
	MaxConcurrency    int
	RescanWindow      time.Duration
	PageTimeout       time.Duration
	LinkTimeout       time.Duration
	ProbeTimeout      time.Duration
	MaxBodyBytes      int64
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
}

func DefaultScraperOptions() *ScraperOptions {
	return &ScraperOptions{
		MaxPages:       MaxPages,
		MaxDepth:       MaxDepth,
		MaxConcurrency: MaxConcurrency,
		RescanWindow:   RescanWindow,
		PageTimeout:    PageTimeout,
		LinkTimeout:    LinkTimeout,
		ProbeTimeout:   ProbeTimeout,
		MaxBodyBytes:   MaxBodyBytes,
		UserAgent:      UserAgent,
	}
}

// OptionsFromConfig converts the crawler section of the configuration.
func OptionsFromConfig(c config.CrawlerConfig) *ScraperOptions {
	return &ScraperOptions{
		MaxPages:          c.MaxPages,
		MaxDepth:          c.MaxDepth,
		MaxConcurrency:    c.Concurrency,
		RescanWindow:      c.RescanWindow,
		PageTimeout:       c.PageTimeout,
		LinkTimeout:       c.LinkTimeout,
		ProbeTimeout:      c.ProbeTimeout,
		MaxBodyBytes:      c.MaxBodyBytes,
		UserAgent:         c.UserAgent,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// Reporter receives progress updates. It is called from worker goroutines.
type Reporter interface {
	Report(status progress.Status)
}

type nopReporter struct{}

func (nopReporter) Report(progress.Status) {}

// HunterOption configures the collaborators of a StaticHunter.
type HunterOption func(*StaticHunter)

func WithSink(s storage.Sink) HunterOption {
	return func(d *StaticHunter) { d.sink = s }
}

func WithReporter(r Reporter) HunterOption {
	return func(d *StaticHunter) { d.reporter = r }
}

func WithLogger(l *zap.Logger) HunterOption {
	return func(d *StaticHunter) { d.logger = l }
}

// WithClock replaces time.Now, used for history timestamps and the rescan gate.
func WithClock(now func() time.Time) HunterOption {
	return func(d *StaticHunter) { d.now = now }
}

// WithTransport replaces the HTTP transport shared by page fetches and link checks.
func WithTransport(rt http.RoundTripper) HunterOption {
	return func(d *StaticHunter) { d.transport = rt }
}

// NewTransport returns the transport used for every request of a crawl. It
// sets the User-Agent and, when RequestsPerSecond is positive, waits on a
// shared token bucket before each request.
func NewTransport(options *ScraperOptions) http.RoundTripper {
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), options.Burst)
	}
	return &politeTransport{
		next:      http.DefaultTransport.(*http.Transport).Clone(),
		limiter:   limiter,
		userAgent: options.UserAgent,
	}
}

type politeTransport struct {
	next      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
}

func (t *politeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}

func newClient(rt http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
	}
}
