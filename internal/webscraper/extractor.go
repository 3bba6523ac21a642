package webscraper

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// LinkExtractor downloads one page and returns the absolute URLs of its anchors.
type LinkExtractor struct {
	client       *http.Client
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewLinkExtractor(client *http.Client, maxBodyBytes int64, logger *zap.Logger) *LinkExtractor {
	if maxBodyBytes <= 0 {
		maxBodyBytes = MaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkExtractor{client: client, maxBodyBytes: maxBodyBytes, logger: logger}
}

// Extract fetches pageURL and returns every href resolved against it, in
// document order, duplicates included. A body over the size limit is cut at
// the limit and its prefix parsed. Any failure is a *FetchError.
func (e *LinkExtractor) Extract(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	body, truncated, err := e.readBody(res)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if truncated {
		e.logger.Warn("page exceeds body limit, parsing truncated content",
			zap.String("url", pageURL), zap.Int64("limit", e.maxBodyBytes))
	}

	links, err := getAllLinks(base, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	return links, nil
}

// readBody decodes the body and reads at most maxBodyBytes of it.
func (e *LinkExtractor) readBody(resp *http.Response) ([]byte, bool, error) {
	if resp == nil || resp.Body == nil {
		return nil, false, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, false, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, e.maxBodyBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > e.maxBodyBytes {
		return body[:e.maxBodyBytes], true, nil
	}
	return body, false, nil
}

func getAllLinks(base *url.URL, body io.Reader) ([]string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, err
	}

	var links []string
	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					link, err := domain.Resolve(base, a.Val)
					if err != nil {
						continue
					}
					links = append(links, link)
				}
			}
		}
	}

	return links, nil
}
