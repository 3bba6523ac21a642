package webscraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// FormatURL adds a missing http:// scheme and a www. host prefix.
func FormatURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, domain.ErrNoHost
	}
	domain.WithWWW(u)
	return u, nil
}

// VerifySeed formats raw and probes it with GET, retrying an http URL over
// https. It returns the canonical form of the first URL that answers 200.
func VerifySeed(ctx context.Context, client *http.Client, raw string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	u, err := FormatURL(raw)
	if err != nil {
		return "", &UnreachableSeedError{URL: raw, Attempts: []error{err}}
	}

	candidates := []string{u.String()}
	if u.Scheme == "http" {
		https := *u
		https.Scheme = "https"
		candidates = append(candidates, https.String())
	}

	var attempts []error
	for i, candidate := range candidates {
		if i > 0 {
			logger.Info("HTTP failed, retrying over HTTPS", zap.String("url", candidate))
		} else {
			logger.Info("attempting to connect", zap.String("url", candidate))
		}
		if err := probe(ctx, client, candidate); err != nil {
			attempts = append(attempts, err)
			continue
		}
		return domain.CanonicalURL(candidate)
	}

	return "", &UnreachableSeedError{URL: u.String(), Attempts: attempts}
}

func probe(ctx context.Context, client *http.Client, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s answered %d", u, resp.StatusCode)
	}
	return nil
}

// NewProbeClient returns the client used by VerifySeed.
func NewProbeClient(options *ScraperOptions) *http.Client {
	return newClient(NewTransport(options), options.ProbeTimeout)
}
