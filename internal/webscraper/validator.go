package webscraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"golang.org/x/sync/singleflight"
)

type Verdict int

const (
	Alive Verdict = iota
	Dead
	// Unchecked means the caller's context ended before the check finished.
	Unchecked
)

func (v Verdict) String() string {
	switch v {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return "unchecked"
	}
}

// Outcome is the result of a liveness check. Reason is empty unless Dead.
type Outcome struct {
	Verdict    Verdict
	StatusCode int
	Reason     string
	Err        *ValidationError
}

func (o Outcome) IsDead() bool {
	return o.Verdict == Dead
}

// LinkValidator checks links with HEAD requests. Only a 200 answer is alive;
// every other status and every request failure is dead.
type LinkValidator struct {
	client      *http.Client
	flightGroup singleflight.Group // concurrent checks of one URL share a request
}

func NewLinkValidator(client *http.Client) *LinkValidator {
	return &LinkValidator{client: client}
}

func (v *LinkValidator) Check(ctx context.Context, link string) Outcome {
	val, _, _ := v.flightGroup.Do(link, func() (interface{}, error) {
		return v.check(ctx, link), nil
	})
	return val.(Outcome)
}

func (v *LinkValidator) check(ctx context.Context, link string) Outcome {
	if ctx.Err() != nil {
		return Outcome{Verdict: Unchecked}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return deadOutcome(link, "invalid", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: Unchecked}
		}
		return deadOutcome(link, classify(err), err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Outcome{
			Verdict:    Dead,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("status %d", resp.StatusCode),
		}
	}
	return Outcome{Verdict: Alive, StatusCode: resp.StatusCode}
}

func deadOutcome(link, reason string, err error) Outcome {
	return Outcome{
		Verdict: Dead,
		Reason:  reason,
		Err:     &ValidationError{URL: link, Reason: reason, Err: err},
	}
}

func classify(err error) string {
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "refused"
	default:
		return "network"
	}
}
