// Package linkhealth probes reference URLs and caches their reachability
// classification. A probe is a shallow existence check: it says whether the
// URL currently resolves to something, not whether the document behind it is
// still the right one.
package linkhealth

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Classification is the outcome of a reachability probe.
type Classification string

const (
	ClassOK       Classification = "ok"
	ClassNotFound Classification = "not-found"
	ClassUnknown  Classification = "unknown"
)

const maxBodyRead = 1 << 20 // cap GET fallback body drain at 1MB

// Checker issues lightweight existence probes. It never returns an error:
// every failure mode collapses to ClassUnknown.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewChecker creates a Checker with a per-probe timeout.
func NewChecker(timeout time.Duration, userAgent string) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "raido-linkcheck/1.0"
	}
	return &Checker{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Probe classifies a single URL. It tries HEAD first; if that fails at the
// transport level or yields anything other than a definitive ok/not-found,
// one GET fallback is issued. Government portals routinely answer HEAD with
// 403 while serving GET fine, so an ambiguous HEAD is never trusted as final.
func (c *Checker) Probe(ctx context.Context, link string) Classification {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, err := c.do(probeCtx, http.MethodHead, link)
	if err != nil || classify(status) == ClassUnknown {
		status, err = c.do(probeCtx, http.MethodGet, link)
		if err != nil {
			return ClassUnknown
		}
	}
	return classify(status)
}

func classify(status int) Classification {
	switch {
	case status >= 200 && status < 300:
		return ClassOK
	case status == http.StatusNotFound || status == http.StatusGone:
		return ClassNotFound
	default:
		return ClassUnknown
	}
}

func (c *Checker) do(ctx context.Context, method, link string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain a little body on GET so keep-alive connections are reusable.
	if method == http.MethodGet {
		_, _ = io.CopyN(io.Discard, resp.Body, maxBodyRead)
	}

	return resp.StatusCode, nil
}
