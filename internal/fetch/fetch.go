// Package fetch implements the fetcher (C4): a single public Fetch
// operation bounded by a global and a per-host counting semaphore, with
// linear retry backoff and a connection-close-per-request transport.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dustin/go-humanize"

	"github.com/jra3/hn-archiver/internal/crawlerr"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetries      = 3
	DefaultGlobalLimit  = 100
	DefaultPerHostLimit = 1
	backoffUnit         = 5 * time.Second
)

// Fetcher issues GETs under a global and a per-host concurrency cap. The
// zero value is not usable; construct with New.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	retries      int
	globalSem    *semaphore.Weighted
	perHostLimit int64

	hostMu   sync.Mutex
	hostSems map[string]*semaphore.Weighted

	// sleep is the backoff wait, overridable in tests so retry timing
	// doesn't require real wall-clock sleeps.
	sleep func(ctx context.Context, d time.Duration) error
}

// Config carries the fetcher's tunables, each exposed as a CLI option.
type Config struct {
	Timeout      time.Duration
	Retries      int
	GlobalLimit  int64
	PerHostLimit int64
	SiteName     string
}

func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		GlobalLimit:  DefaultGlobalLimit,
		PerHostLimit: DefaultPerHostLimit,
	}
}

// New builds a Fetcher with a connection-close-per-request transport: no
// keep-alive reuse across calls, trading throughput for predictability.
func New(cfg Config) *Fetcher {
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = DefaultGlobalLimit
	}
	if cfg.PerHostLimit <= 0 {
		cfg.PerHostLimit = DefaultPerHostLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}

	transport := &http.Transport{DisableKeepAlives: true}
	userAgent := "hn-archiver/1.0"
	if cfg.SiteName != "" {
		userAgent = fmt.Sprintf("hn-archiver/1.0 (+%s)", cfg.SiteName)
	}

	return &Fetcher{
		client:       &http.Client{Transport: transport, Timeout: cfg.Timeout},
		userAgent:    userAgent,
		timeout:      cfg.Timeout,
		retries:      cfg.Retries,
		globalSem:    semaphore.NewWeighted(cfg.GlobalLimit),
		perHostLimit: cfg.PerHostLimit,
		hostSems:     make(map[string]*semaphore.Weighted),
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hostKey normalizes a URL's authority for per-host semaphore lookup:
// case-insensitive, port-insensitive.
func hostKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}

func (f *Fetcher) hostSemaphore(host string) *semaphore.Weighted {
	f.hostMu.Lock()
	defer f.hostMu.Unlock()
	sem, ok := f.hostSems[host]
	if !ok {
		sem = semaphore.NewWeighted(f.perHostLimit)
		f.hostSems[host] = sem
	}
	return sem
}

// Fetch issues a single HTTP GET against rawURL, retrying on any network
// failure or non-2xx status up to f.retries additional times after the
// first attempt, with linear backoff (5*n seconds between attempt n and
// n+1). Both the global and per-host semaphore permits are held for the
// whole call, across every attempt, and released unconditionally on
// return.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	host, err := hostKey(rawURL)
	if err != nil {
		return nil, &crawlerr.FetchError{URL: rawURL, Err: err}
	}

	if err := f.globalSem.Acquire(ctx, 1); err != nil {
		return nil, &crawlerr.FetchError{URL: rawURL, Err: crawlerr.ErrCancelled}
	}
	defer f.globalSem.Release(1)

	hostSem := f.hostSemaphore(host)
	if err := hostSem.Acquire(ctx, 1); err != nil {
		return nil, &crawlerr.FetchError{URL: rawURL, Err: crawlerr.ErrCancelled}
	}
	defer hostSem.Release(1)

	maxAttempts := f.retries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, err := f.attempt(ctx, rawURL)
		if err == nil {
			log.Printf("[fetch] success url=%s attempt=%d bytes=%s", rawURL, attempt, humanize.Bytes(uint64(len(body))))
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, &crawlerr.FetchError{URL: rawURL, Err: crawlerr.ErrCancelled}
		}
		if attempt == maxAttempts {
			break
		}

		log.Printf("[fetch] attempt %d/%d failed url=%s err=%v", attempt, maxAttempts, rawURL, err)
		if err := f.sleep(ctx, time.Duration(attempt)*backoffUnit); err != nil {
			return nil, &crawlerr.FetchError{URL: rawURL, Err: crawlerr.ErrCancelled}
		}
	}

	log.Printf("[fetch] exhausted retries url=%s err=%v", rawURL, lastErr)
	return nil, &crawlerr.FetchError{URL: rawURL, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
