// Package museofile fetches raw pages from the Musées de France open-data
// catalog. It only moves bytes; decoding belongs to the app layer.
package museofile

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"museum_directory/internal/adapters/observability"
	"museum_directory/internal/domain"
)

const (
	service     = "museofile"
	maxAttempts = 4
	maxBody     = 8 << 20
	userAgent   = "museum-directory/1.0"
	// maxReserve caps the share of the caller's deadline kept back from the
	// transport so the caller can still answer, e.g. from the mock catalog.
	maxReserve = time.Second
)

type Options struct {
	// Endpoints are tried in order; later entries are mirrors or legacy paths.
	Endpoints []string
	Timeout   time.Duration
	RPS       int
	// APIKey is optional; the public catalog works without one at lower quotas.
	APIKey string
	// MaxRetryWait bounds a single wait between attempts, Retry-After included.
	// Defaults to Timeout.
	MaxRetryWait time.Duration
}

type Client struct {
	endpoints []string
	hc        *http.Client
	key       string
	rl        *rate.Limiter
	maxWait   time.Duration
}

var _ domain.CatalogFetcher = (*Client)(nil)

func New(o Options) (*Client, error) {
	eps := make([]string, 0, len(o.Endpoints))
	for _, e := range o.Endpoints {
		if e = strings.TrimSpace(e); e != "" {
			eps = append(eps, strings.TrimRight(e, "?"))
		}
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("at least one catalog endpoint is required")
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetryWait <= 0 {
		o.MaxRetryWait = o.Timeout
	}
	return &Client{
		endpoints: eps,
		hc:        &http.Client{Timeout: o.Timeout},
		key:       o.APIKey,
		rl:        rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		maxWait:   o.MaxRetryWait,
	}, nil
}

// Fetch issues one catalog query and returns the raw response body. Failures
// come back as domain errors: NetworkError for transport and status problems,
// UpstreamFormatError when the upstream rejects the query itself.
//
// When ctx has a deadline, all attempts together stop a little before it.
func (c *Client) Fetch(ctx context.Context, params url.Values) ([]byte, error) {
	ctx, cancel := budget(ctx)
	defer cancel()

	candidates := make([]string, len(c.endpoints))
	for i, e := range c.endpoints {
		candidates[i] = e
		if q := params.Encode(); q != "" {
			candidates[i] = e + "?" + q
		}
	}
	return c.getFirst(ctx, candidates)
}

// ---- Internals ----

var (
	ErrNotFound = errors.New("museofile: not found")
	ErrRejected = errors.New("museofile: query rejected")
)

// getFirst walks the candidates until one answers. A rejected query is not
// retried elsewhere since every mirror speaks the same query language.
func (c *Client) getFirst(ctx context.Context, urls []string) ([]byte, error) {
	var last error
	for _, u := range urls {
		body, err := c.get(ctx, u)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, domain.NewNetworkError(ctx.Err())
		}
		if errors.Is(err, ErrRejected) {
			return nil, domain.NewUpstreamFormatError(err.Error())
		}
		last = err
	}
	return nil, domain.NewNetworkError(last)
}

// get performs a GET with client-side rate limiting and retries.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := endpointLabel(rawURL)

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		if c.key != "" {
			req.Header.Set("Authorization", "Apikey "+c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, c.clampWait(backoff(i))) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
			return b, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case http.StatusBadRequest:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(string(b)))

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			wait = c.clampWait(wait)
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// budget derives the context the attempts run under: the caller's deadline
// minus a tenth of the remaining time, at most maxReserve.
func budget(ctx context.Context) (context.Context, context.CancelFunc) {
	dl, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	reserve := time.Until(dl) / 10
	if reserve > maxReserve {
		reserve = maxReserve
	}
	return context.WithDeadline(ctx, dl.Add(-reserve))
}

func (c *Client) clampWait(d time.Duration) time.Duration {
	if d > c.maxWait {
		return c.maxWait
	}
	return d
}

// endpointLabel keeps metric cardinality bounded: host and path, no query.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Host + u.Path
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
