// Package horizons implements the ephemeris.Provider interface against the
// JPL Horizons API (https://ssd-api.jpl.nasa.gov/doc/horizons.html).
//
// Requests ask for a geocentric observer table of the Sun (target body 10)
// with astrometric RA/Dec, one row, and parse the row between the $$SOE and
// $$EOE markers of the returned text payload. Responses are cached by
// timestamp, and transient failures (timeouts, 5xx) are retried with
// exponential backoff.
package horizons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mvermeulen/analemma/pkg/cache"
	"github.com/mvermeulen/analemma/pkg/ephemeris"
	"github.com/mvermeulen/analemma/pkg/errors"
	"github.com/mvermeulen/analemma/pkg/httputil"
)

// DefaultBaseURL is the Horizons API endpoint.
const DefaultBaseURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

// DefaultCacheTTL is how long ephemeris responses stay cached. Solar
// coordinates for a fixed instant never change, but a bounded TTL keeps the
// cache from growing without limit.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Client is an ephemeris provider backed by the JPL Horizons service.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	baseURL string
	ttl     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Horizons client using backend for response caching.
// Pass cache.NewNullCache() to disable caching.
func New(backend cache.Cache, opts ...Option) *Client {
	c := &Client{
		http:    httputil.NewHTTPClient(),
		cache:   backend,
		baseURL: DefaultBaseURL,
		ttl:     DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider for display and logging.
func (c *Client) Name() string { return "jpl-horizons" }

// Apparent returns the Sun's apparent declination and right ascension at t.
// The result is cached by minute-truncated UTC timestamp.
func (c *Client) Apparent(ctx context.Context, t time.Time) (ephemeris.Equatorial, error) {
	t = t.UTC().Truncate(time.Minute)
	key := "horizons:sun:" + t.Format("2006-01-02T15:04")

	if data, ok, _ := c.cache.Get(ctx, key); ok {
		var eq ephemeris.Equatorial
		if err := json.Unmarshal(data, &eq); err == nil {
			return eq, nil
		}
	}

	var eq ephemeris.Equatorial
	err := httputil.RetryWithBackoff(ctx, func() error {
		var ferr error
		eq, ferr = c.fetch(ctx, t)
		return ferr
	})
	if err != nil {
		return ephemeris.Equatorial{}, err
	}

	if data, err := json.Marshal(eq); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return eq, nil
}

func (c *Client) fetch(ctx context.Context, t time.Time) (ephemeris.Equatorial, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(t), nil)
	if err != nil {
		return ephemeris.Equatorial{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ephemeris.Equatorial{}, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeNetwork, err, "horizons request"),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return ephemeris.Equatorial{}, &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeNetwork, "horizons status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return ephemeris.Equatorial{}, errors.New(errors.ErrCodeNetwork, "horizons status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ephemeris.Equatorial{}, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeNetwork, err, "read horizons response"),
		}
	}

	eq, err := ParseObserverTable(string(body))
	if err != nil {
		return ephemeris.Equatorial{}, err
	}
	return eq, nil
}

// requestURL builds the observer-table query for the Sun at instant t.
// A one-minute window with a single step yields exactly one data row.
func (c *Client) requestURL(t time.Time) string {
	stop := t.Add(time.Minute)
	q := url.Values{}
	q.Set("format", "text")
	q.Set("COMMAND", "'10'")
	q.Set("EPHEM_TYPE", "'OBSERVER'")
	q.Set("CENTER", "'500@399'")
	q.Set("QUANTITIES", "'1'")
	q.Set("ANG_FORMAT", "'HMS'")
	q.Set("START_TIME", fmt.Sprintf("'%s'", t.Format("2006-01-02 15:04")))
	q.Set("STOP_TIME", fmt.Sprintf("'%s'", stop.Format("2006-01-02 15:04")))
	q.Set("STEP_SIZE", "'1'")
	return c.baseURL + "?" + q.Encode()
}

// Ensure Client implements the provider interface.
var _ ephemeris.Provider = (*Client)(nil)
