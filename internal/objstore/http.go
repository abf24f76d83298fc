package objstore

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP object store client.
type HTTPOptions struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond bounds calls against the bucket endpoint.
	RequestsPerSecond rate.Limit
}

// HTTPStore fetches objects over HTTP with retry, exponential backoff and
// rate limiting.
type HTTPStore struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    HTTPOptions
}

// NewHTTP creates an HTTPStore with the given options.
func NewHTTP(opts HTTPOptions) *HTTPStore {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 20
	}
	return &HTTPStore{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(opts.RequestsPerSecond, int(opts.RequestsPerSecond)),
		opts:    opts,
	}
}

func (s *HTTPStore) objectURL(name string) (string, error) {
	base, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return "", eris.Wrapf(err, "objstore: parse base url %s", s.opts.BaseURL)
	}
	return base.JoinPath(name).String(), nil
}

func (s *HTTPStore) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := range s.opts.MaxRetries {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "objstore: rate limiter wait")
		}

		resp, err := s.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("object request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			s.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("objstore: http %d from %s", resp.StatusCode, req.URL.String())
			s.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}
	return nil, eris.Wrap(lastErr, "objstore: all retries exhausted")
}

func (s *HTTPStore) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *HTTPStore) FetchToFile(ctx context.Context, name, path string) error {
	u, err := s.objectURL(name)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "objstore: create request")
	}

	resp, err := s.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("objstore: unexpected status %d fetching %s", resp.StatusCode, name)
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "objstore: create %s", path)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, resp.Body); err != nil {
		return eris.Wrapf(err, "objstore: write object %s", name)
	}
	return nil
}

func (s *HTTPStore) Delete(ctx context.Context, name string) error {
	u, err := s.objectURL(name)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return eris.Wrap(err, "objstore: create delete request")
	}

	resp, err := s.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return eris.Errorf("objstore: unexpected status %d deleting %s", resp.StatusCode, name)
	}
	return nil
}
