package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher retrieves the raw bytes behind a content hash.
type Fetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// maxPayloadBytes caps a metadata document. Payloads are small JSON
// objects; anything larger is garbage or abuse.
const maxPayloadBytes = 1 << 20

// HTTPFetcher fetches content-addressed JSON through an HTTP gateway,
// retrying transient failures with exponential backoff.
type HTTPFetcher struct {
	// Gateway is the base URL, e.g. "https://ipfs.io/ipfs".
	Gateway string
	// Client defaults to a 30-second-timeout client when nil.
	Client *http.Client
	// MaxElapsed bounds the whole retry loop; defaults to 2 minutes.
	MaxElapsed time.Duration
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch GETs gateway/hash. A non-2xx status below 500 fails permanently;
// 5xx and transport errors are retried until MaxElapsed.
func (f *HTTPFetcher) Fetch(ctx context.Context, hash string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	url := strings.TrimRight(f.Gateway, "/") + "/" + hash

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 2 * time.Minute
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode >= 500:
			return fmt.Errorf("gateway returned %s", resp.Status)
		default:
			return backoff.Permanent(fmt.Errorf("gateway returned %s", resp.Status))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", hash, err)
	}
	return body, nil
}
