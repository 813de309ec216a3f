// Package sources implements the individual market data providers the
// sentiment aggregator fans out to. Exchange-backed sources go through their
// SDKs; the public JSON APIs share one retrying HTTP helper.
package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

const (
	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// getJSON fetches a URL and decodes the JSON body into out, retrying
// transient failures with jittered exponential backoff.
func getJSON(ctx context.Context, url string, out any) error {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Duration()):
			}
		}

		lastErr = fetchJSON(ctx, url, out)
		if lastErr == nil {
			return nil
		}
	}
	return errors.Wrapf(lastErr, "GET %s after %d attempts", url, maxAttempts)
}

func fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
