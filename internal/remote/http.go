package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent identifies the monitor to the report host.
const DefaultUserAgent = "AgriPrice/1.0 (+commodity price monitor; contact: admin@agriprice.local)"

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

// defaultMaxBody caps how much of a report page is read.
const defaultMaxBody = 8 << 20

// doGet performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned ReadCloser.
func (s *Source) doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	ua := strings.TrimSpace(s.cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Language", "en-PH,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (s *Source) maxBody() int64 {
	if s.cfg.MaxBodyMB > 0 {
		return int64(s.cfg.MaxBodyMB * (1 << 20))
	}
	return defaultMaxBody
}
