package sources

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const defaultUserAgent = "techwatch/1.0"

// stripPolicy removes every HTML tag; feeds routinely embed markup in
// titles and summaries.
var stripPolicy = bluemonday.StrictPolicy()

// client is the shared HTTP helper every connector uses.
type client struct {
	http      *http.Client
	userAgent string
}

func newClient(timeout time.Duration, userAgent string) *client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// statusError is returned for non-2xx responses so callers can tell
// rate-limiting apart from other failures.
type statusError struct {
	URL  string
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// IsRateLimited reports whether err is an HTTP 429 from an upstream.
func IsRateLimited(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/xml;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{URL: url, Code: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// cleanText strips markup and entities and collapses whitespace.
func cleanText(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
