package grib2jma

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a fetched message. A full 1 km composite is a few
// hundred KB; the cap only stops a misbehaving server.
const DefaultMaxBytes = 64 << 20

// Client fetches radar messages over HTTP.
type Client struct {
	HTTPClient *http.Client
	MaxBytes   int64 // 0 means DefaultMaxBytes
}

// NewClient returns a client with a 60 s request timeout.
func NewClient() *Client {
	return &Client{HTTPClient: &http.Client{Timeout: 60 * time.Second}}
}

// Fetch downloads the raw message at url. ctx bounds the whole request.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	// Read one byte past the limit to tell "exactly full" from "too large".
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, limit)
	}
	return body, nil
}

// FetchProduct downloads and decodes the message at url with d
// (a zero Decoder when d is nil).
func (c *Client) FetchProduct(ctx context.Context, url string, d *Decoder) (*Product, error) {
	raw, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = new(Decoder)
	}
	p, err := d.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return p, nil
}
