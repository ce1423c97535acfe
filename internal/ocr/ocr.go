// Package ocr wraps the external receipt scanning service.
//
// The service is an opaque collaborator: it gets image bytes and
// returns structured fields with per-field confidence scores. This
// package never interprets the image itself.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when the scanning service cannot be
// reached or responds with an error. It is never fatal, callers fall
// back to manual entry.
var ErrUnavailable = errors.New("the receipt scanning service is unavailable")

// Confidence holds the per-field confidence scores, each 0.0 to 1.0.
type Confidence struct {
	Vendor    float64 `json:"vendor" example:"0.95"`
	Total     float64 `json:"total" example:"0.98"`
	Date      float64 `json:"date" example:"0.9"`
	LineItems float64 `json:"lineItems" example:"0.7"`
}

// LineItem is a single recognized receipt line.
type LineItem struct {
	Description string          `json:"description" example:"2x4 lumber"`
	Amount      decimal.Decimal `json:"amount" example:"12.99"`
}

// Result is the structured data extracted from a receipt image.
type Result struct {
	Vendor     string          `json:"vendor" example:"Home Depot"`
	Total      decimal.Decimal `json:"total" example:"131.37"`
	Date       time.Time       `json:"date" example:"2024-05-17T00:00:00Z"`
	LineItems  []LineItem      `json:"lineItems"`
	Confidence Confidence      `json:"confidence"`
}

// Scanner extracts receipt data from an image.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (Result, error)
}

// Client is a Scanner backed by an HTTP scanning service.
type Client struct {
	url    string
	client *http.Client
}

// NewClient returns a Client for the scanning service at the given URL.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Scan posts the image to the scanning service.
//
// All transport and HTTP level failures are reported as ErrUnavailable
// since there is nothing a caller can do to distinguish them.
func (c *Client) Scan(ctx context.Context, image []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: service responded with HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return result, nil
}
