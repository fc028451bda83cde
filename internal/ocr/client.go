package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Result is one recognized text span as returned by the OCR engine:
// the text, the engine's confidence in [0,1], and a four-point bounding
// box of [x,y] pairs in image coordinates.
type Result struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       [][]float64 `json:"bbox"`
}

// Client talks to the external OCR engine over HTTP. The engine is a black
// box that accepts an image upload and returns recognized text spans.
// A Client is safe for concurrent use; each request carries its own timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OCR engine client. timeout bounds each request;
// a timed-out request is a recoverable per-request failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping verifies the OCR engine is reachable. Called once at startup; the
// service cannot run without its engine.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("OCR engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OCR engine returned status %d", resp.StatusCode)
	}
	return nil
}

// ReadImage submits an image to the engine and returns the recognized
// fragments. The engine gives no guarantees about reading order or field
// labeling; callers are expected to reconstruct structure themselves.
func (c *Client) ReadImage(ctx context.Context, filename string, imageData []byte) ([]Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("OCR engine returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var results []Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	return results, nil
}
