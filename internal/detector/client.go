package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/retailx/theft-monitor/pkg/types"
)

// Client calls an external inference service over HTTP. Frames are
// posted as JPEG multipart uploads; the service answers with a JSON
// detection list.
type Client struct {
	inferenceURL string
	threshold    float64
	client       *http.Client
}

// NewClient creates a detector client. The threshold filters detections
// below the given confidence; responses are otherwise passed through in
// emission order.
func NewClient(inferenceURL string, threshold float64, timeout time.Duration) *Client {
	return &Client{
		inferenceURL: inferenceURL,
		threshold:    threshold,
		client:       &http.Client{Timeout: timeout},
	}
}

// Detect runs inference for one frame.
func (c *Client) Detect(ctx context.Context, frame *types.Frame) ([]types.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := jpeg.Encode(part, frame.Image, nil); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []rawDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return Normalize(result.Detections, c.threshold), nil
}

// CheckHealth probes the inference service.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.inferenceURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
