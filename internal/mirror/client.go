package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPClient replicates collection documents to the remote mirror with
// POST <base>/api/<collection>. The mirror answers {"success": bool};
// anything else counts as a failed push.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

type pushResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Push(ctx context.Context, collection string, doc json.RawMessage) error {
	url := fmt.Sprintf("%s/api/%s", c.baseURL, collection)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(doc))

	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mirror: push %s: status %d", collection, resp.StatusCode)
	}

	var body pushResponse

	err = json.NewDecoder(resp.Body).Decode(&body)

	if err != nil {
		return fmt.Errorf("mirror: push %s: bad response: %w", collection, err)
	}

	if !body.Success {
		if body.Error != "" {
			return fmt.Errorf("mirror: push %s rejected: %s", collection, body.Error)
		}
		return fmt.Errorf("mirror: push %s rejected", collection)
	}

	return nil
}
