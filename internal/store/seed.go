package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSeeder fetches the initial copy of a collection from a static file
// host, e.g. GET <base>/data/announcements.json. Used only when a
// collection has never been written locally.
type HTTPSeeder struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSeeder(baseURL string) *HTTPSeeder {
	return &HTTPSeeder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSeeder) Fetch(ctx context.Context, key string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/data/%s.json", s.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store: seed %s: status %d", key, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))

	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("store: seed %s: invalid json", key)
	}

	return json.RawMessage(body), nil
}
