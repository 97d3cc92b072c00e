package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// maxPickAttempts bounds the retry loop when the catalog keeps
// returning questions the caller has excluded. The remote random
// endpoint has no exclusion parameter, so exclusion is client-side.
const maxPickAttempts = 8

// HTTPCatalog queries the question service over HTTP.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalog(baseURL string) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// PickQuestion fetches a random question matching the filters,
// retrying until one outside the exclusion set comes back.
func (c *HTTPCatalog) PickQuestion(ctx context.Context, exclude []int, category, difficulty string) (*Ref, error) {
	for attempt := 0; attempt < maxPickAttempts; attempt++ {
		ref, err := c.fetchRandom(ctx, category, difficulty)
		if err != nil {
			return nil, err
		}
		if !excluded(ref.ID, exclude) {
			return ref, nil
		}
	}
	return nil, ErrNoQuestion
}

func (c *HTTPCatalog) fetchRandom(ctx context.Context, category, difficulty string) (*Ref, error) {
	params := url.Values{}
	if category != "" {
		params.Set("topic", category)
	}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}

	endpoint := c.baseURL + "/api/v1/questions/random"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoQuestion
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("question service returned status %d", resp.StatusCode)
	}

	var ref Ref
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, fmt.Errorf("decoding question service response: %w", err)
	}
	return &ref, nil
}
