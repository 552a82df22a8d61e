// Package imagesearch provides the product-finder HTTP adapter.
// Clean Architecture: Adapter implementing ports.ImageFinder.
package imagesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
)

// Client calls the external product-finder service with extracted
// attributes and returns matching image URLs.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a product-finder client. The service can be slow to
// match, so the timeout defaults to 10 seconds.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = "http://localhost:5000/find_products"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type findRequest struct {
	Input             string `json:"input"`
	MinMatchThreshold int    `json:"min_match_threshold"`
}

type findResponse struct {
	Images []string `json:"images"`
}

// FindProducts posts the attribute pairs and returns the matched images.
func (c *Client) FindProducts(ctx context.Context, attrs []entities.AttributePair) ([]string, error) {
	input, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshaling attributes: %w", err)
	}

	body, err := json.Marshal(findRequest{Input: string(input), MinMatchThreshold: 1})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling product finder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product finder returned status %d", resp.StatusCode)
	}

	var findResp findResponse
	if err := json.NewDecoder(resp.Body).Decode(&findResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if findResp.Images == nil {
		return nil, fmt.Errorf("no images returned from product finder")
	}
	return findResp.Images, nil
}
