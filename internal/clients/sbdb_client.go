package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"neowatch/internal/loader"
	"neowatch/internal/models"
)

// SBDBClient fetches the close-approach dataset from the JPL SBDB CAD
// API, which serves the same {fields, data} envelope as the local JSON
// snapshot.
type SBDBClient interface {
	FetchCloseApproaches(ctx context.Context) ([]*models.CloseApproach, error)
}

type sbdbClient struct {
	cadURL     string
	httpClient *http.Client
}

func NewSBDBClient(cadURL string) SBDBClient {
	return &sbdbClient{
		cadURL: cadURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

func (c *sbdbClient) FetchCloseApproaches(ctx context.Context) ([]*models.CloseApproach, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "neowatch/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch close approaches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CAD API returned status %d: %s", resp.StatusCode, string(body))
	}

	approaches, err := loader.LoadApproaches(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse CAD response: %w", err)
	}

	return approaches, nil
}
