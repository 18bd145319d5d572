package pathprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// defaultNumtrackerTimeout bounds a single collection number request.
	defaultNumtrackerTimeout = 5 * time.Second

	// maxNumtrackerBody caps how much of a response body is read.
	maxNumtrackerBody = 64 * 1024
)

// RemoteCollectionClient draws collection numbers from a numtracker service.
type RemoteCollectionClient struct {
	url        string
	httpClient *http.Client
}

// NewRemoteCollectionClient creates a client for the service at baseURL.
func NewRemoteCollectionClient(baseURL string) *RemoteCollectionClient {
	return &RemoteCollectionClient{
		url:        strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultNumtrackerTimeout},
	}
}

type numtrackerResponse struct {
	CollectionNumber *int `json:"collectionNumber"`
}

// NextCollection POSTs to <url>/numtracker and returns the allocated number.
func (c *RemoteCollectionClient) NextCollection(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/numtracker", nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNumtracker, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNumtracker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNumtrackerBody))
	if err != nil {
		return 0, fmt.Errorf("%w: reading body: %w", ErrNumtracker, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrNumtracker, resp.StatusCode)
	}

	var out numtrackerResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("%w: decoding body: %w", ErrNumtracker, err)
	}
	if out.CollectionNumber == nil {
		return 0, fmt.Errorf("%w: response has no collectionNumber", ErrNumtracker)
	}
	return *out.CollectionNumber, nil
}
