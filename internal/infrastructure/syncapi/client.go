package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
)

// maxResponseSize is the maximum allowed response size from the sync endpoint (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Sync directions on the wire
const (
	directionMerge     = "merge"
	directionLocalToDB = "local_to_db"
)

// ErrServerRejected indicates the endpoint answered but refused the request
var ErrServerRejected = errors.New("syncapi: server rejected the request")

// Client talks to the shop's cart-sync endpoint over HTTP. It implements
// the SyncClient boundary; all reconciliation policy lives in the caller.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a sync client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// NewClientWithHTTPClient creates a sync client with a caller-supplied
// http.Client. Useful for testing.
func NewClientWithHTTPClient(config *Config, httpClient *http.Client) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{config: config, httpClient: httpClient}, nil
}

// syncRequest is the POST body for both merge and push
type syncRequest struct {
	LocalCartItems []cartapp.SyncItem `json:"localCartItems"`
	SyncDirection  string             `json:"syncDirection"`
}

// syncResponse is the reply envelope. FinalCart stays nil when the server
// omitted the field, which the caller must distinguish from an empty list.
type syncResponse struct {
	Success   bool                 `json:"success"`
	FinalCart []cartapp.ServerItem `json:"finalCart"`
	Message   string               `json:"message,omitempty"`
}

// fetchResponse is the GET reply envelope
type fetchResponse struct {
	Success bool                 `json:"success"`
	Items   []cartapp.ServerItem `json:"items"`
	Message string               `json:"message,omitempty"`
}

// MergeCart sends the local items with the merge direction and returns the
// server's verdict as-is. Malformed-reply fallbacks are the caller's policy.
func (c *Client) MergeCart(ctx context.Context, userID string, items []cartapp.SyncItem) (*cartapp.MergeResult, error) {
	var reply syncResponse
	if err := c.postSync(ctx, userID, items, directionMerge, &reply); err != nil {
		return nil, err
	}
	return &cartapp.MergeResult{
		Success:   reply.Success,
		FinalCart: reply.FinalCart,
	}, nil
}

// PushCart overwrites the server-held cart with the local items
func (c *Client) PushCart(ctx context.Context, userID string, items []cartapp.SyncItem) error {
	var reply syncResponse
	if err := c.postSync(ctx, userID, items, directionLocalToDB, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return fmt.Errorf("%w: %s", ErrServerRejected, reply.Message)
	}
	return nil
}

// FetchCart returns the server-held cart rows
func (c *Client) FetchCart(ctx context.Context, userID string) ([]cartapp.ServerItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-User-ID", userID)

	var reply fetchResponse
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, reply.Message)
	}
	return reply.Items, nil
}

func (c *Client) postSync(ctx context.Context, userID string, items []cartapp.SyncItem, direction string, reply *syncResponse) error {
	if items == nil {
		items = []cartapp.SyncItem{}
	}
	body, err := json.Marshal(syncRequest{
		LocalCartItems: items,
		SyncDirection:  direction,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/cart/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	return c.do(req, reply)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read sync response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode sync response: %w", err)
	}
	return nil
}
