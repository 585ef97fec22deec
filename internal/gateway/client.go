// Package gateway is the client for the remote cart endpoint. The contract
// is whole-cart replacement: no partial updates, last writer wins for the
// authenticated identity.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/servicehubhq/cart-service/internal/api/middleware"
	"github.com/servicehubhq/cart-service/internal/config"
	"github.com/servicehubhq/cart-service/internal/errors"
	"github.com/servicehubhq/cart-service/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type SyncGateway interface {
	// FetchCart returns the server-side cart for the identity in the
	// context. Auth and network failures both read as "no remote cart
	// available" to the caller.
	FetchCart(ctx context.Context) ([]models.CartLineItem, error)
	// ReplaceCart overwrites the server-side cart wholesale. Idempotent.
	ReplaceCart(ctx context.Context, items []models.CartLineItem) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.SyncGateway) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// cartEnvelope is the wire shape on both directions: {"cart": [...]}.
type cartEnvelope struct {
	Cart []models.CartLineItem `json:"cart"`
}

func (c *Client) FetchCart(ctx context.Context) ([]models.CartLineItem, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me/cart", nil)
	if err != nil {
		return nil, errors.RemoteFetchError("Failed to build remote cart request").WithError(err)
	}

	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.RemoteFetchError("Remote cart fetch failed").WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.RemoteFetchError("Remote cart fetch rejected").
			WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteFetchError("Remote cart fetch failed").
			WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
	}

	var envelope cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.RemoteFetchError("Failed to decode remote cart").WithError(err)
	}

	if envelope.Cart == nil {
		return []models.CartLineItem{}, nil
	}

	return envelope.Cart, nil
}

func (c *Client) ReplaceCart(ctx context.Context, items []models.CartLineItem) error {

	if items == nil {
		items = []models.CartLineItem{}
	}

	body, err := json.Marshal(cartEnvelope{Cart: items})
	if err != nil {
		return errors.RemoteWriteError("Failed to encode cart payload").WithError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/v1/me/cart", bytes.NewReader(body))
	if err != nil {
		return errors.RemoteWriteError("Failed to build remote cart request").WithError(err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.RemoteWriteError("Remote cart replace failed").WithError(err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.RemoteWriteError("Remote cart replace rejected").
			WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
	}

	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if token, ok := middleware.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
