package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
)

// Client exposes the catalog operations the reservation and order flows depend on.
type Client interface {
	GetSaleState(ctx context.Context, itemID int64) (model.SaleState, error)
	SetSaleState(ctx context.Context, itemID int64, state model.SaleState, buyer *model.Buyer) error
}

// HTTPClient implements Client via the catalog REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type buyerPayload struct {
	OrderNumber string `json:"order_number"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type saleStatePayload struct {
	SaleState model.SaleState `json:"sale_state"`
	Buyer     *buyerPayload   `json:"buyer,omitempty"`
}

// NewHTTPClient creates HTTP catalog client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *HTTPClient) endpoint(itemID int64) string {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/items/", strconv.FormatInt(itemID, 10), "sale-state")
	return endpoint.String()
}

func (c *HTTPClient) do(ctx context.Context, method string, itemID int64, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(itemID), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// GetSaleState fetches the current sale-state of an item.
func (c *HTTPClient) GetSaleState(ctx context.Context, itemID int64) (model.SaleState, error) {
	resp, err := c.do(ctx, http.MethodGet, itemID, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var data saleStatePayload
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return "", fmt.Errorf("decode sale state: %w", err)
		}
		if !data.SaleState.Valid() {
			return "", fmt.Errorf("unknown sale state %q for item %d", data.SaleState, itemID)
		}
		return data.SaleState, nil
	case http.StatusNotFound:
		return "", domainErrors.ErrNotFound
	default:
		return "", c.failure(resp, itemID)
	}
}

// SetSaleState requests a sale-state mutation, attaching buyer metadata when present.
func (c *HTTPClient) SetSaleState(ctx context.Context, itemID int64, state model.SaleState, buyer *model.Buyer) error {
	payload := saleStatePayload{SaleState: state}
	if buyer != nil {
		payload.Buyer = &buyerPayload{OrderNumber: buyer.OrderNumber, Name: buyer.Name, Email: buyer.Email}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, itemID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return domainErrors.ErrNotFound
	default:
		return c.failure(resp, itemID)
	}
}

func (c *HTTPClient) failure(resp *http.Response, itemID int64) error {
	body, _ := io.ReadAll(resp.Body)
	c.logger.Error("catalog request failed",
		slog.Int64("item_id", itemID),
		slog.Int("status", resp.StatusCode),
		slog.String("body", string(body)))
	return fmt.Errorf("catalog error: %s", resp.Status)
}
