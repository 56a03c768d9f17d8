// Package catalog implements the Product service client over HTTP.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cart/config"
	"cart/internal/domain/entity"
	"cart/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultFetchTimeout = 5 * time.Second

// httpProductClient implements ProductCatalogService against the Product
// service's REST API. Not-found is a distinct outcome; every other failure
// (timeout, refused connection, bad payload) maps to ErrCatalogUnavailable
// and is not retried here.
type httpProductClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPProductClientParams holds dependencies for the catalog client, injected by Fx.
type HTTPProductClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewHTTPProductClient creates the HTTP catalog client.
func NewHTTPProductClient(params HTTPProductClientParams) service.ProductCatalogService {
	timeout := params.Config.Catalog.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &httpProductClient{
		baseURL: strings.TrimRight(params.Config.Catalog.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: params.Logger,
	}
}

// productPayload is the catalog's wire representation of a product.
type productPayload struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         json.RawMessage `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// FetchProduct resolves current name/price/stock for a product.
func (c *httpProductClient) FetchProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error) {
	requestURL := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(service.ErrCatalogUnavailable, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog fetch failed",
			slog.String("product_id", productID.String()),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(service.ErrCatalogUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, service.ErrProductNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(service.ErrCatalogUnavailable,
			"catalog returned status %d", resp.StatusCode)
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(service.ErrCatalogUnavailable, err.Error())
	}

	product, err := payload.toEntity()
	if err != nil {
		return nil, errors.Wrap(service.ErrCatalogUnavailable, err.Error())
	}

	return product, nil
}

func (p *productPayload) toEntity() (*entity.CatalogProduct, error) {
	product := &entity.CatalogProduct{
		ID:            p.ID,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
	}

	// Price arrives as a JSON number or string; decimal accepts both.
	if len(p.Price) > 0 {
		if err := product.Price.UnmarshalJSON(p.Price); err != nil {
			return nil, errors.Wrap(err, "invalid product price")
		}
	}

	return product, nil
}
