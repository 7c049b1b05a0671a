package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogClient talks to the catalog service over HTTP and keeps the local
// price/stock mirror warm. The mirror, not the catalog, is authoritative for
// the atomic stock decrement at checkout.
type CatalogClient struct {
	baseURL     string
	httpClient  *http.Client
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCatalogClient creates a new CatalogClient.
func NewCatalogClient(baseURL string, productRepo repository.ProductRepository, logger *zap.Logger) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		productRepo: productRepo,
		logger:      logger,
	}
}

// catalogProduct is the catalog service's product representation.
type catalogProduct struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	CompareAtPrice *float64  `json:"compare_at_price,omitempty"`
	Stock          int       `json:"stock"`
}

// GetProduct fetches one product from the catalog service.
func (c *CatalogClient) GetProduct(ctx context.Context, productID uuid.UUID) (*catalogProduct, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, repository.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var cp catalogProduct
	if err := json.NewDecoder(resp.Body).Decode(&cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// MirrorProduct fetches a product from the catalog and upserts the local
// mirror row, returning the mirrored record.
func (c *CatalogClient) MirrorProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	cp, err := c.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:             cp.ID,
		Name:           cp.Name,
		Price:          cp.Price,
		CompareAtPrice: cp.CompareAtPrice,
		Stock:          cp.Stock,
	}
	if err := c.productRepo.Upsert(ctx, product); err != nil {
		return nil, err
	}

	c.logger.Info("Product mirrored from catalog",
		zap.String("product_id", productID.String()),
		zap.Int("stock", cp.Stock),
	)
	return c.productRepo.FindByID(ctx, productID)
}
