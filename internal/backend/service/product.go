// Package service provides the business logic of the catalog backend: products, users and orders.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/store"
	"github.com/shopspring/decimal"
)

// ProductsCollection is the collection name of products.
const ProductsCollection = "products"

// Product is the stored product document.
type Product struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
}

// Categories lists the categories a product may belong to.
var Categories = []string{"Men", "Women", "Kids", "Accessories", "Sale"}

// ProductService defines the methods for managing products.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// FindAll returns a page of products, optionally restricted to one category.
	// An empty category matches every product. Returns an empty slice if nothing matches
	// and ErrInvalidInput for an unknown category.
	FindAll(ctx context.Context, category string, offset, limit int) ([]ProductDto, error)

	// Create adds a new product to the catalog.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update replaces an existing product's details.
	// Returns ErrProductNotFound if the id is unknown and ErrOptimisticLock if the version is stale.
	Update(ctx context.Context, product ProductDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Seed inserts products when the catalog is empty and reports how many were inserted.
	Seed(ctx context.Context, products []ProductCreateDto) (int, error)
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string          `json:"name"        validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0"`
	Discount    int             `json:"discount"    validate:"min=0,max=100"`
	Category    string          `json:"category"    validate:"required,oneof=Men Women Kids Accessories Sale"`
	Image       string          `json:"image"       validate:"omitempty,url"`
	Description string          `json:"description" validate:"max=1000"`
	Sizes       []string        `json:"sizes"       validate:"omitempty,dive,required"`
	Colors      []string        `json:"colors"      validate:"omitempty,dive,required"`
}

// ProductDto represents the data transfer object for a product.
// Version is read-only and used for optimistic concurrency control.
type ProductDto struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"        validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0"`
	Discount    int             `json:"discount"    validate:"min=0,max=100"`
	Category    string          `json:"category"    validate:"required,oneof=Men Women Kids Accessories Sale"`
	Image       string          `json:"image,omitempty"       validate:"omitempty,url"`
	Description string          `json:"description,omitempty" validate:"max=1000"`
	Sizes       []string        `json:"sizes,omitempty"       validate:"omitempty,dive,required"`
	Colors      []string        `json:"colors,omitempty"      validate:"omitempty,dive,required"`
	Version     int32           `json:"version"     validate:"required,min=1"`
}

// Products implements ProductService. Listings go through the cache, writes invalidate it.
type Products struct {
	collection store.Collection[Product]
	cache      store.Cache
	logger     *slog.Logger
}

var _ ProductService = (*Products)(nil)

// NewProductService creates a product service. A nil cache disables caching.
func NewProductService(collection store.Collection[Product], cache store.Cache, logger *slog.Logger) *Products {
	if cache == nil {
		cache = store.NopCache{}
	}
	return &Products{
		collection: collection,
		cache:      cache,
		logger:     logger.With("component", "product_service"),
	}
}

func (s *Products) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	rec, err := s.collection.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, notFound(err, berrors.ErrProductNotFound))
	}
	return toProductDto(rec), nil
}

func (s *Products) FindAll(ctx context.Context, category string, offset, limit int) ([]ProductDto, error) {
	if category != "" && !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("unknown category %q: %w", category, berrors.ErrInvalidInput)
	}
	key := listKey(category, offset, limit)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	var filter store.Filter
	if category != "" {
		filter = store.Filter{"category": category}
	}
	records, err := s.collection.Find(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	products := make([]ProductDto, len(records))
	for i := range records {
		products[i] = *toProductDto(&records[i])
	}

	s.toCache(ctx, key, products)
	return products, nil
}

func (s *Products) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	id, err := s.collection.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	rec, err := s.collection.Insert(ctx, id, Product(product))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.invalidate(ctx)
	return toProductDto(rec), nil
}

func (s *Products) Update(ctx context.Context, product ProductDto) (*ProductDto, error) {
	doc := Product{
		Name:        product.Name,
		Price:       product.Price,
		Discount:    product.Discount,
		Category:    product.Category,
		Image:       product.Image,
		Description: product.Description,
		Sizes:       product.Sizes,
		Colors:      product.Colors,
	}
	rec, err := s.collection.Replace(ctx, product.ID, product.Version, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, notFound(err, berrors.ErrProductNotFound))
	}
	s.invalidate(ctx)
	return toProductDto(rec), nil
}

func (s *Products) DeleteByID(ctx context.Context, id int64) error {
	if err := s.collection.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, notFound(err, berrors.ErrProductNotFound))
	}
	s.invalidate(ctx)
	return nil
}

func (s *Products) Seed(ctx context.Context, products []ProductCreateDto) (int, error) {
	n, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "catalog already populated, skipping seed", "count", n)
		return 0, nil
	}
	for i, p := range products {
		if _, err := s.Create(ctx, p); err != nil {
			return i, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
		}
	}
	s.logger.InfoContext(ctx, "catalog seeded", "count", len(products))
	return len(products), nil
}

func (s *Products) fromCache(ctx context.Context, key string) ([]ProductDto, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var products []ProductDto
	if err := json.Unmarshal(data, &products); err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return products, true
}

func (s *Products) toCache(ctx context.Context, key string, products []ProductDto) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed", "key", key, "error", err)
	}
}

func (s *Products) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed", "error", err)
	}
}

func listKey(category string, offset, limit int) string {
	if category == "" {
		category = "All"
	}
	return fmt.Sprintf("list:%s:%d:%d", category, offset, limit)
}

// notFound maps the store's generic miss onto the entity's sentinel.
func notFound(err, target error) error {
	if errors.Is(err, berrors.ErrDocumentNotFound) {
		return target
	}
	return err
}

func toProductDto(rec *store.Record[Product]) *ProductDto {
	return &ProductDto{
		ID:          rec.ID,
		Name:        rec.Doc.Name,
		Price:       rec.Doc.Price,
		Discount:    rec.Doc.Discount,
		Category:    rec.Doc.Category,
		Image:       rec.Doc.Image,
		Description: rec.Doc.Description,
		Sizes:       rec.Doc.Sizes,
		Colors:      rec.Doc.Colors,
		Version:     rec.Version,
	}
}
