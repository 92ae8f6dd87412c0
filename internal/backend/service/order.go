package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/store"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

const OrdersCollection = "orders"

const StatusPending = "pending"

type Order struct {
	UserID int64           `json:"user_id"`
	Status string          `json:"status"`
	Items  []OrderItem     `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// OrderItem is one order line. Price is UnitPrice times Quantity.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Price     decimal.Decimal `json:"price"`
}

// OrderService defines the methods for managing orders.
type OrderService interface {
	// FindByID retrieves a single order by its unique identifier.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id int64) (*OrderDto, error)

	// FindAll returns a page of orders. A non-zero userID restricts the result to that user's orders.
	FindAll(ctx context.Context, userID int64, offset, limit int) ([]OrderDto, error)

	// Create prices and stores a new pending order, then publishes OrderCreatedEvent.
	// Returns ErrUserNotFound or ErrProductNotFound when a referenced entity is missing.
	Create(ctx context.Context, order OrderCreateDto) (*OrderDto, error)

	// Update changes the order status.
	// Returns ErrOrderNotFound if the id is unknown and ErrOptimisticLock if the version is stale.
	Update(ctx context.Context, order OrderUpdateDto) (*OrderDto, error)

	// DeleteByID removes an order.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

// ProductFinder looks up the current product price.
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*ProductDto, error)
}

// UserFinder checks that the ordering user exists.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*UserDto, error)
}

type OrderCreateDto struct {
	UserID int64                `json:"user_id" validate:"required,gt=0"`
	Items  []OrderItemCreateDto `json:"items"   validate:"required,gt=0,dive"`
}

type OrderItemCreateDto struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"required,min=1"`
}

type OrderUpdateDto struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"  validate:"required,oneof=pending paid shipped delivered cancelled"`
	Version int32  `json:"version" validate:"required,min=1"`
}

// OrderDto represents the data transfer object for an order.
// Version is read-only and used for optimistic concurrency control.
type OrderDto struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Status    string          `json:"status"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Version   int32           `json:"version"`
	CreatedAt string          `json:"created_at"`
}

type Orders struct {
	collection    store.Collection[Order]
	products      ProductFinder
	users         UserFinder
	publisher     messaging.Publisher
	ordersCounter metric.Int64Counter
	logger        *slog.Logger
}

var _ OrderService = (*Orders)(nil)

func NewOrderService(
	collection store.Collection[Order],
	products ProductFinder,
	users UserFinder,
	publisher messaging.Publisher,
	meter metric.Meter,
	logger *slog.Logger,
) (*Orders, error) {
	ordersCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders_created counter: %w", err)
	}
	return &Orders{
		collection:    collection,
		products:      products,
		users:         users,
		publisher:     publisher,
		ordersCounter: ordersCounter,
		logger:        logger.With("component", "order_service"),
	}, nil
}

func (s *Orders) FindByID(ctx context.Context, id int64) (*OrderDto, error) {
	rec, err := s.collection.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order by ID %d: %w", id, notFound(err, berrors.ErrOrderNotFound))
	}
	return toOrderDto(rec), nil
}

func (s *Orders) FindAll(ctx context.Context, userID int64, offset, limit int) ([]OrderDto, error) {
	var filter store.Filter
	if userID != 0 {
		filter = store.Filter{"user_id": userID}
	}
	records, err := s.collection.Find(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	orders := make([]OrderDto, len(records))
	for i := range records {
		orders[i] = *toOrderDto(&records[i])
	}
	return orders, nil
}

func (s *Orders) Create(ctx context.Context, order OrderCreateDto) (*OrderDto, error) {
	if _, err := s.users.FindByID(ctx, order.UserID); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	doc := Order{UserID: order.UserID, Status: StatusPending, Items: make([]OrderItem, 0, len(order.Items)), Total: decimal.Zero}
	for _, item := range order.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		price := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		doc.Items = append(doc.Items, OrderItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Price:     price,
		})
		doc.Total = doc.Total.Add(price)
	}

	id, err := s.collection.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	rec, err := s.collection.Insert(ctx, id, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.OrderCreatedEvent{
		Carrier:   carrier,
		OrderID:   rec.ID,
		UserID:    doc.UserID,
		Items:     len(doc.Items),
		Total:     doc.Total,
		CreatedAt: rec.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderCreatedEvent", "order_id", rec.ID, "error", err)
	}
	s.ordersCounter.Add(ctx, 1)

	return toOrderDto(rec), nil
}

func (s *Orders) Update(ctx context.Context, update OrderUpdateDto) (*OrderDto, error) {
	rec, err := s.collection.FindByID(ctx, update.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order with ID %d: %w", update.ID, notFound(err, berrors.ErrOrderNotFound))
	}
	doc := rec.Doc
	doc.Status = update.Status
	updated, err := s.collection.Replace(ctx, update.ID, update.Version, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update order with ID %d: %w", update.ID, notFound(err, berrors.ErrOrderNotFound))
	}
	return toOrderDto(updated), nil
}

func (s *Orders) DeleteByID(ctx context.Context, id int64) error {
	if err := s.collection.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order with ID %d: %w", id, notFound(err, berrors.ErrOrderNotFound))
	}
	return nil
}

func toOrderDto(rec *store.Record[Order]) *OrderDto {
	return &OrderDto{
		ID:        rec.ID,
		UserID:    rec.Doc.UserID,
		Status:    rec.Doc.Status,
		Items:     rec.Doc.Items,
		Total:     rec.Doc.Total,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
}
