package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/propagation"
)

// OrderCreatedEvent is published once an order is stored. Carrier holds the trace context of the request.
type OrderCreatedEvent struct {
	Carrier   propagation.MapCarrier `json:"carrier,omitempty"`
	OrderID   int64                  `json:"order_id"`
	UserID    int64                  `json:"user_id"`
	Items     int                    `json:"items"`
	Total     decimal.Decimal        `json:"total"`
	CreatedAt time.Time              `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
