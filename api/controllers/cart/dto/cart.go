package cartdto

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the public cart payload. Money fields are fixed two-place decimal strings.
type Cart struct {
	ID                uuid.UUID  `json:"id"`
	Owner             CartOwner  `json:"owner"`
	State             string     `json:"state"`
	Items             []CartItem `json:"items"`
	ItemCount         int        `json:"item_count"`
	Subtotal          string     `json:"subtotal"`
	Tax               string     `json:"tax"`
	Shipping          string     `json:"shipping"`
	Total             string     `json:"total"`
	ShippingMethod    string     `json:"shipping_method"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	ExpiresAt         time.Time  `json:"expires_at"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CartOwner struct {
	UserID    *string `json:"user_id,omitempty"`
	SessionID *string `json:"session_id,omitempty"`
}

type CartItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Image       string    `json:"image"`
	Quantity    int       `json:"quantity"`
	MaxQuantity int       `json:"max_quantity"`
	Color       string    `json:"color"`
	Size        string    `json:"size"`
	LineTotal   string    `json:"line_total"`
}

// TransferResult reports what a guest transfer did. Cart is null for a no-op.
type TransferResult struct {
	Outcome string `json:"outcome"`
	Cart    *Cart  `json:"cart"`
}
