package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

// Cart is a shopping cart keyed by exactly one of UserID or SessionID.
// Subtotal, Tax and Total are derived and rewritten on every persist.
type Cart struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID            *string              `gorm:"column:user_id;uniqueIndex:ux_carts_user_id"`
	SessionID         *string              `gorm:"column:session_id;uniqueIndex:ux_carts_session_id"`
	State             enums.CartState      `gorm:"column:state;type:text;not null"`
	Items             []CartItem           `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Subtotal          decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax               decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping          decimal.Decimal      `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingMethod    enums.ShippingMethod `gorm:"column:shipping_method;type:text;not null"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery"`
	ExpiresAt         time.Time            `gorm:"column:expires_at;not null;index:idx_carts_expires_at"`
	Version           int64                `gorm:"column:version;not null"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the record identity.
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeSave recomputes the derived totals from Items and Shipping, so any
// Create or Save must carry the full item list.
func (c *Cart) BeforeSave(tx *gorm.DB) error {
	c.Recompute()
	return nil
}

// Recompute refreshes Subtotal, Tax and Total in place.
func (c *Cart) Recompute() {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	totals := pricing.Compute(lines, c.Shipping)
	c.Subtotal = totals.Subtotal
	c.Tax = totals.Tax
	c.Total = totals.Total
}

// OwnerKey returns the populated owner column value.
func (c *Cart) OwnerKey() string {
	if c.UserID != nil {
		return *c.UserID
	}
	if c.SessionID != nil {
		return *c.SessionID
	}
	return ""
}

// ItemIndex returns the position of the item for productID, or -1.
func (c *Cart) ItemIndex(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
