package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ShippingRate is the flat charge and delivery promise of a shipping method.
type ShippingRate struct {
	Method enums.ShippingMethod
	Cost   decimal.Decimal
	// OffsetDays is zero for methods without a delivery estimate.
	OffsetDays int
}

var shippingRates = map[enums.ShippingMethod]ShippingRate{
	enums.ShippingMethodStandard:  {Method: enums.ShippingMethodStandard, Cost: decimal.NewFromInt(6), OffsetDays: 7},
	enums.ShippingMethodExpress:   {Method: enums.ShippingMethodExpress, Cost: decimal.NewFromInt(13), OffsetDays: 3},
	enums.ShippingMethodOvernight: {Method: enums.ShippingMethodOvernight, Cost: decimal.NewFromInt(26), OffsetDays: 1},
	enums.ShippingMethodPickup:    {Method: enums.ShippingMethodPickup, Cost: decimal.Zero},
}

// RateFor returns the rate for a selectable method.
func RateFor(method enums.ShippingMethod) (ShippingRate, bool) {
	rate, ok := shippingRates[method]
	return rate, ok
}

// EstimatedDelivery returns now plus the method offset, or nil when the method
// carries no estimate.
func (r ShippingRate) EstimatedDelivery(now time.Time) *time.Time {
	if r.OffsetDays <= 0 {
		return nil
	}
	eta := now.UTC().AddDate(0, 0, r.OffsetDays)
	return &eta
}
