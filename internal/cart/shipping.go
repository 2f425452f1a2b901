package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

// SetShippingMethod applies a method from the fixed rate table. Unknown methods
// fail before the cart is loaded, so the cart is left untouched.
func (s *service) SetShippingMethod(ctx context.Context, owner Owner, method string) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	rate, err := lookupRate(method)
	if err != nil {
		s.metrics.Observe("set_shipping", err)
		return nil, err
	}

	return s.mutate(ctx, "set_shipping", owner, func(cart *models.Cart) error {
		applyShipping(cart, rate, s.now())
		return nil
	})
}

func lookupRate(method string) (pricing.ShippingRate, error) {
	parsed, err := enums.ParseShippingMethod(method)
	if err != nil {
		return pricing.ShippingRate{}, invalidShipping(method)
	}
	rate, ok := pricing.RateFor(parsed)
	if !ok {
		return pricing.ShippingRate{}, invalidShipping(method)
	}
	return rate, nil
}

func invalidShipping(method string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidShipping, "unsupported shipping method").
		WithDetails(map[string]any{
			"shipping_method": method,
			"allowed":         []string{"standard", "express", "overnight", "pickup"},
		})
}

func applyShipping(cart *models.Cart, rate pricing.ShippingRate, now time.Time) {
	cart.ShippingMethod = rate.Method
	cart.Shipping = rate.Cost
	cart.EstimatedDelivery = rate.EstimatedDelivery(now.UTC())
}
