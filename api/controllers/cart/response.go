package cart

import (
	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

func newCart(record *models.Cart) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(record.Items))
	count := 0
	for _, item := range record.Items {
		count += item.Quantity
		items = append(items, cartdto.CartItem{
			ProductID:   item.ProductID,
			Name:        item.Name,
			Price:       item.Price.StringFixed(pricing.MoneyPlaces),
			Image:       item.Image,
			Quantity:    item.Quantity,
			MaxQuantity: item.MaxQuantity,
			Color:       item.Color,
			Size:        item.Size,
			LineTotal:   item.LineTotal().StringFixed(pricing.MoneyPlaces),
		})
	}

	return cartdto.Cart{
		ID: record.ID,
		Owner: cartdto.CartOwner{
			UserID:    record.UserID,
			SessionID: record.SessionID,
		},
		State:             string(record.State),
		Items:             items,
		ItemCount:         count,
		Subtotal:          record.Subtotal.StringFixed(pricing.MoneyPlaces),
		Tax:               record.Tax.StringFixed(pricing.MoneyPlaces),
		Shipping:          record.Shipping.StringFixed(pricing.MoneyPlaces),
		Total:             record.Total.StringFixed(pricing.MoneyPlaces),
		ShippingMethod:    string(record.ShippingMethod),
		EstimatedDelivery: record.EstimatedDelivery,
		ExpiresAt:         record.ExpiresAt,
		Version:           record.Version,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

func newTransferResult(result *cartsvc.TransferResult) cartdto.TransferResult {
	out := cartdto.TransferResult{Outcome: string(result.Outcome)}
	if result.Cart != nil {
		c := newCart(result.Cart)
		out.Cart = &c
	}
	return out
}
