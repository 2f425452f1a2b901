package cart

import (
	"net/http"

	"github.com/google/uuid"

	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxVariantLength = 64

// ownerFromRequest maps the identity resolved by middleware to a cart owner.
// A verified user always wins over a session header.
func ownerFromRequest(r *http.Request) (cartsvc.Owner, error) {
	ctx := r.Context()
	if userID := middleware.UserIDFromContext(ctx); userID != "" {
		return cartsvc.UserOwner(userID), nil
	}
	if sessionID := middleware.SessionIDFromContext(ctx); sessionID != "" {
		return cartsvc.GuestOwner(sessionID), nil
	}
	return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token or X-Session-Id header required")
}

func toAddItemInput(payload cartdto.AddItemRequest) (cartsvc.AddItemInput, error) {
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
			WithDetails(map[string]string{"product_id": "must be a valid uuid"})
	}
	return cartsvc.AddItemInput{
		ProductID: productID,
		Color:     validators.SanitizeString(payload.Color, maxVariantLength),
		Size:      validators.SanitizeString(payload.Size, maxVariantLength),
		Quantity:  payload.Quantity,
	}, nil
}
