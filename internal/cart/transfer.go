package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// TransferOutcome names what a guest transfer did.
type TransferOutcome string

const (
	TransferNoop    TransferOutcome = "noop"
	TransferMerged  TransferOutcome = "merged"
	TransferRekeyed TransferOutcome = "rekeyed"
)

// TransferResult is the user's cart after a transfer. Cart is nil for a no-op.
type TransferResult struct {
	Outcome TransferOutcome
	Cart    *models.Cart
}

// userCartLookup is the result of looking up the destination cart: either
// found with a cart, or absent.
type userCartLookup struct {
	cart  *models.Cart
	found bool
}

// TransferGuestCart moves the session's cart to the user at login. When the
// user already has a cart the guest lines are merged into it and the guest
// record is deleted; otherwise the guest record is re-keyed in place. Either
// way no cart keyed by sessionID remains afterwards.
func (s *service) TransferGuestCart(ctx context.Context, sessionID, userID string) (*TransferResult, error) {
	guestOwner := GuestOwner(sessionID)
	userOwner := UserOwner(userID)
	if userOwner.UserID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	if guestOwner.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required").
			WithDetails(map[string]string{"session_id": "required"})
	}

	var result *TransferResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		guest, err := repo.FindByOwner(ctx, guestOwner)
		if err != nil {
			if db.IsNotFound(err) {
				result = &TransferResult{Outcome: TransferNoop}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest cart")
		}
		if len(guest.Items) == 0 {
			if err := repo.Delete(ctx, guest); err != nil {
				return persistenceError(err, "delete empty guest cart")
			}
			result = &TransferResult{Outcome: TransferNoop}
			return nil
		}
		if !guest.State.CanTransitionTo(enums.CartStateTransferred) {
			return stateConflict(guest)
		}

		lookup, err := findUserCart(ctx, repo, userOwner)
		if err != nil {
			return err
		}

		if lookup.found {
			mergeInto(lookup.cart, guest)
			if err := repo.Save(ctx, lookup.cart); err != nil {
				return persistenceError(err, "save merged cart")
			}
			if err := repo.Delete(ctx, guest); err != nil {
				return persistenceError(err, "delete guest cart")
			}
			result = &TransferResult{Outcome: TransferMerged, Cart: lookup.cart}
			return nil
		}

		if err := rekeyAsUser(guest, userOwner.UserID); err != nil {
			return err
		}
		if err := repo.Save(ctx, guest); err != nil {
			return persistenceError(err, "re-key guest cart")
		}
		result = &TransferResult{Outcome: TransferRekeyed, Cart: guest}
		return nil
	})
	if err != nil {
		err = asTyped(err, "commit transfer")
		s.metrics.Observe("transfer", err)
		return nil, err
	}
	s.metrics.Observe("transfer", nil)
	return result, nil
}

func findUserCart(ctx context.Context, repo CartRepository, owner Owner) (userCartLookup, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err != nil {
		if db.IsNotFound(err) {
			return userCartLookup{}, nil
		}
		return userCartLookup{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user cart")
	}
	return userCartLookup{cart: cart, found: true}, nil
}

// mergeInto folds the guest lines into the user cart. Matching products sum
// their quantities, capped at the tighter positive maxQuantity of the two
// lines; other guest lines are appended. The guest shipping selection is
// adopted only when the user cart has none.
func mergeInto(user, guest *models.Cart) {
	for _, guestItem := range guest.Items {
		if idx := user.ItemIndex(guestItem.ProductID); idx >= 0 {
			existing := &user.Items[idx]
			limit := tighterLimit(existing.MaxQuantity, guestItem.MaxQuantity)
			qty := existing.Quantity + guestItem.Quantity
			if limit > 0 && qty > limit {
				qty = limit
			}
			if qty > MaxItemQuantity {
				qty = MaxItemQuantity
			}
			existing.Quantity = qty
			existing.MaxQuantity = limit
			continue
		}
		moved := guestItem
		moved.ID = uuid.Nil
		moved.CartID = user.ID
		moved.Position = len(user.Items)
		user.Items = append(user.Items, moved)
	}

	if user.ShippingMethod == enums.ShippingMethodNone && guest.ShippingMethod != enums.ShippingMethodNone {
		user.ShippingMethod = guest.ShippingMethod
		user.Shipping = guest.Shipping
		user.EstimatedDelivery = guest.EstimatedDelivery
	}
}

// rekeyAsUser turns the guest cart into the user's cart, keeping its identity.
func rekeyAsUser(guest *models.Cart, userID string) error {
	if !guest.State.CanTransitionTo(enums.CartStateTransferred) {
		return stateConflict(guest)
	}
	id := userID
	guest.UserID = &id
	guest.SessionID = nil
	guest.State = enums.CartStateTransferred
	return nil
}

// tighterLimit returns the smaller positive limit; zero means unlimited.
func tighterLimit(a, b int) int {
	switch {
	case a <= 0:
		return max(b, 0)
	case b <= 0:
		return a
	default:
		return min(a, b)
	}
}

func stateConflict(cart *models.Cart) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cart cannot be transferred from its current state").
		WithDetails(map[string]any{
			"cart_id": cart.ID.String(),
			"owner":   cart.OwnerKey(),
			"state":   cart.State.String(),
		})
}
