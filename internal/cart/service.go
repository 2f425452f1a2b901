package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const DefaultTTL = 30 * 24 * time.Hour

// errUnchanged lets a mutation skip the save when it altered nothing.
var errUnchanged = errors.New("cart unchanged")

// Service exposes the cart operations.
type Service interface {
	FindOrCreateCart(ctx context.Context, owner Owner) (*models.Cart, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, owner Owner) (*models.Cart, error)
	SetShippingMethod(ctx context.Context, owner Owner, method string) (*models.Cart, error)
	TransferGuestCart(ctx context.Context, sessionID, userID string) (*TransferResult, error)
}

// ServiceOptions tunes the cart service.
type ServiceOptions struct {
	// TTL is added to the creation time to compute ExpiresAt.
	TTL     time.Duration
	Metrics *metrics.CartMetrics
	Now     func() time.Time
}

type service struct {
	repo    CartRepository
	tx      txRunner
	catalog ProductCatalog
	ttl     time.Duration
	metrics *metrics.CartMetrics
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, catalog ProductCatalog, opts ServiceOptions) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: catalog,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		now:     opts.Now,
	}, nil
}

// MaxItemQuantity bounds a single line's quantity.
const MaxItemQuantity = 9999

// AddItemInput carries the caller-selected variant of a product.
type AddItemInput struct {
	ProductID uuid.UUID
	Color     string
	Size      string
	Quantity  int
}

func (in AddItemInput) validate() error {
	details := map[string]string{}
	if in.ProductID == uuid.Nil {
		details["product_id"] = "required"
	}
	if strings.TrimSpace(in.Color) == "" {
		details["color"] = "required"
	}
	if strings.TrimSpace(in.Size) == "" {
		details["size"] = "required"
	}
	switch {
	case in.Quantity < 1:
		details["quantity"] = "must be at least 1"
	case in.Quantity > MaxItemQuantity:
		details["quantity"] = fmt.Sprintf("must be at most %d", MaxItemQuantity)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return nil
}

// FindOrCreateCart returns the owner's cart, creating an empty one on first access.
func (s *service) FindOrCreateCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByOwner(ctx, owner)
	if err == nil {
		s.metrics.Observe("find_or_create", nil)
		return cart, nil
	}
	if !db.IsNotFound(err) {
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		s.metrics.Observe("find_or_create", err)
		return nil, err
	}

	cart = s.newCart(owner)
	if err := s.repo.Create(ctx, cart); err != nil {
		if !db.IsUniqueViolation(err, "") {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			s.metrics.Observe("find_or_create", err)
			return nil, err
		}
		// a concurrent request created it first
		cart, err = s.repo.FindByOwner(ctx, owner)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
			s.metrics.Observe("find_or_create", err)
			return nil, err
		}
	}
	s.metrics.Observe("find_or_create", nil)
	return cart, nil
}

// AddItem adds quantity of a product, merging into an existing line by product id.
// An existing line keeps its stored color and size.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	snap, err := s.catalog.GetByID(ctx, input.ProductID)
	if err != nil {
		err = asTyped(err, "load product")
		s.metrics.Observe("add_item", err)
		return nil, err
	}

	return s.mutate(ctx, "add_item", owner, func(cart *models.Cart) error {
		if idx := cart.ItemIndex(input.ProductID); idx >= 0 {
			qty := cart.Items[idx].Quantity + input.Quantity
			if qty > MaxItemQuantity {
				return quantityTooLarge(input.ProductID)
			}
			cart.Items[idx].Quantity = qty
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			CartID:      cart.ID,
			ProductID:   snap.ID,
			Name:        snap.Name,
			Price:       snap.Price,
			Image:       snap.Image,
			MaxQuantity: snap.MaxQuantity,
			Color:       strings.TrimSpace(input.Color),
			Size:        strings.TrimSpace(input.Size),
			Quantity:    input.Quantity,
			Position:    len(cart.Items),
		})
		return nil
	})
}

// UpdateItemQuantity sets an item's quantity. A quantity of zero or less removes it.
func (s *service) UpdateItemQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, productID)
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if quantity > MaxItemQuantity {
		err := quantityTooLarge(productID)
		s.metrics.Observe("update_quantity", err)
		return nil, err
	}

	// the product must still be sold even though the line keeps its snapshot
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		err = asTyped(err, "load product")
		s.metrics.Observe("update_quantity", err)
		return nil, err
	}

	return s.mutate(ctx, "update_quantity", owner, func(cart *models.Cart) error {
		idx := cart.ItemIndex(productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
				WithDetails(map[string]any{"product_id": productID.String()})
		}
		cart.Items[idx].Quantity = quantity
		return nil
	})
}

func quantityTooLarge(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"quantity":   fmt.Sprintf("must be at most %d", MaxItemQuantity),
		})
}

// RemoveItem drops the product's line. Removing an absent product succeeds.
func (s *service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "remove_item", owner, func(cart *models.Cart) error {
		idx := cart.ItemIndex(productID)
		if idx < 0 {
			return errUnchanged
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return nil
	})
}

// ClearCart empties the cart and resets its shipping selection.
func (s *service) ClearCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, "clear_cart", owner, func(cart *models.Cart) error {
		cart.Items = []models.CartItem{}
		cart.ShippingMethod = enums.ShippingMethodNone
		cart.Shipping = decimal.Zero
		cart.EstimatedDelivery = nil
		return nil
	})
}

// mutate runs one load-mutate-save unit inside a transaction.
func (s *service) mutate(
	ctx context.Context,
	operation string,
	owner Owner,
	fn func(cart *models.Cart) error,
) (*models.Cart, error) {
	var out *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.loadOrCreate(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			if errors.Is(err, errUnchanged) {
				out = cart
				return nil
			}
			return err
		}
		if err := repo.Save(ctx, cart); err != nil {
			return persistenceError(err, "save cart")
		}
		out = cart
		return nil
	})
	if err != nil {
		err = asTyped(err, "commit cart")
		s.metrics.Observe(operation, err)
		return nil, err
	}
	s.metrics.Observe(operation, nil)
	return out, nil
}

func (s *service) loadOrCreate(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart = s.newCart(owner)
	if err := repo.Create(ctx, cart); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was created concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) newCart(owner Owner) *models.Cart {
	now := s.now().UTC()
	cart := &models.Cart{
		ID:             uuid.New(),
		State:          enums.CartStateGuest,
		Items:          []models.CartItem{},
		Shipping:       decimal.Zero,
		ShippingMethod: enums.ShippingMethodNone,
		ExpiresAt:      now.Add(s.ttl),
	}
	if owner.IsUser() {
		userID := owner.userKey()
		cart.UserID = &userID
		cart.State = enums.CartStateUser
	} else {
		sessionID := owner.sessionKey()
		cart.SessionID = &sessionID
	}
	return cart
}

func persistenceError(err error, msg string) error {
	if errors.Is(err, ErrStaleCart) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently, retry")
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart owner already has a cart, retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

// asTyped keeps typed errors and classifies anything else as a dependency failure.
func asTyped(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
