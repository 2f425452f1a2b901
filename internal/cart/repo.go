package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ErrStaleCart is returned by Save when the stored version moved on since load.
var ErrStaleCart = errors.New("cart was modified concurrently")

// Repository persists carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner loads the owner's cart with items in list order.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	if owner.IsUser() {
		query = query.Where("user_id = ?", owner.userKey())
	} else {
		query = query.Where("session_id = ?", owner.sessionKey())
	}

	var cart models.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart at version 1.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	cart.Version = 1
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, cart)
}

// Save writes the cart if its version still matches the stored row, then
// replaces the item rows. A lost race yields ErrStaleCart.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) error {
	conn := r.db.WithContext(ctx)
	res := conn.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		UpdateColumn("version", cart.Version+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleCart
	}
	cart.Version++

	if err := conn.Omit(clause.Associations).Save(cart).Error; err != nil {
		return err
	}
	if err := conn.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, cart)
}

// Delete removes the cart and its items.
func (r *Repository) Delete(ctx context.Context, cart *models.Cart) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return conn.Where("id = ?", cart.ID).Delete(&models.Cart{}).Error
}

// DeleteExpired removes up to limit carts whose expires_at is before cutoff
// and returns how many were deleted.
func (r *Repository) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	conn := r.db.WithContext(ctx)
	cutoff = cutoff.UTC()

	var ids []uuid.UUID
	query := conn.Model(&models.Cart{}).
		Where("expires_at < ?", cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := conn.Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := conn.Where("id IN ? AND expires_at < ?", ids, cutoff).Delete(&models.Cart{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *Repository) insertItems(ctx context.Context, cart *models.Cart) error {
	if len(cart.Items) == 0 {
		return nil
	}
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
		cart.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Create(&cart.Items).Error
}
