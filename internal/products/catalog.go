package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const defaultCacheTTL = 5 * time.Minute

// Snapshot is the subset of a product copied into a cart line.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	MaxQuantity int             `json:"max_quantity"`
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ProductKey(productID string) string
}

// Catalog resolves product snapshots through a Redis read-through cache.
type Catalog struct {
	repo  productStore
	cache snapshotCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCatalog wires a catalog. cache may be nil to read straight from the database.
func NewCatalog(repo productStore, cache snapshotCache, ttl time.Duration, logg *logger.Logger) (*Catalog, error) {
	if repo == nil {
		return nil, errors.New("product repository required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Catalog{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

// GetByID returns the product snapshot or a NOT_FOUND error.
func (c *Catalog) GetByID(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	if snap, ok := c.fromCache(ctx, id); ok {
		return snap, nil
	}

	product, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id.String()})
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	snap := Snapshot{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Image:       product.Image,
		MaxQuantity: product.MaxQuantity,
	}
	c.store(ctx, snap)
	return snap, nil
}

// Deactivate hides the product from carts and evicts its cached snapshot so
// lookups fail with NOT_FOUND immediately.
func (c *Catalog) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := c.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	if err := c.Invalidate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "evict product snapshot")
	}
	return nil
}

// Invalidate drops a cached snapshot.
func (c *Catalog) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Del(ctx, c.cache.ProductKey(id.String()))
}

func (c *Catalog) fromCache(ctx context.Context, id uuid.UUID) (Snapshot, bool) {
	if c.cache == nil {
		return Snapshot{}, false
	}
	raw, err := c.cache.Get(ctx, c.cache.ProductKey(id.String()))
	if err != nil {
		if !redis.IsMiss(err) {
			c.warn(ctx, "product cache read failed", err)
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.warn(ctx, "product cache entry corrupt", err)
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Catalog) store(ctx context.Context, snap Snapshot) {
	if c.cache == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		c.warn(ctx, "encode product snapshot", err)
		return
	}
	if err := c.cache.Set(ctx, c.cache.ProductKey(snap.ID.String()), string(payload), c.ttl); err != nil {
		c.warn(ctx, "product cache write failed", err)
	}
}

func (c *Catalog) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
