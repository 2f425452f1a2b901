package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

var testNow = time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(&models.Cart{}, &models.CartItem{}))
	return conn
}

type stubCatalog struct {
	products map[uuid.UUID]product.Snapshot
	calls    int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[uuid.UUID]product.Snapshot{}}
}

func (s *stubCatalog) add(name, price string, maxQty int) uuid.UUID {
	id := uuid.New()
	s.products[id] = product.Snapshot{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Image:       "https://cdn.example.com/" + name + ".jpg",
		MaxQuantity: maxQty,
	}
	return id
}

func (s *stubCatalog) GetByID(_ context.Context, id uuid.UUID) (product.Snapshot, error) {
	s.calls++
	snap, ok := s.products[id]
	if !ok {
		return product.Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return snap, nil
}

type fixture struct {
	svc     Service
	repo    *Repository
	catalog *stubCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	catalog := newStubCatalog()
	svc, err := NewService(repo, db.NewFromConn(conn), catalog, ServiceOptions{
		TTL: DefaultTTL,
		Now: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, catalog: catalog}
}

func (f *fixture) reload(t *testing.T, owner Owner) *models.Cart {
	t.Helper()
	cart, err := f.repo.FindByOwner(context.Background(), owner)
	require.NoError(t, err)
	return cart
}

// assertReconciled checks the derived totals against the item list.
func assertReconciled(t *testing.T, cart *models.Cart) {
	t.Helper()
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	tax := subtotal.Mul(pricing.TaxRate).Round(2)
	assert.True(t, cart.Subtotal.Equal(subtotal), "subtotal %s, want %s", cart.Subtotal, subtotal)
	assert.True(t, cart.Tax.Equal(tax), "tax %s, want %s", cart.Tax, tax)
	assert.True(t, cart.Total.Equal(subtotal.Add(tax).Add(cart.Shipping)), "total %s", cart.Total)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "error: %v", err)
}
