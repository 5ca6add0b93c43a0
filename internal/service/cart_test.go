package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
)

type cartFixture struct {
	db    *gorm.DB
	svc   *CartService
	user  models.User
	gpu   models.Product
	mouse models.Product
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	db := newTestDB(t)

	f := &cartFixture{
		db:  db,
		svc: NewCartService(repository.NewGormCartRepository(db), repository.NewGormProductRepository(db), nil),
		user: models.User{
			Name: "Ana", Email: "ana@x.com", PasswordHash: "x", Role: models.RoleCustomer,
		},
		gpu:   models.Product{Name: "RTX 4070", Price: 599.99, Stock: 12, Category: "gpu"},
		mouse: models.Product{Name: "MX Master 3S", Price: 99.99, Stock: 40, Category: "peripherals"},
	}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.gpu).Error)
	require.NoError(t, db.Create(&f.mouse).Error)
	return f
}

func TestAddItemMergesQuantities(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, uint(2), cart[0].Quantity)

	cart, err = f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, uint(5), cart[0].Quantity)
	require.Equal(t, f.gpu.ID, cart[0].ProductID)
	require.Equal(t, f.gpu.Name, cart[0].Name)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	f := newCartFixture(t)

	cart, err := f.svc.AddItem(context.Background(), f.user.ID, f.gpu.ID, 0)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, uint(1), cart[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.user.ID, 9999, 1)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAddItemExceedingStockIsAllowed(t *testing.T) {
	f := newCartFixture(t)

	cart, err := f.svc.AddItem(context.Background(), f.user.ID, f.gpu.ID, f.gpu.Stock+100)
	require.NoError(t, err)
	require.Equal(t, f.gpu.Stock+100, cart[0].Quantity)
}

func TestGetCartOrdersMostRecentFirst(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 1)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = f.svc.AddItem(ctx, f.user.ID, f.mouse.ID, 1)
	require.NoError(t, err)

	cart, err := f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, cart, 2)
	require.Equal(t, f.mouse.ID, cart[0].ProductID)
	require.Equal(t, f.gpu.ID, cart[1].ProductID)
}

func TestUpdateItem(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)
	lineID := cart[0].LineID

	require.NoError(t, f.svc.UpdateItem(ctx, f.user.ID, lineID, 7))

	cart, err = f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, uint(7), cart[0].Quantity)
}

func TestUpdateItemZeroDeletesLine(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateItem(ctx, f.user.ID, cart[0].LineID, 0))

	cart, err = f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Empty(t, cart)
}

func TestUpdateItemNegativeDeletesLine(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateItem(ctx, f.user.ID, cart[0].LineID, -3))

	cart, err = f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Empty(t, cart)
}

func TestUpdateItemNotOwned(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	other := models.User{Name: "Bob", Email: "bob@x.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, f.db.Create(&other).Error)

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)

	err = f.svc.UpdateItem(ctx, other.ID, cart[0].LineID, 5)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// The owner's line is untouched.
	cart, err = f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, uint(2), cart[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(ctx, f.user.ID, cart[0].LineID))

	err = f.svc.RemoveItem(ctx, f.user.ID, cart[0].LineID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestClearCartIsIdempotent(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, f.gpu.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, f.mouse.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearCart(ctx, f.user.ID))

	cart, err := f.svc.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Empty(t, cart)

	// Clearing an already-empty cart still succeeds.
	require.NoError(t, f.svc.ClearCart(ctx, f.user.ID))
}
