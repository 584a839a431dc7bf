package services_test

import (
	"testing"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/internal/services"

	"github.com/stretchr/testify/assert"
)

func newCartFixture(t *testing.T) (*repositories.MockProductRepository, *services.CartService) {
	t.Helper()
	products := repositories.NewMockProductRepository()
	carts := repositories.NewMockCartRepository()
	return products, services.NewCartService(carts, products)
}

func TestAddItem_LocksInCatalogPrice(t *testing.T) {
	products, svc := newCartFixture(t)
	product := &models.Product{Name: "A5 Notebook", Price: 4.50, Stock: 10}
	assert.NoError(t, products.Create(product))

	cart, err := svc.AddItem("user-1", product.ID, 2)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 4.50, cart.Items[0].UnitPrice)

	// A later catalog price change does not touch the existing line.
	product.Price = 9.99
	assert.NoError(t, products.Update(product))
	cart, err = svc.GetCart("user-1")
	assert.NoError(t, err)
	assert.Equal(t, 4.50, cart.Items[0].UnitPrice)
}

func TestAddItem_Validation(t *testing.T) {
	products, svc := newCartFixture(t)
	product := &models.Product{Name: "Gel Pen", Price: 1.20, Stock: 10}
	assert.NoError(t, products.Create(product))

	_, err := svc.AddItem("user-1", product.ID, 0)
	assert.Error(t, err)
	_, err = svc.AddItem("user-1", product.ID, -3)
	assert.Error(t, err)
	_, err = svc.AddItem("user-1", "missing", 1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	products, svc := newCartFixture(t)
	product := &models.Product{Name: "Gel Pen", Price: 1.20, Stock: 10}
	assert.NoError(t, products.Create(product))

	cart, err := svc.AddItem("user-1", product.ID, 1)
	assert.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateQuantity("user-1", itemID, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	_, err = svc.UpdateQuantity("user-1", itemID, 0)
	assert.Error(t, err)
	_, err = svc.UpdateQuantity("user-1", 9999, 2)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	products, svc := newCartFixture(t)
	product := &models.Product{Name: "Stapler", Price: 7.00, Stock: 3}
	assert.NoError(t, products.Create(product))

	cart, err := svc.AddItem("user-1", product.ID, 1)
	assert.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.RemoveItem("user-1", itemID)
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.RemoveItem("user-1", itemID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGetCart_CreatesEmptyCart(t *testing.T) {
	_, svc := newCartFixture(t)

	cart, err := svc.GetCart("new-user")
	assert.NoError(t, err)
	assert.Equal(t, "new-user", cart.UserID)
	assert.Empty(t, cart.Items)
}
