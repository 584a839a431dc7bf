package services_test

import (
	"testing"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/internal/services"

	"github.com/stretchr/testify/assert"
)

func newProductFixture() (*repositories.MockProductRepository, *repositories.MockInventoryRepository, *services.ProductService) {
	products := repositories.NewMockProductRepository()
	inventory := repositories.NewMockInventoryRepository()
	return products, inventory, services.NewProductService(products, inventory, nil)
}

func TestCreateProduct_SeedsInventory(t *testing.T) {
	_, inventory, svc := newProductFixture()

	product := &models.Product{Name: "A5 Notebook", Price: 4.50, Stock: 12}
	assert.NoError(t, svc.CreateProduct(product))
	assert.NotEmpty(t, product.ID)

	inv, err := inventory.GetByProductID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, 12, inv.AvailableQty)
	assert.Equal(t, 0, inv.AllocatedQty)
}

func TestUpdateProduct_ResyncsInventory(t *testing.T) {
	_, inventory, svc := newProductFixture()

	product := &models.Product{Name: "A5 Notebook", Price: 4.50, Stock: 12}
	assert.NoError(t, svc.CreateProduct(product))

	product.Stock = 3
	assert.NoError(t, svc.UpdateProduct(product))

	inv, err := inventory.GetByProductID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, inv.AvailableQty)
}

func TestUpdateProduct_SetAvailablePreservesAllocations(t *testing.T) {
	_, inventory, svc := newProductFixture()

	product := &models.Product{Name: "A5 Notebook", Price: 4.50, Stock: 10}
	assert.NoError(t, svc.CreateProduct(product))
	assert.NoError(t, inventory.Reserve(product.ID, 4))

	product.Stock = 20
	assert.NoError(t, svc.UpdateProduct(product))

	inv, err := inventory.GetByProductID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, 20, inv.AvailableQty)
	assert.Equal(t, 4, inv.AllocatedQty, "restocking never disturbs held reservations")
}

func TestGetProductByID(t *testing.T) {
	_, _, svc := newProductFixture()

	product := &models.Product{Name: "Gel Pen", Price: 1.20, Stock: 100}
	assert.NoError(t, svc.CreateProduct(product))

	found, err := svc.GetProductByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Gel Pen", found.Name)

	_, err = svc.GetProductByID("missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	products, _, svc := newProductFixture()

	product := &models.Product{Name: "Stapler", Price: 7.00, Stock: 5}
	assert.NoError(t, svc.CreateProduct(product))
	assert.NoError(t, svc.DeleteProduct(product.ID))

	_, err := products.GetByID(product.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(product.ID), repositories.ErrNotFound)
}
