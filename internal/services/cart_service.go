package services

import (
	"fmt"

	"papyrus/internal/models"
	"papyrus/internal/repositories"
)

// CartService handles business logic for the shopping cart. The unit price
// of a line is locked in from the catalog when the item is added, so the
// checkout snapshot later charges what the buyer saw.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart, creating an empty one if needed.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	return s.cartRepo.Ensure(userID)
}

// AddItem adds a product to the user's cart at the product's current price.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", productID, err)
	}
	err = s.cartRepo.AddItem(userID, models.CartItem{
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	})
	if err != nil {
		return nil, err
	}
	return s.cartRepo.Ensure(userID)
}

// UpdateQuantity changes the quantity of one cart line.
func (s *CartService) UpdateQuantity(userID string, itemID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if err := s.cartRepo.UpdateQuantity(userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.Ensure(userID)
}

// RemoveItem deletes one cart line.
func (s *CartService) RemoveItem(userID string, itemID uint) (*models.Cart, error) {
	if err := s.cartRepo.RemoveItem(userID, itemID); err != nil {
		return nil, err
	}
	return s.cartRepo.Ensure(userID)
}
