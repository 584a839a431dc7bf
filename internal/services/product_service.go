package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"papyrus/internal/models"
	"papyrus/internal/repositories"

	"github.com/redis/go-redis/v9"
)

const productCacheTTL = 5 * time.Minute

// ProductService handles business logic related to the product catalog.
// Catalog stock (Product.Stock) is synced into the inventory ledger on every
// create/update, the same way the admin panel seeds `available`. A nil redis
// client disables the read-through cache.
type ProductService struct {
	repo          repositories.ProductRepository
	inventoryRepo repositories.InventoryRepository
	cache         *redis.Client
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, inventoryRepo repositories.InventoryRepository, cache *redis.Client) *ProductService {
	return &ProductService{
		repo:          repo,
		inventoryRepo: inventoryRepo,
		cache:         cache,
	}
}

func productCacheKey(id string) string {
	return "product:" + id
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID, through the cache
// when one is configured.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(context.Background(), productCacheKey(id)).Bytes()
		if err == nil {
			var product models.Product
			if jsonErr := json.Unmarshal(cached, &product); jsonErr == nil {
				return &product, nil
			}
		} else if err != redis.Nil {
			log.Printf("Product cache read failed for %s: %v", id, err)
		}
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if body, jsonErr := json.Marshal(product); jsonErr == nil {
			if err := s.cache.Set(context.Background(), productCacheKey(id), body, productCacheTTL).Err(); err != nil {
				log.Printf("Product cache write failed for %s: %v", id, err)
			}
		}
	}
	return product, nil
}

// CreateProduct creates a new product and seeds its inventory record with
// the catalog stock.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	return s.inventoryRepo.SetAvailable(product.ID, product.Stock)
}

// UpdateProduct updates an existing product and re-syncs its sellable stock.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		return err
	}
	if err := s.inventoryRepo.SetAvailable(product.ID, product.Stock); err != nil {
		return err
	}
	s.invalidate(product.ID)
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *ProductService) invalidate(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(context.Background(), productCacheKey(id)).Err(); err != nil {
		log.Printf("Product cache invalidation failed for %s: %v", id, err)
	}
}
