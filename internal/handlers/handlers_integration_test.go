package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"papyrus/internal/handlers"
	"papyrus/internal/middleware"
	"papyrus/internal/models"
	"papyrus/internal/repositories"
	"papyrus/internal/services"
	"papyrus/pkg/stripe"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const webhookTestSecret = "whsec_integration"

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	users    *repositories.GORMUserRepository
	products *services.ProductService
}

// setupApp wires the full HTTP stack against an in-memory database, with no
// payment gateway, broker, or cache, exactly the degraded mode the server
// runs in without external services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Inventory{},
		&models.Payment{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	inventoryRepo := repositories.NewGORMInventoryRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo, inventoryRepo, nil)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, txManager, nil)
	checkoutService := services.NewCheckoutService(
		userRepo, cartRepo, orderRepo, txManager, authService, nil, nil,
		services.CheckoutConfig{},
	)
	webhookService := services.NewWebhookService(orderRepo, txManager, nil, webhookTestSecret)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewWebhookHandler(webhookService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewCartHandler(cartService).RegisterRoutes(protected)
	handlers.NewCheckoutHandler(checkoutService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)

	admin := protected.Group("", middleware.AdminRequired())
	handlers.NewProductHandler(productService).RegisterAdminRoutes(admin)
	handlers.NewOrderHandler(orderService).RegisterAdminRoutes(admin)

	return &testEnv{app: app, db: db, users: userRepo, products: productService}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		// Some endpoints return arrays; those tests decode raw themselves.
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64, stock int) string {
	t.Helper()
	product := &models.Product{Name: name, Price: price, Stock: stock}
	assert.NoError(t, e.products.CreateProduct(product))
	return product.ID
}

// registerAndLogin creates a verified customer and returns their JWT.
func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	resp, _ := e.request(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	user, err := e.users.GetByUsername(username)
	assert.NoError(t, err)
	assert.NotNil(t, user.EmailVerifyToken)
	resp, _ = e.request(t, http.MethodGet, "/api/v1/auth/verify-email?token="+*user.EmailVerifyToken, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	return e.login(t, username, "s3cret-pass")
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := e.request(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// seedAdmin inserts an admin directly; registration never grants the role.
func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	assert.NoError(t, e.users.Create(&models.User{
		Username:        "admin",
		Email:           "admin@example.com",
		Password:        string(hashed),
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	}))
	return e.login(t, "admin", "admin-pass")
}

func (e *testEnv) inventory(t *testing.T, productID string) *models.Inventory {
	t.Helper()
	inv, err := repositories.NewGORMInventoryRepository(e.db).GetByProductID(productID)
	assert.NoError(t, err)
	return inv
}

func TestCheckoutFlow(t *testing.T) {
	env := setupApp(t)
	productID := env.seedProduct(t, "A5 Notebook", 100, 5)

	// An unverified buyer is blocked at checkout.
	resp, _ := env.request(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "buyer",
		"email":    "buyer@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	token := env.login(t, "buyer", "s3cret-pass")

	resp, _ = env.request(t, http.MethodPost, "/api/v1/cart/items", token, fiber.Map{
		"product_id": productID,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout/", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMAIL_VERIFICATION_REQUIRED", body["code"])

	// Verify and try again.
	user, err := env.users.GetByUsername("buyer")
	assert.NoError(t, err)
	resp, _ = env.request(t, http.MethodGet, "/api/v1/auth/verify-email?token="+*user.EmailVerifyToken, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.request(t, http.MethodPost, "/api/v1/checkout/", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := body["order_id"].(string)
	assert.NotEmpty(t, orderID)

	// Stock is reserved and the cart is empty.
	inv := env.inventory(t, productID)
	assert.Equal(t, 3, inv.AvailableQty)
	assert.Equal(t, 2, inv.AllocatedQty)
	resp, body = env.request(t, http.MethodGet, "/api/v1/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := body["items"].([]interface{})
	assert.Empty(t, items)

	// The gateway confirms payment.
	payload, err := json.Marshal(fiber.Map{
		"id":   "evt_1",
		"type": stripe.EventCheckoutSessionCompleted,
		"data": fiber.Map{
			"object": fiber.Map{
				"id":             "cs_1",
				"amount_total":   20000,
				"payment_intent": "pi_1",
				"metadata":       fiber.Map{"order_id": orderID},
			},
		},
	})
	assert.NoError(t, err)
	sig := stripe.SignPayload(payload, webhookTestSecret, time.Now())

	deliver := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", sig)
		resp, err := env.app.Test(req, -1)
		assert.NoError(t, err)
		return resp
	}
	assert.Equal(t, http.StatusOK, deliver().StatusCode)

	resp, body = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.OrderStatusPaid, body["status"])

	inv = env.inventory(t, productID)
	assert.Equal(t, 3, inv.AvailableQty)
	assert.Equal(t, 0, inv.AllocatedQty)

	// A redelivered event stays a no-op.
	assert.Equal(t, http.StatusOK, deliver().StatusCode)
	var payments []models.Payment
	assert.NoError(t, env.db.Find(&payments).Error)
	assert.Len(t, payments, 1)

	// A tampered payload is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(append(payload, ' ')))
	req.Header.Set("Stripe-Signature", sig)
	badResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupApp(t)
	token := env.registerAndLogin(t, "buyer")

	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout/", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_CART", body["code"])
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := setupApp(t)
	productID := env.seedProduct(t, "Gel Pen", 1.20, 1)
	token := env.registerAndLogin(t, "buyer")

	resp, _ := env.request(t, http.MethodPost, "/api/v1/cart/items", token, fiber.Map{
		"product_id": productID,
		"quantity":   3,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout/", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	// Nothing moved and the cart survived.
	inv := env.inventory(t, productID)
	assert.Equal(t, 1, inv.AvailableQty)
	assert.Equal(t, 0, inv.AllocatedQty)
	resp, cart := env.request(t, http.MethodGet, "/api/v1/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := cart["items"].([]interface{})
	assert.Len(t, items, 1)
}

func TestAdminCancelReturnsStock(t *testing.T) {
	env := setupApp(t)
	productID := env.seedProduct(t, "Stapler", 7, 4)
	token := env.registerAndLogin(t, "buyer")
	adminToken := env.seedAdmin(t)

	resp, _ := env.request(t, http.MethodPost, "/api/v1/cart/items", token, fiber.Map{
		"product_id": productID,
		"quantity":   4,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout/", token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := body["order_id"].(string)

	inv := env.inventory(t, productID)
	assert.Equal(t, 0, inv.AvailableQty)
	assert.Equal(t, 4, inv.AllocatedQty)

	// A customer token cannot reach the admin surface.
	resp, _ = env.request(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID, token, fiber.Map{
		"status": models.OrderStatusCancelled,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPatch, "/api/v1/admin/orders/"+orderID, adminToken, fiber.Map{
		"status": models.OrderStatusCancelled,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	inv = env.inventory(t, productID)
	assert.Equal(t, 4, inv.AvailableQty)
	assert.Equal(t, 0, inv.AllocatedQty)

	resp, body = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.OrderStatusCancelled, body["status"])
}

func TestOrdersRequireAuthentication(t *testing.T) {
	env := setupApp(t)

	resp, _ := env.request(t, http.MethodGet, "/api/v1/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.request(t, http.MethodGet, "/api/v1/cart/", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderOwnership(t *testing.T) {
	env := setupApp(t)
	productID := env.seedProduct(t, "Ruler", 2, 10)
	buyerToken := env.registerAndLogin(t, "buyer")
	otherToken := env.registerAndLogin(t, "other")

	resp, _ := env.request(t, http.MethodPost, "/api/v1/cart/items", buyerToken, fiber.Map{
		"product_id": productID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := env.request(t, http.MethodPost, "/api/v1/checkout/", buyerToken, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID, _ := body["order_id"].(string)

	resp, _ = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductCatalog(t *testing.T) {
	env := setupApp(t)
	adminToken := env.seedAdmin(t)

	resp, body := env.request(t, http.MethodPost, "/api/v1/admin/products/", adminToken, fiber.Map{
		"name":  "A5 Notebook",
		"price": 4.5,
		"stock": 12,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	productID, _ := body["id"].(string)
	assert.NotEmpty(t, productID)

	// Catalog stock seeds the ledger.
	inv := env.inventory(t, productID)
	assert.Equal(t, 12, inv.AvailableQty)

	resp, body = env.request(t, http.MethodGet, "/api/v1/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A5 Notebook", body["name"])

	resp, _ = env.request(t, http.MethodDelete, "/api/v1/admin/products/"+productID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.request(t, http.MethodGet, "/api/v1/products/"+productID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
