// internal/tests/api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/router"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const adminToken = "let-me-in"

type stubGateway struct{}

func (stubGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	return &services.PaymentIntent{ID: "pi_" + metadata["order_id"], ClientSecret: "secret", Status: "requires_payment_method"}, nil
}

func (stubGateway) GetPaymentIntent(ctx context.Context, id string) (*services.PaymentIntent, error) {
	return &services.PaymentIntent{ID: id, Status: "succeeded"}, nil
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   *utils.APIError        `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

type APITestSuite struct {
	suite.Suite
	adminHash string
	server    *router.Server
	store     *database.MemoryStore
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.WarnLevel)
	suite.Require().NoError(i18n.Initialize("en"))

	hash, err := utils.HashToken(adminToken)
	suite.Require().NoError(err)
	suite.adminHash = hash
}

func (suite *APITestSuite) SetupTest() {
	cfg := &config.Config{
		Environment: "test",
		Database:    config.DatabaseConfig{Driver: "memory"},
		JWT:         config.JWTConfig{SecretKey: "api-test-secret", SessionTTL: 24},
		AWS:         config.AWSConfig{SnapshotKey: "snapshots/latest.json", LocalSnapshotDir: "../../data"},
		Payment:     config.PaymentConfig{EnableCOD: true},
		Shop: config.ShopConfig{
			StockMaintained: true,
			SearchMode:      "local",
			CartExpiryHours: 24,
			Currency:        "usd",
			Locale:          "en",
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Admin:     config.AdminConfig{ImportTokenHash: suite.adminHash},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
	}

	suite.store = database.NewMemoryStore()
	storage, err := services.NewStorageService(cfg)
	suite.Require().NoError(err)

	suite.server = router.Initialize(cfg, router.Dependencies{
		Repositories: router.Repositories{
			Catalog: suite.store,
			Carts:   suite.store,
			Orders:  suite.store,
			Pages:   suite.store,
		},
		Storage: storage,
		Gateway: stubGateway{},
	})

	_, err = suite.server.Snapshots.Import(context.Background(), &services.ImportRequest{})
	suite.Require().NoError(err)
}

func (suite *APITestSuite) request(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonData, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(jsonData)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, req)

	var response envelope
	if w.Body.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func (suite *APITestSuite) startSession() map[string]string {
	w, response := suite.request("POST", "/v1/sessions", nil, nil)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var token services.SessionToken
	suite.Require().NoError(json.Unmarshal(response.Data, &token))
	return map[string]string{"Authorization": "Bearer " + token.Token}
}

func (suite *APITestSuite) addLine(auth map[string]string, body gin.H) *services.CartView {
	w, response := suite.request("POST", "/v1/cart/lines", body, auth)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Cart services.CartView `json:"cart"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	return &data.Cart
}

func (suite *APITestSuite) TestHealth() {
	w, _ := suite.request("GET", "/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestListProducts() {
	w, response := suite.request("GET", "/v1/products?category=2&sort=price_asc", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.True(suite.T(), response.Success)
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))

	var products []models.Product
	suite.Require().NoError(json.Unmarshal(response.Data, &products))
	suite.Require().Len(products, 2)
	assert.Equal(suite.T(), int64(2), products[0].ID)
	assert.Equal(suite.T(), int64(3), products[1].ID)

	pagination := response.Meta["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(2), pagination["total"])

	w, response = suite.request("GET", "/v1/products?search=nothing-like-this", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), i18n.T("en", i18n.KeyCatalogNoMatches), response.Meta["message"])
}

func (suite *APITestSuite) TestGetProduct() {
	w, response := suite.request("GET", "/v1/products/1", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var detail services.ProductDetail
	suite.Require().NoError(json.Unmarshal(response.Data, &detail))
	assert.Equal(suite.T(), "[101]", detail.Resolution.CombinationKey.String())
	assert.Equal(suite.T(), 5, detail.Resolution.AvailableStock)
	assert.True(suite.T(), detail.Resolution.CanAddToCart)

	w, _ = suite.request("GET", "/v1/products/abc", nil, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, response = suite.request("GET", "/v1/products/4", nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)
}

func (suite *APITestSuite) TestSelectOption() {
	w, response := suite.request("POST", "/v1/products/1/select", gin.H{
		"selection":       gin.H{"10": 101},
		"variant_type_id": 10,
		"option_id":       103,
		"quantity":        4,
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var result services.ResolveResult
	suite.Require().NoError(json.Unmarshal(response.Data, &result))
	assert.Equal(suite.T(), 2, result.Resolution.Quantity)
	assert.Equal(suite.T(), 25.0, result.Resolution.Price)

	w, response = suite.request("POST", "/v1/products/1/select", gin.H{"quantity": 1}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)
}

func (suite *APITestSuite) TestCartRequiresSession() {
	w, _ := suite.request("GET", "/v1/cart", nil, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, _ = suite.request("GET", "/v1/cart", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestCashOnDeliveryCheckout() {
	auth := suite.startSession()

	cart := suite.addLine(auth, gin.H{"product_id": 1, "selection": gin.H{"10": 101}, "quantity": 2})
	assert.Equal(suite.T(), 2, cart.TotalItems)
	assert.Equal(suite.T(), 40.0, cart.Subtotal)

	// the product view subtracts what the cart holds
	w, response := suite.request("GET", "/v1/products/1", nil, auth)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail services.ProductDetail
	suite.Require().NoError(json.Unmarshal(response.Data, &detail))
	assert.Equal(suite.T(), 3, detail.Resolution.RemainingStock)

	w, response = suite.request("POST", "/v1/cart/lines", gin.H{"product_id": 1, "selection": gin.H{"10": 102}, "quantity": 1}, auth)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "OUT_OF_STOCK", response.Error.Code)

	w, response = suite.request("POST", "/v1/cart/lines", gin.H{"product_id": 1, "quantity": 1}, auth)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "INCOMPLETE_SELECTION", response.Error.Code)

	w, response = suite.request("POST", "/v1/cart/checkout", gin.H{
		"payment_method": "cod",
		"shipping_info":  gin.H{"name": "Ada"},
	}, auth)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var placed struct {
		Order models.Order `json:"order"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &placed))
	assert.Equal(suite.T(), models.OrderStatusConfirmed, placed.Order.Status)
	assert.Equal(suite.T(), 40.0, placed.Order.Subtotal)

	w, _ = suite.request("GET", "/v1/orders/"+placed.Order.ID.String(), nil, auth)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.request("GET", "/v1/orders/"+placed.Order.ID.String(), nil, suite.startSession())
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w, _ = suite.request("GET", "/v1/cart", nil, auth)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *APITestSuite) TestCardCheckoutConfirm() {
	auth := suite.startSession()
	suite.addLine(auth, gin.H{"product_id": 2, "quantity": 3})

	w, response := suite.request("POST", "/v1/cart/checkout", gin.H{
		"payment_method": "card",
		"shipping_info":  gin.H{"name": "Ada"},
	}, auth)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var placed struct {
		Order models.Order `json:"order"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &placed))
	assert.Equal(suite.T(), models.OrderStatusPending, placed.Order.Status)
	assert.Equal(suite.T(), "secret", placed.Order.ClientSecret)

	path := fmt.Sprintf("/v1/orders/%s/confirm", placed.Order.ID)
	w, response = suite.request("POST", path, gin.H{"payment_intent_id": placed.Order.PaymentReference}, auth)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var confirmed struct {
		Order models.Order `json:"order"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &confirmed))
	assert.Equal(suite.T(), models.OrderStatusConfirmed, confirmed.Order.Status)
}

func (suite *APITestSuite) TestCheckoutEmptyCart() {
	auth := suite.startSession()

	w, response := suite.request("POST", "/v1/cart/checkout", gin.H{
		"payment_method": "cod",
		"shipping_info":  gin.H{"name": "Ada"},
	}, auth)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "CART_EMPTY", response.Error.Code)
}

func (suite *APITestSuite) TestLineEndpoints() {
	auth := suite.startSession()
	cart := suite.addLine(auth, gin.H{"product_id": 1, "selection": gin.H{"10": 103}, "quantity": 1})
	lineID := cart.Lines[0].ID.String()

	for i := 0; i < 3; i++ {
		w, _ := suite.request("POST", "/v1/cart/lines/"+lineID+"/increment", nil, auth)
		suite.Require().Equal(http.StatusOK, w.Code)
	}

	w, response := suite.request("GET", "/v1/cart", nil, auth)
	suite.Require().Equal(http.StatusOK, w.Code)
	var view services.CartView
	suite.Require().NoError(json.Unmarshal(response.Data, &view))
	assert.Equal(suite.T(), 2, view.TotalItems)

	w, _ = suite.request("PUT", "/v1/cart/lines/"+lineID, gin.H{"quantity": 0}, auth)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.request("DELETE", "/v1/cart/lines/not-a-uuid", nil, auth)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, response = suite.request("DELETE", "/v1/cart/lines/"+uuid.NewString(), nil, auth)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), i18n.T("en", "cart_line.not_found"), response.Error.Message)
}

func (suite *APITestSuite) TestGetPage() {
	w, response := suite.request("GET", "/v1/pages/home", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var page struct {
		Slug     string `json:"slug"`
		Sections []struct {
			ID   string          `json:"id"`
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		} `json:"sections"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &page))
	suite.Require().Len(page.Sections, 5)
	assert.Equal(suite.T(), "grid-1", page.Sections[1].ID)
	assert.Equal(suite.T(), "product_grid", page.Sections[1].Type)

	w, response = suite.request("GET", "/v1/pages/missing", nil, map[string]string{"Accept-Language": "zh-TW,zh;q=0.9"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), i18n.T("zh_TW", "page.not_found"), response.Error.Message)
}

func (suite *APITestSuite) TestAdminSnapshotImport() {
	w, _ := suite.request("POST", "/v1/admin/snapshots/import", nil, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w, _ = suite.request("POST", "/v1/admin/snapshots/import", nil, map[string]string{middleware.AdminTokenHeader: "wrong"})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	admin := map[string]string{middleware.AdminTokenHeader: adminToken}

	w, response := suite.request("POST", "/v1/admin/snapshots/import", nil, admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var imported struct {
		Import services.ImportResult `json:"import"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &imported))
	assert.Equal(suite.T(), 3, imported.Import.StockRows)
	assert.Equal(suite.T(), 1, imported.Import.DroppedRows)

	w, _ = suite.request("POST", "/v1/admin/snapshots/import", gin.H{"key": "snapshots/missing.json"}, admin)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w, response = suite.request("PUT", "/v1/admin/snapshots/current", `{"products": [`, admin)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "BAD_REQUEST", response.Error.Code)

	w, _ = suite.request("PUT", "/v1/admin/snapshots/current", `{"products": [{"id": 7, "name": "Solo", "price": 5, "quantity": 1}]}`, admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, response = suite.request("GET", "/v1/products", nil, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var products []models.Product
	suite.Require().NoError(json.Unmarshal(response.Data, &products))
	suite.Require().Len(products, 1)
	assert.Equal(suite.T(), "Solo", products[0].Name)
}

func (suite *APITestSuite) TestAdminOrders() {
	auth := suite.startSession()
	suite.addLine(auth, gin.H{"product_id": 3, "quantity": 1})
	w, _ := suite.request("POST", "/v1/cart/checkout", gin.H{"payment_method": "cod", "shipping_info": gin.H{"name": "Ada"}}, auth)
	suite.Require().Equal(http.StatusCreated, w.Code)

	admin := map[string]string{middleware.AdminTokenHeader: adminToken}
	w, response := suite.request("GET", "/v1/admin/orders?status=confirmed", nil, admin)
	suite.Require().Equal(http.StatusOK, w.Code)

	var orders []models.Order
	suite.Require().NoError(json.Unmarshal(response.Data, &orders))
	suite.Require().Len(orders, 1)
	assert.Equal(suite.T(), 12.1, orders[0].Subtotal)

	w, response = suite.request("GET", "/v1/admin/orders?status=failed", nil, admin)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(response.Data, &orders))
	assert.Empty(suite.T(), orders)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
