package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/bitfantasy/compras/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "compras-test-jwt-secret"

// SetupTestDB creates an isolated in-memory SQLite database per test.
// The shared cache keeps the database alive across pooled connections.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Supplier{},
		&entity.Category{},
		&entity.Purchase{},
		&entity.PurchaseItem{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "compras",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", "user@test.com")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response envelope into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedSupplier creates a test supplier in the database
func SeedSupplier(t *testing.T, db *gorm.DB, name, nit string) *entity.Supplier {
	t.Helper()
	sup := &entity.Supplier{
		Name:   name,
		NIT:    nit,
		Type:   "general",
		Email:  "supplier@test.com",
		Active: true,
	}
	if err := db.Create(sup).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}
	return sup
}

// SeedPurchase creates a cash purchase without items
func SeedPurchase(t *testing.T, db *gorm.DB, supplierID uint, total string) *entity.Purchase {
	t.Helper()
	p := &entity.Purchase{
		SupplierID:    supplierID,
		InvoiceNumber: fmt.Sprintf("INV-%d", time.Now().UnixNano()%1000000),
		Category:      "ferreteria",
		Description:   "compra de prueba",
		Total:         decimal.RequireFromString(total),
		PurchaseDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: entity.PaymentCash,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed purchase: %v", err)
	}
	return p
}

// SeedItem creates a purchase item with consistent subtotal
func SeedItem(t *testing.T, db *gorm.DB, purchaseID uint, qty int, unitPrice string, order int) *entity.PurchaseItem {
	t.Helper()
	item := &entity.PurchaseItem{
		PurchaseID:  purchaseID,
		Quantity:    qty,
		Description: "item de prueba",
		UnitPrice:   decimal.RequireFromString(unitPrice),
		SortOrder:   order,
	}
	item.RecalcSubtotal()
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	return item
}
