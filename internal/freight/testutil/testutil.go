package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "tact-freight-test-secret"

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB opens an isolated in-memory sqlite database with all freight tables migrated.
// A single connection is used so every query (and every transaction) sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
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
func GenerateTestToken(userID, name, email, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"role":  role,
		"iss":   "tact-freight",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", "admin@test.com", entity.RoleAdmin)
}

// TokenFor returns a token for a test user with the given role; the email is derived from the role
func TokenFor(role string) string {
	return GenerateTestToken("test-"+role, "Test "+role, role+"@test.com", role)
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

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedRFQ creates an RFQ in the given status directly in the database
func SeedRFQ(t *testing.T, db *gorm.DB, id, reference, clientEmail, status string) *entity.RFQ {
	t.Helper()
	rfq := &entity.RFQ{
		ID:          id,
		Reference:   reference,
		CompanyName: "Nile Traders",
		ClientEmail: clientEmail,
		Mode:        entity.ModeSea,
		Origin:      "Shanghai",
		Destination: "Cairo",
		WeightKG:    1200,
		VolumeCBM:   18.5,
		Status:      status,
		CreatedBy:   clientEmail,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(rfq).Error; err != nil {
		t.Fatalf("Failed to seed RFQ: %v", err)
	}
	return rfq
}

// SeedShipment creates a shipment at the given status with a consistent canonical history
func SeedShipment(t *testing.T, db *gorm.DB, id, trackingNumber, clientEmail, status string) *entity.Shipment {
	t.Helper()
	var history entity.StatusHistory
	for _, s := range entity.ShipmentStatusFlow {
		history = append(history, entity.StatusHistoryEntry{
			Status:    s,
			Timestamp: time.Now(),
			UpdatedBy: "ops@test.com",
		})
		if s == status {
			break
		}
	}
	shipment := &entity.Shipment{
		ID:               id,
		TrackingNumber:   trackingNumber,
		Mode:             entity.ModeSea,
		Origin:           "Shanghai",
		Destination:      "Cairo",
		CompanyName:      "Nile Traders",
		ClientEmail:      clientEmail,
		ConsigneeName:    "Cairo Imports",
		CargoDescription: "Machine parts",
		WeightKG:         1200,
		VolumeCBM:        18.5,
		Status:           status,
		StatusHistory:    history,
		CreatedBy:        "ops@test.com",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("Failed to seed shipment: %v", err)
	}
	return shipment
}
