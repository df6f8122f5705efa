package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khyeongtaek/startup-BE-sub001/internal/approval/entity"
	"github.com/khyeongtaek/startup-BE-sub001/internal/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "groupware-test-jwt-secret"

// SetupTestDB creates an isolated in-memory sqlite database with the suite
// schema migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&entity.Employee{},
		&entity.ApprovalTemplate{},
		&entity.ApprovalDocument{},
		&entity.ApprovalLine{},
		&entity.ApprovalReference{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupRouter creates a bare gin engine in test mode.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing.
func GenerateTestToken(userID, name, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"iss":   "groupware-api",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest executes an HTTP request against the test router.
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

// ParseResponse parses the JSON response body into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedEmployee creates an employee record.
func SeedEmployee(t *testing.T, db *gorm.DB, id, name string) *entity.Employee {
	t.Helper()
	emp := &entity.Employee{
		ID:        id,
		Name:      name,
		Email:     id + "@test.com",
		Status:    entity.EmployeeStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(emp).Error; err != nil {
		t.Fatalf("Failed to seed employee: %v", err)
	}
	return emp
}

// SeedTemplate creates an active approval template.
func SeedTemplate(t *testing.T, db *gorm.DB, id, name, creatorID string) *entity.ApprovalTemplate {
	t.Helper()
	tpl := &entity.ApprovalTemplate{
		ID:        id,
		Name:      name,
		Content:   "{}",
		Status:    entity.TemplateStatusActive,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
	}
	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("Failed to seed template: %v", err)
	}
	return tpl
}
