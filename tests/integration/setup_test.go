package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gastos/internal/handlers"
	"gastos/internal/logger"
	"gastos/internal/middleware"
	"gastos/internal/models"
	"gastos/internal/realtime"
	"gastos/internal/services"
	"gastos/internal/submit"
	"gastos/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Hub      *realtime.Hub
	Sessions *realtime.SessionBroadcaster
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.Expense{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Realtime delivery
	hub := realtime.NewHub(realtime.NewStoreLoader(db))
	sessions := realtime.NewSessionBroadcaster()
	guard := submit.NewGuard()

	// Services
	userService := services.NewUserService(db, sessions)
	budgetService := services.NewBudgetService(db, hub)
	expenseService := services.NewExpenseService(db, hub, budgetService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, guard)
	expenseHandler := handlers.NewExpenseHandler(expenseService, guard)
	streamHandler := handlers.NewStreamHandler(hub, sessions)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(userService))

	protected.POST("/auth/change-password", authHandler.ChangePassword)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/users/:id", userHandler.GetUser)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	budgets.POST("/:id/expenses", expenseHandler.AddExpense)
	budgets.GET("/:id/expenses", expenseHandler.ListExpenses)
	budgets.GET("/:id/totals", expenseHandler.Totals)
	protected.GET("/expenses/orphaned", budgetHandler.OrphanedExpenses)

	stream := protected.Group("/stream")
	stream.GET("/budgets", streamHandler.StreamBudgets)
	stream.GET("/budgets/:id", streamHandler.StreamBudget)
	stream.GET("/budgets/:id/expenses", streamHandler.StreamExpenses)
	stream.GET("/session", streamHandler.StreamSession)

	return &testApp{DB: db, Router: router, Hub: hub, Sessions: sessions}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"full_name":"Jane Doe","job":"Accountant"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// loginUser logs in and returns the token.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string)
}

// createBudget creates a budget over HTTP and returns its ID.
func (app *testApp) createBudget(t *testing.T, token, title, amount, budgetType string) string {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"amount":%q,"type":%q}`, title, amount, budgetType)
	rec := app.request("POST", "/api/v1/budgets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

// assertAmount compares a decimal against its expected string form.
func assertAmount(t *testing.T, name string, got decimal.Decimal, expected string) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", expected, err)
	}
	if !got.Equal(want) {
		t.Errorf("expected %s %s, got %s", name, expected, got)
	}
}

// addExpense records an expense over HTTP and returns its ID.
func (app *testApp) addExpense(t *testing.T, token, budgetID, description, category, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"description":%q,"category":%q,"amount":%q}`, description, category, amount)
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}
