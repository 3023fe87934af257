package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	registerFn       func(email, password, fullName, job string) (*models.User, error)
	authenticateFn   func(email, password string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	changePasswordFn func(userID, newPassword string) error
	signOutFn        func(userID string)
	tokenVersionFn   func(userID string) (int, error)
}

func (m *mockUserService) Register(email, password, fullName, job string) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(email, password, fullName, job)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Authenticate(email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangePassword(userID, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, newPassword)
	}
	return nil
}

func (m *mockUserService) SignOut(userID string) {
	if m.signOutFn != nil {
		m.signOutFn(userID)
	}
}

func (m *mockUserService) TokenVersion(userID string) (int, error) {
	if m.tokenVersionFn != nil {
		return m.tokenVersionFn(userID)
	}
	return 0, nil
}

// --- test helpers ---

const testUserID = "0195a8a0-0000-7000-8000-000000000001"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/change-password", injectUserID(testUserID), handler.ChangePassword)
	r.POST("/auth/logout", injectUserID(testUserID), handler.Logout)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return serve(r, newJSONRequest(method, path, body))
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// waitForCalls polls until the counter guarded by mu reaches want.
func waitForCalls(t *testing.T, mu *sync.Mutex, counter *int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := *counter
		mu.Unlock()
		if n >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d calls", want)
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token and user", func(t *testing.T) {
		svc := &mockUserService{
			registerFn: func(email, _, fullName, job string) (*models.User, error) {
				return &models.User{
					Base:     models.Base{ID: testUserID},
					Email:    email,
					FullName: fullName,
					Job:      job,
				}, nil
			},
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jane.doe@example.com","password":"correct-horse","full_name":"Jane Doe","job":"Accountant"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] == nil || result["token"] == "" {
			t.Error("expected a signed token in the response")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "jane.doe@example.com" {
			t.Errorf("expected jane.doe@example.com, got %v", user["email"])
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password must never appear in the response")
		}
	})

	t.Run("returns 400 on malformed email", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"not-an-email","password":"correct-horse","full_name":"Jane Doe","job":"Accountant"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jane.doe@example.com","password":"short","full_name":"Jane Doe","job":"Accountant"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on short full name", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jane.doe@example.com","password":"correct-horse","full_name":"Jane","job":"Accountant"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on short job", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jane.doe@example.com","password":"correct-horse","full_name":"Jane Doe","job":"dev"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		svc := &mockUserService{
			registerFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"jane.doe@example.com","password":"correct-horse","full_name":"Jane Doe","job":"Accountant"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token on valid credentials", func(t *testing.T) {
		svc := &mockUserService{
			authenticateFn: func(email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"jane.doe@example.com","password":"correct-horse"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] == nil || result["token"] == "" {
			t.Error("expected a signed token in the response")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		svc := &mockUserService{
			authenticateFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login",
			`{"email":"jane.doe@example.com","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 on missing password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/login", `{"email":"jane.doe@example.com"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var gotUserID, gotPassword string
		svc := &mockUserService{
			changePasswordFn: func(userID, newPassword string) error {
				gotUserID = userID
				gotPassword = newPassword
				return nil
			},
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/change-password",
			`{"new_password":"fresh-password","confirm_password":"fresh-password"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUserID != testUserID {
			t.Errorf("expected user %s, got %s", testUserID, gotUserID)
		}
		if gotPassword != "fresh-password" {
			t.Errorf("expected fresh-password, got %s", gotPassword)
		}
	})

	t.Run("returns 400 when confirmation differs", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/change-password",
			`{"new_password":"fresh-password","confirm_password":"other-password"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PASSWORD_MISMATCH")
	})

	t.Run("returns 400 on short new password", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/change-password",
			`{"new_password":"short","confirm_password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := gin.New()
		r.POST("/auth/change-password", handler.ChangePassword)

		rec := doRequest(r, "POST", "/auth/change-password",
			`{"new_password":"fresh-password","confirm_password":"fresh-password"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("returns 200 and signs out", func(t *testing.T) {
		var signedOut string
		svc := &mockUserService{
			signOutFn: func(userID string) { signedOut = userID },
		}
		handler := NewAuthHandler(svc)
		r := setupAuthRouter(handler)

		rec := doRequest(r, "POST", "/auth/logout", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if signedOut != testUserID {
			t.Errorf("expected sign-out for %s, got %q", testUserID, signedOut)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{})
		r := gin.New()
		r.POST("/auth/logout", handler.Logout)

		rec := doRequest(r, "POST", "/auth/logout", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
