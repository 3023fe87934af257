package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gastos/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email. The password
// is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		FullName: "Test Person",
		Job:      "Test Engineer",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates an income budget with a 5000 baseline.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string) *models.Budget {
	t.Helper()
	return CreateTestBudgetWithAmount(t, db, userID, "5000")
}

// CreateTestBudgetWithAmount creates an income budget with the given baseline.
func CreateTestBudgetWithAmount(t *testing.T, db *gorm.DB, userID, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID: userID,
		Title:  fmt.Sprintf("Test Budget %d", nextID()),
		Amount: decimal.RequireFromString(amount),
		Type:   models.BudgetTypeIncome,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestExpense creates an expense with the stored (negative) amount and
// creation time.
func CreateTestExpense(t *testing.T, db *gorm.DB, budgetID, amount string, createdAt time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		BudgetID:    budgetID,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Category:    models.CategoryFood,
		Amount:      decimal.RequireFromString(amount),
	}
	expense.CreatedAt = createdAt
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
