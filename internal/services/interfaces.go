package services

import (
	"github.com/shopspring/decimal"

	"gastos/internal/ledger"
	"gastos/internal/models"
	"gastos/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(email, password, fullName, job string) (*models.User, error)
	Authenticate(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	ChangePassword(userID, newPassword string) error
	SignOut(userID string)
	TokenVersion(userID string) (int, error)
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, title string, amount decimal.Decimal, budgetType models.BudgetType) (*models.Budget, error)
	ListBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	RenameBudget(userID, budgetID, title string) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	OrphanedExpenses(userID string) ([]models.Expense, error)
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	AddExpense(userID, budgetID, description string, category models.ExpenseCategory, amount decimal.Decimal) (*models.Expense, error)
	ListExpenses(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	Totals(userID, budgetID string) (*ledger.Totals, error)
}
