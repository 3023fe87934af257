package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/ledger"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/realtime"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	db      *gorm.DB
	hub     *realtime.Hub
	budgets BudgetServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, hub *realtime.Hub, budgets BudgetServicer) ExpenseServicer {
	return &expenseService{db: db, hub: hub, budgets: budgets}
}

// AddExpense writes a new expense under the target budget. The entered
// magnitude is always positive; it is negated before storage so the
// persisted sign encodes the debit direction.
func (s *expenseService) AddExpense(userID, budgetID, description string, category models.ExpenseCategory, amount decimal.Decimal) (*models.Expense, error) {
	if _, err := s.budgets.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		BudgetID:    budgetID,
		Description: description,
		Category:    category,
		Amount:      amount.Abs().Neg(),
	}

	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.hub.Invalidate(realtime.ExpensesPath(userID, budgetID))
	return expense, nil
}

// ListExpenses returns a page of a budget's expenses, most recent first.
func (s *expenseService) ListExpenses(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if _, err := s.budgets.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	var expenses []models.Expense
	if err := base.Order("created_at DESC, id ASC").Scopes(pagination.Paginate(page)).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Totals recomputes the derived ledger for a budget from the full expense
// collection. It is never patched incrementally, so a stale or out-of-order
// snapshot elsewhere cannot leave drift behind.
func (s *expenseService) Totals(userID, budgetID string) (*ledger.Totals, error) {
	budget, err := s.budgets.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := s.db.Where("budget_id = ?", budgetID).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	totals := ledger.DeriveTotals(*budget, expenses)
	return &totals, nil
}
