package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/realtime"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, hub *realtime.Hub) BudgetServicer {
	return &budgetService{db: db, hub: hub}
}

// CreateBudget writes a new budget under the user. The amount is the
// envelope's income baseline and is not editable afterwards.
func (s *budgetService) CreateBudget(userID, title string, amount decimal.Decimal, budgetType models.BudgetType) (*models.Budget, error) {
	budget := &models.Budget{
		UserID: userID,
		Title:  title,
		Amount: amount,
		Type:   budgetType,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.hub.Invalidate(realtime.BudgetsPath(userID))
	return budget, nil
}

// ListBudgets returns a page of the user's budgets, most recent first.
func (s *budgetService) ListBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	// Ties on created_at fall back to key order, which is insertion order.
	var budgets []models.Budget
	if err := base.Order("created_at DESC, id ASC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &budget, nil
}

// RenameBudget updates the budget title. The title is the only field the
// command surface may change after creation.
func (s *budgetService) RenameBudget(userID, budgetID, title string) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(budget).Update("title", title).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.hub.Invalidate(realtime.BudgetsPath(userID))
	s.hub.Invalidate(realtime.BudgetPath(userID, budgetID))
	return budget, nil
}

// DeleteBudget removes the budget node only. Its expenses are left in place;
// the store does not cascade, and whether it should is a product decision
// that has not been taken. OrphanedExpenses surfaces what remains.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.hub.Invalidate(realtime.BudgetsPath(userID))
	s.hub.Invalidate(realtime.BudgetPath(userID, budgetID))
	return nil
}

// OrphanedExpenses lists expenses whose budget has been deleted.
func (s *budgetService) OrphanedExpenses(userID string) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.
		Joins("JOIN budgets ON budgets.id = expenses.budget_id").
		Where("budgets.user_id = ? AND budgets.deleted_at IS NOT NULL", userID).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return expenses, nil
}
