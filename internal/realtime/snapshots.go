package realtime

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gastos/internal/ledger"
	"gastos/internal/logger"
	"gastos/internal/models"
)

// StoreLoader reads full-collection snapshots from the database. An empty or
// absent collection loads as an empty slice, and an absent budget as a nil
// pointer; neither is an error.
type StoreLoader struct {
	db *gorm.DB
}

// NewStoreLoader creates a StoreLoader over the given database.
func NewStoreLoader(db *gorm.DB) *StoreLoader {
	return &StoreLoader{db: db}
}

// Load implements Loader. Collections come back ordered the way the ledger
// presents them; corrupt expense rows are dropped here so every subscriber
// sees the same filtered snapshot.
func (l *StoreLoader) Load(path Path) (any, error) {
	switch path.Kind {
	case KindBudgets:
		var budgets []models.Budget
		if err := l.db.Where("user_id = ?", path.UserID).Order("id").Find(&budgets).Error; err != nil {
			return nil, err
		}
		return ledger.SortBudgets(budgets), nil

	case KindBudget:
		var budget models.Budget
		err := l.db.Where("id = ? AND user_id = ?", path.BudgetID, path.UserID).First(&budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return (*models.Budget)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return &budget, nil

	case KindExpenses:
		// Expenses load through the owning budget. A budget that does not
		// belong to path.UserID, or does not exist, snapshots as empty.
		var owned int64
		if err := l.db.Model(&models.Budget{}).
			Where("id = ? AND user_id = ?", path.BudgetID, path.UserID).
			Count(&owned).Error; err != nil {
			return nil, err
		}
		if owned == 0 {
			return []models.Expense{}, nil
		}
		var rows []models.Expense
		if err := l.db.Where("budget_id = ?", path.BudgetID).Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		expenses := make([]models.Expense, 0, len(rows))
		for _, e := range rows {
			if ledger.WellFormed(e) {
				expenses = append(expenses, e)
			}
		}
		return ledger.SortExpenses(expenses), nil
	}

	return nil, gorm.ErrInvalidData
}

// SubscribeBudgets registers a listener on the user's budget collection.
func SubscribeBudgets(h *Hub, userID string, fn func([]models.Budget)) (Disposer, error) {
	return subscribeTyped(h, BudgetsPath(userID), fn)
}

// SubscribeBudget registers a listener on a single budget. A nil budget in
// the callback means the budget is absent or was deleted.
func SubscribeBudget(h *Hub, userID, budgetID string, fn func(*models.Budget)) (Disposer, error) {
	return subscribeTyped(h, BudgetPath(userID, budgetID), fn)
}

// SubscribeExpenses registers a listener on a budget's expense collection.
func SubscribeExpenses(h *Hub, userID, budgetID string, fn func([]models.Expense)) (Disposer, error) {
	return subscribeTyped(h, ExpensesPath(userID, budgetID), fn)
}

// subscribeTyped wraps a typed callback behind the hub's untyped delivery.
// Snapshots that fail the type assertion are dropped with a log line rather
// than delivered as a zero value.
func subscribeTyped[T any](h *Hub, path string, fn func(T)) (Disposer, error) {
	return h.Subscribe(path, func(data any) {
		payload, ok := data.(T)
		if !ok {
			logger.Get().Errorw("snapshot type mismatch", "path", path, "got", fmt.Sprintf("%T", data))
			return
		}
		fn(payload)
	})
}
