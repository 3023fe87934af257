package models

import "github.com/shopspring/decimal"

// BudgetType classifies a budget envelope.
type BudgetType string

const (
	BudgetTypeIncome    BudgetType = "income"
	BudgetTypeAllowance BudgetType = "allowance"
	BudgetTypeSaving    BudgetType = "saving"
)

// Budget represents a named income envelope owned by one user. Amount is the
// envelope's income baseline, fixed at creation; only the title is editable
// afterwards.
type Budget struct {
	Base
	UserID string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title  string          `gorm:"not null" json:"title"`
	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Type   BudgetType      `gorm:"not null" json:"type"`

	// Relationships
	Expenses []Expense `gorm:"foreignKey:BudgetID" json:"expenses,omitempty"`
}
