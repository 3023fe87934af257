package models

import "github.com/shopspring/decimal"

// ExpenseCategory classifies an expense entry.
type ExpenseCategory string

const (
	CategoryFood           ExpenseCategory = "Food"
	CategoryTransportation ExpenseCategory = "Transportation"
	CategoryUtilities      ExpenseCategory = "Utilities"
	CategoryEntertainment  ExpenseCategory = "Entertainment"
	CategoryOther          ExpenseCategory = "Other"
)

// Expense represents a debit recorded against a budget. The persisted amount
// is always the negated absolute value of the entered magnitude: a negative
// sign encodes the debit direction.
type Expense struct {
	Base
	BudgetID    string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	Description string          `gorm:"not null" json:"description"`
	Category    ExpenseCategory `gorm:"not null" json:"category"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}
