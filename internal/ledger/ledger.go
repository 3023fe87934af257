// Package ledger holds the pure derivation functions over a user's budgets
// and expenses. Totals are always recomputed from a full snapshot of the
// expense collection, never patched incrementally, so the result is the same
// regardless of the order in which realtime snapshots arrive.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"gastos/internal/models"
)

// Totals is the derived ledger view for one budget.
type Totals struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// DeriveTotals computes the ledger for a budget from the full expense
// snapshot: totalIncome is the budget amount, totalExpenses the sum of
// absolute expense amounts, remainingBalance their difference. Malformed
// rows are skipped; a single corrupt row must not blank the whole ledger.
func DeriveTotals(budget models.Budget, expenses []models.Expense) Totals {
	spent := decimal.Zero
	for _, e := range expenses {
		if !WellFormed(e) {
			continue
		}
		spent = spent.Add(e.Amount.Abs())
	}

	return Totals{
		TotalIncome:      budget.Amount,
		TotalExpenses:    spent,
		RemainingBalance: budget.Amount.Sub(spent),
	}
}

// SortBudgets orders budgets by creation time, most recent first. Ties keep
// the store's insertion order, so the sort must be stable.
func SortBudgets(budgets []models.Budget) []models.Budget {
	sorted := make([]models.Budget, len(budgets))
	copy(sorted, budgets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// SortExpenses orders expenses by creation time, most recent first.
func SortExpenses(expenses []models.Expense) []models.Expense {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// WellFormed reports whether an expense row carries the fields derivation
// depends on. A zero amount or zero creation time means the row was stored
// without them and it is excluded rather than aborting the computation.
func WellFormed(e models.Expense) bool {
	return !e.CreatedAt.IsZero() && !e.Amount.IsZero()
}
