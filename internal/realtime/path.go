package realtime

import (
	"fmt"
	"strings"
)

// PathKind identifies which collection a subscription path addresses.
type PathKind string

const (
	KindBudgets  PathKind = "budgets"
	KindBudget   PathKind = "budget"
	KindExpenses PathKind = "expenses"
)

// Path is a parsed subscription path. The store is addressed as a tree:
// users/{uid}/budgets, users/{uid}/budgets/{bid}, and
// users/{uid}/budgets/{bid}/expenses.
type Path struct {
	Kind     PathKind
	UserID   string
	BudgetID string
}

// BudgetsPath returns the path of a user's budget collection.
func BudgetsPath(userID string) string {
	return "users/" + userID + "/budgets"
}

// BudgetPath returns the path of a single budget.
func BudgetPath(userID, budgetID string) string {
	return "users/" + userID + "/budgets/" + budgetID
}

// ExpensesPath returns the path of a budget's expense collection.
func ExpensesPath(userID, budgetID string) string {
	return "users/" + userID + "/budgets/" + budgetID + "/expenses"
}

// ParsePath parses a raw path string into a Path.
func ParsePath(raw string) (Path, error) {
	parts := strings.Split(strings.Trim(raw, "/"), "/")

	switch {
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "budgets":
		return Path{Kind: KindBudgets, UserID: parts[1]}, nil
	case len(parts) == 4 && parts[0] == "users" && parts[2] == "budgets":
		return Path{Kind: KindBudget, UserID: parts[1], BudgetID: parts[3]}, nil
	case len(parts) == 5 && parts[0] == "users" && parts[2] == "budgets" && parts[4] == "expenses":
		return Path{Kind: KindExpenses, UserID: parts[1], BudgetID: parts[3]}, nil
	}

	return Path{}, fmt.Errorf("unrecognized path: %q", raw)
}
