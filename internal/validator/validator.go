// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("budget_type", validateBudgetType)
		_ = v.RegisterValidation("expense_category", validateExpenseCategory)
	}
}

func validateBudgetType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "allowance", "saving":
		return true
	}
	return false
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Food", "Transportation", "Utilities", "Entertainment", "Other":
		return true
	}
	return false
}
