package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/services"
	"gastos/internal/submit"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	guard          *submit.Guard
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, guard *submit.Guard) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, guard: guard}
}

// AddExpenseRequest is the payload for recording an expense. The amount is
// the entered magnitude; the stored record carries its negation.
type AddExpenseRequest struct {
	Description string `json:"description" binding:"required,min=1,max=255" example:"Groceries"`
	Category    string `json:"category" binding:"required,expense_category" example:"Food"`
	Amount      string `json:"amount" binding:"required,numeric" example:"120.50"`
}

// AddExpense godoc
// @Summary Record an expense
// @Description Records an expense under a budget owned by the authenticated user. Repeated submissions carrying the same X-Submission-Id header while one is in flight produce a single expense.
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Param X-Submission-Id header string false "Form instance token for duplicate-submission protection"
// @Param request body AddExpenseRequest true "Expense details"
// @Success 201 {object} models.Expense
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id}/expenses [post]
func (h *ExpenseHandler) AddExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseExpenseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID := c.Param("id")
	result, _, err := h.guard.Do(submissionKey(c, userID), func() (any, error) {
		return h.expenseService.AddExpense(userID, budgetID, req.Description, models.ExpenseCategory(req.Category), amount)
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result.(*models.Expense))
}

// ListExpenses godoc
// @Summary List expenses
// @Description Returns a budget's expenses, most recent first
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} pagination.PageResponse[models.Expense]
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id}/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expenses, err := h.expenseService.ListExpenses(userID, c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenses)
}

// Totals godoc
// @Summary Get budget totals
// @Description Returns the income, spending, and remaining balance derived from a budget and its expenses
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 200 {object} ledger.Totals
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id}/totals [get]
func (h *ExpenseHandler) Totals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.expenseService.Totals(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}
