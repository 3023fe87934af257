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

// BudgetHandler handles budget endpoints.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	guard         *submit.Guard
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, guard *submit.Guard) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, guard: guard}
}

// CreateBudgetRequest is the payload for adding a budget. The amount travels
// as a string so no precision is lost on the wire.
type CreateBudgetRequest struct {
	Title  string `json:"title" binding:"required,min=1,max=100" example:"Salary"`
	Amount string `json:"amount" binding:"required,numeric" example:"5000"`
	Type   string `json:"type" binding:"required,budget_type" example:"income"`
}

// UpdateBudgetRequest is the payload for renaming a budget. Only the title is
// editable after creation.
type UpdateBudgetRequest struct {
	Title string `json:"title" binding:"required,min=1,max=100" example:"Base salary"`
}

// CreateBudget godoc
// @Summary Add a budget
// @Description Creates a budget for the authenticated user. Repeated submissions carrying the same X-Submission-Id header while one is in flight produce a single budget.
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Submission-Id header string false "Form instance token for duplicate-submission protection"
// @Param request body CreateBudgetRequest true "Budget details"
// @Success 201 {object} models.Budget
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, _, err := h.guard.Do(submissionKey(c, userID), func() (any, error) {
		return h.budgetService.CreateBudget(userID, req.Title, amount, models.BudgetType(req.Type))
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result.(*models.Budget))
}

// ListBudgets godoc
// @Summary List budgets
// @Description Returns the authenticated user's budgets, most recent first
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} pagination.PageResponse[models.Budget]
// @Failure 401 {object} ErrorResponse
// @Router /budgets [get]
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
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

	budgets, err := h.budgetService.ListBudgets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// GetBudget godoc
// @Summary Get a budget
// @Description Returns a single budget owned by the authenticated user
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 200 {object} models.Budget
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// UpdateBudget godoc
// @Summary Rename a budget
// @Description Updates a budget's title. Amount and type are fixed at creation.
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Param request body UpdateBudgetRequest true "New title"
// @Success 200 {object} models.Budget
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id} [patch]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.RenameBudget(userID, c.Param("id"), req.Title)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Description Removes a budget. Expenses recorded under it are left in place and become orphaned.
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "budget deleted"})
}

// OrphanedExpenses godoc
// @Summary List orphaned expenses
// @Description Returns expenses whose budget has been deleted
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Expense
// @Failure 401 {object} ErrorResponse
// @Router /expenses/orphaned [get]
func (h *BudgetHandler) OrphanedExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.budgetService.OrphanedExpenses(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenses)
}
