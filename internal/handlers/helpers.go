package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
)

// submissionHeader carries the caller's form-instance token. Submissions
// with the same token collapse into a single write while one is in flight.
const submissionHeader = "X-Submission-Id"

// ErrorResponse documents the error payload shape for Swagger.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MessageResponse documents a plain message payload for Swagger.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// submissionKey builds the single-flight key for a write command. An absent
// submission header yields an empty key, which opts out of deduplication.
func submissionKey(c *gin.Context, userID string) string {
	token := c.GetHeader(submissionHeader)
	if token == "" {
		return ""
	}
	return userID + "|" + c.FullPath() + "|" + token
}

// parseAmount parses a decimal amount from its string form.
func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be numeric")
	}
	return amount, nil
}

// parseExpenseAmount parses and validates an entered expense magnitude:
// numeric, at least 1, at most two decimal places.
func parseExpenseAmount(value string) (decimal.Decimal, error) {
	amount, err := parseAmount(value)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if amount.LessThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be at least 1")
	}
	if amount.Exponent() < -2 {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most 2 decimal places")
	}
	return amount, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternal.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternal.Code,
			"message": apperrors.ErrInternal.Message,
		},
	})
}
