package controllers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/internal/pkg/billing"
	"github.com/pkarbowski/streambill/internal/pkg/ledger"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

// billingNow returns the reference time used by billing operations.
func billingNow() time.Time {
	return time.Now().UTC()
}

// respondError maps domain errors onto structured JSON error responses so
// handlers never leak raw persistence errors to clients.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrSetupRequired), errors.Is(err, ledger.ErrBillingDayRequired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "setup_required",
			"message": "Set a billing day before using consolidated billing",
		})
	case errors.Is(err, billing.ErrNothingToBill):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "nothing_to_bill",
			"message": "No subscription renewals fall inside the current billing window",
		})
	case errors.Is(err, billing.ErrAlreadySettled):
		// Success-equivalent for the caller: the period is paid.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "already_settled",
			"message": "This billing period has already been paid",
		})
	case errors.Is(err, billing.ErrInsufficientCredit),
		errors.Is(err, wallet.ErrInsufficientFunds):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "insufficient_funds",
			"message": "Wallet balance does not cover this charge",
		})
	case errors.Is(err, wallet.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "Amount must be positive",
		})
	case errors.Is(err, ledger.ErrNotAnUpgrade):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "not_an_upgrade",
			"message": "The new plan is not more expensive than the current one",
		})
	case errors.Is(err, ledger.ErrPlanInactive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "plan_inactive",
			"message": "The requested plan is not available",
		})
	case errors.Is(err, ledger.ErrSubscriptionCancelled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "subscription_cancelled",
			"message": "The subscription is cancelled",
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "Resource not found",
		})
	default:
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation_error",
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Something went wrong",
		})
	}
}

// parsePaging reads offset/limit query params with sane bounds.
func parsePaging(c *fiber.Ctx) (int, int) {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
