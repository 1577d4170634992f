package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/billing"
	"github.com/pkarbowski/streambill/internal/pkg/database"
	"github.com/pkarbowski/streambill/internal/pkg/ledger"
	"github.com/pkarbowski/streambill/internal/pkg/metrics/counter"
	"github.com/pkarbowski/streambill/internal/pkg/usercontext"
)

type setBillingDayRequest struct {
	Day int `json:"day"`
}

// HandleGetBillingPreview returns the priced dry run of the user's current
// billing window. Safe to call repeatedly; nothing is written.
func HandleGetBillingPreview(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	now := billingNow()

	// Apply due lifecycle transitions first so the preview prices the
	// post-sweep state of the ledger.
	if _, err := ledger.NewServiceFromDB(database.GetDB()).SweepUser(userID, now); err != nil {
		return respondError(c, err)
	}

	preview, err := billing.NewServiceFromDB(database.GetDB()).Preview(userID, now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

// HandlePostSettle commits the current preview as this period's paid
// billing cycle, exactly once per (user, period).
func HandlePostSettle(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	now := billingNow()

	if _, err := ledger.NewServiceFromDB(database.GetDB()).SweepUser(userID, now); err != nil {
		return respondError(c, err)
	}

	cycle, err := billing.NewServiceFromDB(database.GetDB()).Settle(userID, now)
	if err != nil {
		log.Printf("settlement failed for user %d: %v", userID, err)
		return respondError(c, err)
	}

	if err := counter.AddSettledCycle(cycle.Period); err != nil {
		log.Printf("settlement counter update failed: %v", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cycle)
}

// HandlePutBillingDay sets the day-of-month on which all of the user's
// subscriptions are consolidated into one charge.
func HandlePutBillingDay(c *fiber.Ctx) error {
	var req setBillingDayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	if req.Day < 1 || req.Day > 28 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "day must be between 1 and 28"})
	}

	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.SetBillingDay(userID, req.Day); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"billing_day": req.Day})
}

// HandleListBillingCycles returns the user's settled cycles, newest first.
func HandleListBillingCycles(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := parsePaging(c)

	repo := repository.GetGlobalFactory().GetBillingCycleRepository()
	cycles, err := repo.ListByUser(userID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cycles": cycles})
}

// HandleGetBillingCycle returns a single settled cycle with its items.
func HandleGetBillingCycle(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	repo := repository.GetGlobalFactory().GetBillingCycleRepository()
	cycle, err := repo.GetByUUIDForUser(c.Params("uuid"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cycle)
}
