package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/database"
	"github.com/pkarbowski/streambill/internal/pkg/metrics/counter"
	"github.com/pkarbowski/streambill/internal/pkg/report"
	"github.com/pkarbowski/streambill/internal/pkg/scheduler"
)

// HandleAdminBillingRun triggers the same sweep the daily scheduler runs:
// lifecycle transitions, then settlement for every user whose billing day
// is today. Idempotent thanks to the per-period settlement fence.
func HandleAdminBillingRun(c *fiber.Ctx) error {
	mgr := scheduler.NewManager(database.GetDB(), report.NewSender(report.SMTPMailer{}))
	mgr.RunOnce(billingNow())
	return c.JSON(fiber.Map{"status": "completed"})
}

// HandleAdminBillingStats returns the Redis activity counters: settlements
// per period and lifecycle sweep totals.
func HandleAdminBillingStats(c *fiber.Ctx) error {
	stats, err := counter.Read()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// HandleAdminVerifyUser marks a user's email address as verified, making
// the account eligible for scheduled billing runs and report mails.
func HandleAdminVerifyUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid user id"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(uint(id))
	if err != nil {
		return respondError(c, err)
	}

	now := billingNow()
	user.EmailVerifiedAt = &now
	if err := repo.Update(user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
