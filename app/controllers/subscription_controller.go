package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pkarbowski/streambill/internal/pkg/database"
	"github.com/pkarbowski/streambill/internal/pkg/ledger"
	"github.com/pkarbowski/streambill/internal/pkg/usercontext"
)

type createSubscriptionRequest struct {
	PlanID        uint    `json:"plan_id"`
	RenewalDay    int     `json:"renewal_day"`
	PaymentOption string  `json:"payment_option"`
	PriceOverride *string `json:"price_override_pln"`
}

type changePlanRequest struct {
	PlanID uint `json:"plan_id"`
}

// HandleListSubscriptions returns the user's subscriptions after running
// the scoped lifecycle sweep, so due transitions are already applied.
func HandleListSubscriptions(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	subs, err := ledger.NewServiceFromDB(database.GetDB()).ListForUser(userID, billingNow())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// HandleCreateSubscription adds a provider subscription. payment_option
// "now" debits the wallet for the first period immediately; "at_billing"
// defers to the next consolidated cycle.
func HandleCreateSubscription(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	if req.PaymentOption == "" {
		req.PaymentOption = ledger.PaymentAtBilling
	}
	if req.PaymentOption != ledger.PaymentNow && req.PaymentOption != ledger.PaymentAtBilling {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "payment_option must be 'now' or 'at_billing'"})
	}

	in := ledger.CreateInput{
		UserID:        usercontext.GetUserID(c),
		PlanID:        req.PlanID,
		RenewalDay:    req.RenewalDay,
		PaymentOption: req.PaymentOption,
	}
	if req.PriceOverride != nil {
		override, err := decimal.NewFromString(*req.PriceOverride)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "price_override_pln must be a decimal string"})
		}
		in.PriceOverride = &override
	}

	sub, err := ledger.NewServiceFromDB(database.GetDB()).Create(in, billingNow())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// HandleCancelSubscription requests cancellation; access runs until the day
// before the next renewal.
func HandleCancelSubscription(c *fiber.Ctx) error {
	sub, err := ledger.NewServiceFromDB(database.GetDB()).
		Cancel(usercontext.GetUserID(c), c.Params("uuid"), billingNow())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// HandleReactivateSubscription unconditionally returns a subscription to
// active.
func HandleReactivateSubscription(c *fiber.Ctx) error {
	sub, err := ledger.NewServiceFromDB(database.GetDB()).
		Reactivate(usercontext.GetUserID(c), c.Params("uuid"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// HandleChangePlan requests a plan switch effective at the next renewal.
// Any outstanding upgrade surcharge is superseded by the new request.
func HandleChangePlan(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	sub, err := ledger.NewServiceFromDB(database.GetDB()).
		ChangePlan(usercontext.GetUserID(c), c.Params("uuid"), req.PlanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// HandleUpgradeQuote prices an immediate upgrade without performing it.
func HandleUpgradeQuote(c *fiber.Ctx) error {
	planID := uint(c.QueryInt("plan_id", 0))
	if planID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "plan_id query parameter is required"})
	}

	quote, err := ledger.NewServiceFromDB(database.GetDB()).
		UpgradeQuote(usercontext.GetUserID(c), c.Params("uuid"), planID, billingNow())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// HandleUpgradeNow switches to a costlier plan immediately; the prorated
// difference is collected at the next settlement.
func HandleUpgradeNow(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	sub, quote, err := ledger.NewServiceFromDB(database.GetDB()).
		UpgradeNow(usercontext.GetUserID(c), c.Params("uuid"), req.PlanID, billingNow())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub, "quote": quote})
}
