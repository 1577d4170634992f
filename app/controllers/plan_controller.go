package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pkarbowski/streambill/app/models"
	"github.com/pkarbowski/streambill/app/repository"
	"github.com/pkarbowski/streambill/internal/pkg/cache"
)

type planRequest struct {
	ProviderCode string `json:"provider_code"`
	Name         string `json:"name"`
	PricePLN     string `json:"price_pln"`
	Screens      int    `json:"screens"`
	UHD          bool   `json:"uhd"`
	Ads          bool   `json:"ads"`
	BillingCycle string `json:"billing_cycle"`
}

// HandleListPlans returns the active plan catalog, served from the redis
// cache when warm.
func HandleListPlans(c *fiber.Ctx) error {
	if plans, ok := cache.GetActivePlans(); ok {
		return c.JSON(fiber.Map{"plans": plans})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.ListActive()
	if err != nil {
		return respondError(c, err)
	}
	cache.SetActivePlans(plans)
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleAdminCreatePlan adds a plan to the catalog.
func HandleAdminCreatePlan(c *fiber.Ctx) error {
	plan, err := planFromRequest(c, &models.Plan{Screens: 1, BillingCycle: models.PlanCycleMonthly, Active: true})
	if err != nil {
		return err // response already written
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	if err := repo.Create(plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "plan_exists", "message": "A plan with this provider and name already exists"})
		}
		return respondError(c, err)
	}
	cache.InvalidateActivePlans()
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleAdminUpdatePlan performs an administrative plan update (price etc.).
func HandleAdminUpdatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid plan id"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	existing, err := repo.GetByID(uint(id))
	if err != nil {
		return respondError(c, err)
	}

	plan, err := planFromRequest(c, existing)
	if err != nil {
		return err
	}
	if err := repo.Update(plan); err != nil {
		return respondError(c, err)
	}
	cache.InvalidateActivePlans()
	return c.JSON(plan)
}

// HandleAdminDeactivatePlan retires a plan from the catalog. Subscriptions
// already on it keep billing at its price.
func HandleAdminDeactivatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid plan id"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	if err := repo.Deactivate(uint(id)); err != nil {
		return respondError(c, err)
	}
	cache.InvalidateActivePlans()
	return c.SendStatus(fiber.StatusNoContent)
}

func planFromRequest(c *fiber.Ctx, plan *models.Plan) (*models.Plan, error) {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}

	if req.ProviderCode != "" {
		plan.ProviderCode = req.ProviderCode
	}
	if req.Name != "" {
		plan.Name = req.Name
	}
	if req.PricePLN != "" {
		price, err := decimal.NewFromString(req.PricePLN)
		if err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "price_pln must be a decimal string"})
		}
		plan.PricePLN = price.Round(2)
	}
	if req.Screens > 0 {
		plan.Screens = req.Screens
	}
	if req.BillingCycle != "" {
		plan.BillingCycle = req.BillingCycle
	}
	plan.UHD = req.UHD
	plan.Ads = req.Ads

	if err := plan.Validate(); err != nil {
		return nil, respondError(c, err)
	}
	return plan, nil
}
