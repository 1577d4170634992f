package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pkarbowski/streambill/app/controllers"
	"github.com/pkarbowski/streambill/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Public: account creation and login.
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)

	// Everything below requires an API key.
	secured := v1.Group("", middleware.APIKeyAuthMiddleware())

	bill := secured.Group("/billing")
	bill.Get("/preview", controllers.HandleGetBillingPreview)
	bill.Post("/settle", controllers.HandlePostSettle)
	bill.Put("/day", controllers.HandlePutBillingDay)
	bill.Get("/cycles", controllers.HandleListBillingCycles)
	bill.Get("/cycles/:uuid", controllers.HandleGetBillingCycle)

	subs := secured.Group("/subscriptions")
	subs.Get("/", controllers.HandleListSubscriptions)
	subs.Post("/", controllers.HandleCreateSubscription)
	subs.Post("/:uuid/cancel", controllers.HandleCancelSubscription)
	subs.Post("/:uuid/reactivate", controllers.HandleReactivateSubscription)
	subs.Post("/:uuid/change-plan", controllers.HandleChangePlan)
	subs.Get("/:uuid/upgrade-quote", controllers.HandleUpgradeQuote)
	subs.Post("/:uuid/upgrade", controllers.HandleUpgradeNow)

	walletGroup := secured.Group("/wallet")
	walletGroup.Get("/", controllers.HandleGetWallet)
	walletGroup.Post("/topup", controllers.HandleWalletTopUp)
	walletGroup.Get("/transactions", controllers.HandleListWalletTransactions)

	secured.Get("/plans", controllers.HandleListPlans)

	admin := secured.Group("/admin", middleware.RequireAdminMiddleware())
	admin.Post("/plans", controllers.HandleAdminCreatePlan)
	admin.Put("/plans/:id", controllers.HandleAdminUpdatePlan)
	admin.Delete("/plans/:id", controllers.HandleAdminDeactivatePlan)
	admin.Post("/billing/run", controllers.HandleAdminBillingRun)
	admin.Get("/billing/stats", controllers.HandleAdminBillingStats)
	admin.Post("/users/:id/verify", controllers.HandleAdminVerifyUser)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
