package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pkarbowski/streambill/internal/pkg/database"
	"github.com/pkarbowski/streambill/internal/pkg/usercontext"
	"github.com/pkarbowski/streambill/internal/pkg/wallet"
)

type topUpRequest struct {
	AmountPLN string `json:"amount_pln"`
	Reference string `json:"reference"`
}

// HandleGetWallet returns the user's wallet, creating an empty one on first
// access.
func HandleGetWallet(c *fiber.Ctx) error {
	w, err := wallet.NewService(database.GetDB()).Get(usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(w)
}

// HandleWalletTopUp adds pre-funded credit to the wallet.
func HandleWalletTopUp(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Invalid request body"})
	}
	amount, err := decimal.NewFromString(req.AmountPLN)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "amount_pln must be a decimal string"})
	}

	w, err := wallet.NewService(database.GetDB()).
		TopUp(usercontext.GetUserID(c), amount, req.Reference)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(w)
}

// HandleListWalletTransactions returns the wallet audit trail, newest first.
func HandleListWalletTransactions(c *fiber.Ctx) error {
	offset, limit := parsePaging(c)

	txs, err := wallet.NewService(database.GetDB()).
		Transactions(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": txs})
}
