package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/ledger"
	"github.com/walletbook/walletbook/internal/stats"
)

type walletResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:               w.ID,
		Name:             w.Name,
		Currency:         w.Currency,
		Balance:          w.Balance,
		TransactionCount: len(w.Transactions),
		CreatedAt:        w.CreatedAt,
	}
}

// RegisterWalletRoutes wires wallet management endpoints.
func RegisterWalletRoutes(r fiber.Router, d Deps) {
	r.Get("/wallets", func(c *fiber.Ctx) error {
		wallets := d.Ledger.Wallets()
		out := make([]walletResponse, 0, len(wallets))
		for _, w := range wallets {
			out = append(out, toWalletResponse(w))
		}
		return c.JSON(fiber.Map{
			"wallets":          out,
			"active_wallet_id": d.Ledger.ActiveWalletID(),
			"total_balance":    stats.TotalBalance(wallets),
		})
	})

	r.Post("/wallets", func(c *fiber.Ctx) error {
		var req struct {
			Name           string          `json:"name"`
			InitialBalance decimal.Decimal `json:"initial_balance"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			return fiber.NewError(http.StatusBadRequest, "wallet name is required")
		}
		w := d.Ledger.CreateWallet(c.UserContext(), req.Name, req.InitialBalance)
		d.Logger.Info("wallet created", "wallet_id", w.ID, "name", w.Name)
		return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
	})

	r.Get("/wallets/:walletId", func(c *fiber.Ctx) error {
		w, ok := d.Ledger.Wallet(c.Params("walletId"))
		if !ok {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return c.JSON(toWalletResponse(w))
	})

	r.Patch("/wallets/:walletId", func(c *fiber.Ctx) error {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		walletID := c.Params("walletId")
		if err := d.Ledger.RenameWallet(c.UserContext(), walletID, req.Name); err != nil {
			return fail(err)
		}
		w, _ := d.Ledger.Wallet(walletID)
		return c.JSON(toWalletResponse(w))
	})

	// Deletion confirmation is the client's job; this endpoint executes.
	r.Delete("/wallets/:walletId", func(c *fiber.Ctx) error {
		if err := d.Ledger.DeleteWallet(c.UserContext(), c.Params("walletId")); err != nil {
			return fail(err)
		}
		return c.JSON(fiber.Map{
			"deleted":          true,
			"active_wallet_id": d.Ledger.ActiveWalletID(),
		})
	})

	r.Post("/wallets/:walletId/activate", func(c *fiber.Ctx) error {
		walletID := c.Params("walletId")
		if _, ok := d.Ledger.Wallet(walletID); !ok {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		d.Ledger.SetActiveWallet(c.UserContext(), walletID)
		return c.JSON(fiber.Map{"active_wallet_id": d.Ledger.ActiveWalletID()})
	})
}
