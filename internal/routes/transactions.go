package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/ledger"
	"github.com/walletbook/walletbook/internal/stats"
)

type transactionResponse struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Name   string          `json:"name"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:     tx.ID,
		Type:   string(tx.Type),
		Amount: tx.Amount,
		Name:   tx.Name,
		Date:   tx.Date,
		Note:   tx.Note,
	}
}

func toTransactionResponses(txs []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

// RegisterTransactionRoutes wires entry recording, removal and transfers.
func RegisterTransactionRoutes(r fiber.Router, d Deps) {
	r.Post("/wallets/:walletId/transactions", func(c *fiber.Ctx) error {
		var req struct {
			Type   string          `json:"type"`
			Amount decimal.Decimal `json:"amount"`
			Name   string          `json:"name"`
			Date   string          `json:"date"`
			Note   string          `json:"note"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		input := ledger.AddTransactionInput{
			WalletID: c.Params("walletId"),
			Type:     ledger.TransactionType(req.Type),
			Amount:   req.Amount,
			Name:     req.Name,
			Note:     req.Note,
		}
		if req.Date != "" {
			date, err := parseDay(req.Date)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "invalid date: "+err.Error())
			}
			input.Date = date
		}
		tx, err := d.Ledger.AddTransaction(c.UserContext(), input)
		if err != nil {
			return fail(err)
		}
		return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
	})

	// Most recent first; an optional ?date= narrows to one calendar day.
	r.Get("/wallets/:walletId/transactions", func(c *fiber.Ctx) error {
		w, ok := d.Ledger.Wallet(c.Params("walletId"))
		if !ok {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		var txs []ledger.Transaction
		if raw := c.Query("date"); raw != "" {
			day, err := parseDay(raw)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "invalid date: "+err.Error())
			}
			txs = stats.TransactionsOnDate(w, day)
		} else {
			txs = stats.SortedTransactions(w)
		}
		return c.JSON(fiber.Map{
			"wallet_id":    w.ID,
			"transactions": toTransactionResponses(txs),
		})
	})

	// Deletion confirmation is the client's job; this endpoint executes.
	r.Delete("/wallets/:walletId/transactions/:transactionId", func(c *fiber.Ctx) error {
		walletID := c.Params("walletId")
		if err := d.Ledger.DeleteTransaction(c.UserContext(), walletID, c.Params("transactionId")); err != nil {
			return fail(err)
		}
		w, _ := d.Ledger.Wallet(walletID)
		return c.JSON(fiber.Map{"deleted": true, "balance": w.Balance})
	})

	r.Post("/wallets/:walletId/adjustments", func(c *fiber.Ctx) error {
		var req struct {
			Amount decimal.Decimal `json:"amount"`
			Note   string          `json:"note"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		tx, err := d.Ledger.AdjustBalance(c.UserContext(), c.Params("walletId"), req.Amount, req.Note)
		if err != nil {
			return fail(err)
		}
		return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
	})

	r.Post("/transfers", func(c *fiber.Ctx) error {
		var req struct {
			FromWalletID string          `json:"from_wallet_id"`
			ToWalletID   string          `json:"to_wallet_id"`
			Amount       decimal.Decimal `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		res, err := d.Ledger.Transfer(c.UserContext(), req.FromWalletID, req.ToWalletID, req.Amount)
		if err != nil {
			return fail(err)
		}
		d.Logger.Info("transfer completed",
			"from_wallet_id", req.FromWalletID,
			"to_wallet_id", req.ToWalletID,
			"amount", req.Amount.String(),
		)
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"out":          toTransactionResponse(res.Out),
			"in":           toTransactionResponse(res.In),
			"from_balance": res.FromBalance,
			"to_balance":   res.ToBalance,
		})
	})
}
