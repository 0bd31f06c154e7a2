package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletbook/walletbook/internal/stats"
)

// RegisterStatisticsRoutes wires the read-only aggregation endpoints.
func RegisterStatisticsRoutes(r fiber.Router, d Deps) {
	r.Get("/wallets/:walletId/statistics/daily", func(c *fiber.Ctx) error {
		w, ok := d.Ledger.Wallet(c.Params("walletId"))
		if !ok {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		day := time.Now().UTC()
		if raw := c.Query("date"); raw != "" {
			parsed, err := parseDay(raw)
			if err != nil {
				return fiber.NewError(http.StatusBadRequest, "invalid date: "+err.Error())
			}
			day = parsed
		}
		summary := stats.DailyStatistics(w, day)
		return c.JSON(fiber.Map{
			"wallet_id": w.ID,
			"date":      stats.DayKey(day),
			"income":    summary.Income,
			"expense":   summary.Expense,
			"balance":   summary.Balance,
		})
	})

	r.Get("/wallets/:walletId/statistics/chart", func(c *fiber.Ctx) error {
		w, ok := d.Ledger.Wallet(c.Params("walletId"))
		if !ok {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		totals := stats.ChartTotalsFor(w)
		return c.JSON(fiber.Map{
			"wallet_id": w.ID,
			"income":    totals.Income,
			"expense":   totals.Expense,
		})
	})

	r.Get("/statistics/total", func(c *fiber.Ctx) error {
		wallets := d.Ledger.Wallets()
		return c.JSON(fiber.Map{
			"total_balance": stats.TotalBalance(wallets),
			"wallets":       len(wallets),
		})
	})
}
