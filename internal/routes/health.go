package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds a liveness style endpoint.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"store":     d.Cfg.StoreDriver,
			"wallets":   len(d.Ledger.Wallets()),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
