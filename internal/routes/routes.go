package routes

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/walletbook/walletbook/internal/config"
	"github.com/walletbook/walletbook/internal/ledger"
	"github.com/walletbook/walletbook/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Ledger *ledger.Store
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Ledger == nil {
		return errors.New("ledger store is required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	RegisterWalletRoutes(api, d)
	RegisterTransactionRoutes(api, d)
	RegisterStatisticsRoutes(api, d)

	return nil
}

// statusForError maps ledger error kinds onto HTTP statuses. Everything the
// ledger rejects is locally recoverable, so nothing maps to a 5xx.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ledger.ErrLastWallet):
		return fiber.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(err error) error {
	return fiber.NewError(statusForError(err), err.Error())
}

// parseDay accepts either a bare calendar date or a full RFC 3339 timestamp.
func parseDay(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
