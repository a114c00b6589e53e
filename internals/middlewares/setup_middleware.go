package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"klinikpay_backend/internals/middlewares/logger"
)

// SetupMiddlewares wires the base middleware chain in order: recovery
// first so everything below it is covered.
func SetupMiddlewares(app *fiber.App, db *gorm.DB) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())
	app.Use(logger.LoggerMiddleware())
	app.Use(DBMiddleware(db))
}
