// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	planRoute "klinikpay_backend/internals/features/plans/route"
	"klinikpay_backend/internals/features/plans/service"
	middlewares "klinikpay_backend/internals/middlewares"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *service.Engine) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== ADMIN (clinic staff) =====================
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a")
	planRoute.PlanAdminRoutes(admin, db, engine)

	// ===================== PUBLIC (processor intake) =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/u", middlewares.CallbackRateLimiter())
	planRoute.PaymentCallbackRoutes(public, db, engine)
}
