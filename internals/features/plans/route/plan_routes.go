// file: internals/features/plans/route/plan_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	planCtl "klinikpay_backend/internals/features/plans/controller"
	"klinikpay_backend/internals/features/plans/service"
)

// PlanAdminRoutes mounts the clinic-staff surface. Usage:
// route.PlanAdminRoutes(admin, db, engine)
func PlanAdminRoutes(r fiber.Router, db *gorm.DB, engine *service.Engine) {
	ctl := planCtl.NewPlanController(db, engine)

	plans := r.Group("/payment-plans")
	plans.Post("/", ctl.Create)                  // POST   /payment-plans
	plans.Get("/", ctl.List)                     // GET    /payment-plans
	plans.Get("/:id", ctl.Detail)                // GET    /payment-plans/:id
	plans.Get("/:id/status", ctl.Status)         // GET    /payment-plans/:id/status
	plans.Get("/:id/activities", ctl.Activities) // GET    /payment-plans/:id/activities

	plans.Post("/:id/cancel", ctl.Cancel)              // POST /payment-plans/:id/cancel
	plans.Post("/:id/pause", ctl.Pause)                // POST /payment-plans/:id/pause
	plans.Post("/:id/resume", ctl.Resume)              // POST /payment-plans/:id/resume
	plans.Post("/:id/reschedule", ctl.Reschedule)      // POST /payment-plans/:id/reschedule
	plans.Post("/:id/sweep-overdue", ctl.SweepOverdue) // POST /payment-plans/:id/sweep-overdue

	installments := r.Group("/installments")
	installments.Post("/:id/reschedule", ctl.RescheduleInstallment)   // POST /installments/:id/reschedule
	installments.Post("/:id/mark-sent", ctl.SendInstallment)          // POST /installments/:id/mark-sent
	installments.Post("/:id/record-payment", ctl.RecordManualPayment) // POST /installments/:id/record-payment

	payments := r.Group("/payments")
	payments.Post("/:id/refund", ctl.Refund) // POST /payments/:id/refund
}

// PaymentCallbackRoutes mounts the public processor intake.
func PaymentCallbackRoutes(r fiber.Router, db *gorm.DB, engine *service.Engine) {
	ctl := planCtl.NewWebhookController(db, engine)
	r.Post("/payment-callback", ctl.PaymentCallback) // POST /payment-callback
}
