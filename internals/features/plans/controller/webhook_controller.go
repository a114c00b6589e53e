// file: internals/features/plans/controller/webhook_controller.go
package controller

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/service"
	helper "klinikpay_backend/internals/helpers"
)

/* =========================================================
   PAYMENT GATEWAY CALLBACK
   Public intake for asynchronous processor notifications. The callback is
   mapped to success/pending/failed; only success reaches the engine.
========================================================= */

type WebhookController struct {
	DB     *gorm.DB
	Engine *service.Engine
}

func NewWebhookController(db *gorm.DB, engine *service.Engine) *WebhookController {
	return &WebhookController{DB: db, Engine: engine}
}

type GatewayResult string

const (
	GatewayResultSuccess GatewayResult = "success"
	GatewayResultPending GatewayResult = "pending"
	GatewayResultFailed  GatewayResult = "failed"
)

// MapGatewayStatus folds the processor's (transaction_status, fraud_status)
// pair into one result. Unknown statuses map to failed so a retried
// callback with a corrected status can still land.
func MapGatewayStatus(transactionStatus, fraudStatus string) GatewayResult {
	ts := strings.ToLower(strings.TrimSpace(transactionStatus))
	fs := strings.ToLower(strings.TrimSpace(fraudStatus))

	switch ts {
	case "capture":
		if fs == "challenge" {
			return GatewayResultPending
		}
		return GatewayResultSuccess
	case "settlement":
		return GatewayResultSuccess
	case "pending":
		return GatewayResultPending
	case "deny", "cancel", "expire", "failure":
		return GatewayResultFailed
	default:
		return GatewayResultFailed
	}
}

// POST /api/u/payment-callback
//
// Always answers 200 on handled callbacks so the processor stops retrying;
// the interesting outcomes live in the engine's own state.
func (ctrl *WebhookController) PaymentCallback(c *fiber.Ctx) error {
	var body dto.GatewayCallbackDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}

	result := MapGatewayStatus(body.TransactionStatus, body.FraudStatus)
	if result != GatewayResultSuccess {
		log.Printf("[INFO] payment callback ignored request=%s status=%s result=%s",
			body.PaymentRequestID, body.TransactionStatus, result)
		return helper.JsonOK(c, "callback received", fiber.Map{"result": result})
	}

	paidAt := time.Now()
	if body.PaidAt != nil {
		paidAt = *body.PaidAt
	}
	res, err := ctrl.Engine.ReconcilePaymentSuccess(c.Context(), body.PaymentRequestID, body.ExternalRef, paidAt)
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonOK(c, "payment reconciled", res)
}
