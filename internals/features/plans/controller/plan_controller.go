// file: internals/features/plans/controller/plan_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/features/plans/service"
	helper "klinikpay_backend/internals/helpers"
)

var validate = validator.New()

type PlanController struct {
	DB     *gorm.DB
	Engine *service.Engine
}

func NewPlanController(db *gorm.DB, engine *service.Engine) *PlanController {
	return &PlanController{DB: db, Engine: engine}
}

/* =========================================================
   SHARED
========================================================= */

// actorID reads the authenticated staff id forwarded by the gateway.
// Lifecycle operations take the caller identity explicitly; there is no
// ambient user state in the engine.
func actorID(c *fiber.Ctx) *uuid.UUID {
	raw := c.Get("X-Actor-Id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func httpStatusFor(kind service.ErrorKind) int {
	switch kind {
	case service.ErrorKindPlanNotFound,
		service.ErrorKindInstallmentNotFound,
		service.ErrorKindPaymentNotFound:
		return fiber.StatusNotFound
	case service.ErrorKindInstallmentAlreadySettled,
		service.ErrorKindInstallmentCancelled,
		service.ErrorKindNoModifiableInstallments,
		service.ErrorKindStoreConflict:
		return fiber.StatusConflict
	case service.ErrorKindInvalidCadence,
		service.ErrorKindInvalidDateRange,
		service.ErrorKindInvalidArgument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func opError(c *fiber.Ctx, err error) error {
	return helper.JsonError(c, httpStatusFor(service.KindOf(err)), err.Error())
}

func parseParamID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, helper.JsonError(c, fiber.StatusBadRequest, name+" is not a valid uuid")
	}
	return id, nil
}

/* =========================================================
   CREATE / READ
========================================================= */

// POST /api/a/payment-plans
func (ctrl *PlanController) Create(c *fiber.Ctx) error {
	var body dto.PaymentPlanCreateDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}
	if !model.ValidFrequency(body.PaymentPlanFrequency) {
		return helper.JsonError(c, fiber.StatusBadRequest, "unknown frequency: "+string(body.PaymentPlanFrequency))
	}

	plan, err := ctrl.Engine.CreatePlan(c.Context(), service.CreatePlanInput{
		ClinicID:               body.PaymentPlanClinicID,
		PatientID:              body.PaymentPlanPatientID,
		PaymentLinkID:          body.PaymentPlanPaymentLinkID,
		Title:                  body.PaymentPlanTitle,
		TotalAmountCents:       body.PaymentPlanTotalAmountCents,
		InstallmentAmountCents: body.PaymentPlanInstallmentAmountCents,
		TotalInstallments:      body.PaymentPlanTotalInstallments,
		Frequency:              body.PaymentPlanFrequency,
		StartDate:              body.PaymentPlanStartDate,
		ActorID:                actorID(c),
	})
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonCreated(c, "payment plan created", dto.ToPaymentPlanResponse(*plan))
}

// GET /api/a/payment-plans
func (ctrl *PlanController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)

	tx := ctrl.DB.Model(&model.PaymentPlan{})
	if v := c.Query("clinic_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "clinic_id is not a valid uuid")
		}
		tx = tx.Where("payment_plan_clinic_id = ?", id)
	}
	if v := c.Query("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "patient_id is not a valid uuid")
		}
		tx = tx.Where("payment_plan_patient_id = ?", id)
	}
	if v := c.Query("status"); v != "" {
		tx = tx.Where("payment_plan_status = ?", v)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	allowedSort := map[string]string{
		"created_at":    "payment_plan_created_at",
		"start_date":    "payment_plan_start_date",
		"next_due_date": "payment_plan_next_due_date",
		"status":        "payment_plan_status",
	}
	orderCol, ok := allowedSort[p.SortBy]
	if !ok {
		orderCol = allowedSort["created_at"]
	}
	order := orderCol + " DESC"
	if p.SortOrder == "asc" {
		order = orderCol + " ASC"
	}

	var plans []model.PaymentPlan
	if err := tx.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&plans).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]dto.PaymentPlanResponse, 0, len(plans))
	for _, m := range plans {
		out = append(out, dto.ToPaymentPlanResponse(m))
	}
	return helper.JsonList(c, "payment plans", out, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// GET /api/a/payment-plans/:id
func (ctrl *PlanController) Detail(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	snap, err := ctrl.Engine.Snapshot(c.Context(), planID)
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonOK(c, "payment plan detail", dto.PaymentPlanDetailResponse{
		Plan:         dto.ToPaymentPlanResponse(snap.Plan),
		Installments: dto.ToPlanInstallmentResponses(snap.Installments),
	})
}

// GET /api/a/payment-plans/:id/status
//
// Derived live from the installment set, not the cached column.
func (ctrl *PlanController) Status(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	status, err := ctrl.Engine.ResolveStatus(c.Context(), planID)
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonOK(c, "payment plan status", fiber.Map{
		"payment_plan_id":     planID,
		"payment_plan_status": status,
	})
}

// GET /api/a/payment-plans/:id/activities
func (ctrl *PlanController) Activities(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	p := helper.ParseFiber(c, "performed_at", "desc", helper.DefaultOpts)

	tx := ctrl.DB.Model(&model.PaymentActivity{}).Where("payment_activity_plan_id = ?", planID)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	order := "payment_activity_performed_at DESC"
	if p.SortOrder == "asc" {
		order = "payment_activity_performed_at ASC"
	}
	var rows []model.PaymentActivity
	if err := tx.Order(order).Limit(p.Limit()).Offset(p.Offset()).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]dto.PaymentActivityResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.ToPaymentActivityResponse(m))
	}
	return helper.JsonList(c, "payment plan activities", out, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

/* =========================================================
   LIFECYCLE
========================================================= */

// POST /api/a/payment-plans/:id/cancel
func (ctrl *PlanController) Cancel(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := ctrl.Engine.CancelPlan(c.Context(), planID, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "payment plan cancelled", res)
}

// POST /api/a/payment-plans/:id/pause
func (ctrl *PlanController) Pause(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := ctrl.Engine.PausePlan(c.Context(), planID, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "payment plan paused", res)
}

// POST /api/a/payment-plans/:id/resume
func (ctrl *PlanController) Resume(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	var body dto.PlanResumeDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := ctrl.Engine.ResumePlan(c.Context(), planID, body.ResumeDate, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "payment plan resumed", res)
}

// POST /api/a/payment-plans/:id/reschedule
func (ctrl *PlanController) Reschedule(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	var body dto.PlanRescheduleDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := ctrl.Engine.ReschedulePlan(c.Context(), planID, body.NewStartDate, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "payment plan rescheduled", res)
}

// POST /api/a/payment-plans/:id/sweep-overdue
//
// Normally hit by the scheduler, exposed for manual runs too.
func (ctrl *PlanController) SweepOverdue(c *fiber.Ctx) error {
	planID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := ctrl.Engine.SweepOverdue(c.Context(), planID)
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "overdue sweep done", res)
}

/* =========================================================
   INSTALLMENTS
========================================================= */

// PATCH /api/a/installments/:id/reschedule
func (ctrl *PlanController) RescheduleInstallment(c *fiber.Ctx) error {
	installmentID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	var body dto.InstallmentRescheduleDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := ctrl.Engine.RescheduleInstallment(c.Context(), installmentID, body.NewDueDate, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "installment rescheduled", res)
}

// POST /api/a/installments/:id/send
func (ctrl *PlanController) SendInstallment(c *fiber.Ctx) error {
	installmentID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := ctrl.Engine.MarkInstallmentSent(c.Context(), installmentID, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "payment request sent", res)
}

// POST /api/a/installments/:id/payments
func (ctrl *PlanController) RecordManualPayment(c *fiber.Ctx) error {
	installmentID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	res, err := ctrl.Engine.RecordManualPayment(c.Context(), installmentID, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonCreated(c, "manual payment recorded", res)
}

/* =========================================================
   REFUNDS
========================================================= */

// POST /api/a/payments/:id/refund
func (ctrl *PlanController) Refund(c *fiber.Ctx) error {
	paymentID, err := parseParamID(c, "id")
	if err != nil {
		return err
	}
	var body dto.PaymentRefundDTO
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&body); err != nil {
		return helper.ValidationError(c, err)
	}
	res, err := ctrl.Engine.RecordRefund(c.Context(), paymentID, body.RefundAmountCents, body.FullRefund, actorID(c))
	if err != nil {
		return opError(c, err)
	}
	return helper.JsonUpdated(c, "refund recorded", res)
}
