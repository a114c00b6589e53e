// file: internals/features/plans/dto/plan_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

////////////////////////////////////////////////////////////////////////////////
// PAYMENT PLANS — DTO
////////////////////////////////////////////////////////////////////////////////

type PaymentPlanCreateDTO struct {
	PaymentPlanClinicID               uuid.UUID           `json:"payment_plan_clinic_id" validate:"required"`
	PaymentPlanPatientID              uuid.UUID           `json:"payment_plan_patient_id" validate:"required"`
	PaymentPlanPaymentLinkID          *uuid.UUID          `json:"payment_plan_payment_link_id,omitempty"`
	PaymentPlanTitle                  string              `json:"payment_plan_title" validate:"required,max=160"`
	PaymentPlanTotalAmountCents       int                 `json:"payment_plan_total_amount_cents" validate:"required,min=1"`
	PaymentPlanInstallmentAmountCents int                 `json:"payment_plan_installment_amount_cents" validate:"required,min=1"`
	PaymentPlanTotalInstallments      int                 `json:"payment_plan_total_installments" validate:"required,min=1"`
	PaymentPlanFrequency              model.PlanFrequency `json:"payment_plan_frequency" validate:"required"`
	PaymentPlanStartDate              dateonly.Date       `json:"payment_plan_start_date" validate:"required"`
}

type PaymentPlanResponse struct {
	PaymentPlanID            uuid.UUID  `json:"payment_plan_id"`
	PaymentPlanClinicID      uuid.UUID  `json:"payment_plan_clinic_id"`
	PaymentPlanPatientID     uuid.UUID  `json:"payment_plan_patient_id"`
	PaymentPlanPaymentLinkID *uuid.UUID `json:"payment_plan_payment_link_id,omitempty"`

	PaymentPlanTitle string `json:"payment_plan_title"`

	PaymentPlanTotalAmountCents       int `json:"payment_plan_total_amount_cents"`
	PaymentPlanInstallmentAmountCents int `json:"payment_plan_installment_amount_cents"`

	PaymentPlanTotalInstallments int `json:"payment_plan_total_installments"`
	PaymentPlanPaidInstallments  int `json:"payment_plan_paid_installments"`
	PaymentPlanProgressPercent   int `json:"payment_plan_progress_percent"`

	PaymentPlanFrequency   model.PlanFrequency `json:"payment_plan_frequency"`
	PaymentPlanStartDate   dateonly.Date       `json:"payment_plan_start_date"`
	PaymentPlanNextDueDate *dateonly.Date      `json:"payment_plan_next_due_date,omitempty"`

	PaymentPlanStatus             model.PlanStatus `json:"payment_plan_status"`
	PaymentPlanHasOverduePayments bool             `json:"payment_plan_has_overdue_payments"`

	PaymentPlanCreatedBy *uuid.UUID `json:"payment_plan_created_by,omitempty"`
	PaymentPlanCreatedAt time.Time  `json:"payment_plan_created_at"`
	PaymentPlanUpdatedAt time.Time  `json:"payment_plan_updated_at"`
}

type PlanInstallmentResponse struct {
	PaymentScheduleID     uuid.UUID `json:"payment_schedule_id"`
	PaymentSchedulePlanID uuid.UUID `json:"payment_schedule_plan_id"`

	PaymentScheduleAmountCents int           `json:"payment_schedule_amount_cents"`
	PaymentScheduleDueDate     dateonly.Date `json:"payment_schedule_due_date"`

	PaymentScheduleNumber        int `json:"payment_schedule_number"`
	PaymentScheduleTotalPayments int `json:"payment_schedule_total_payments"`

	PaymentScheduleStatus model.InstallmentStatus `json:"payment_schedule_status"`

	PaymentSchedulePaymentRequestID *uuid.UUID `json:"payment_schedule_payment_request_id,omitempty"`
	PaymentSchedulePaymentID        *uuid.UUID `json:"payment_schedule_payment_id,omitempty"`
}

// Detail = plan + its full schedule (dashboard detail view)
type PaymentPlanDetailResponse struct {
	Plan         PaymentPlanResponse       `json:"plan"`
	Installments []PlanInstallmentResponse `json:"installments"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE — request DTOs
////////////////////////////////////////////////////////////////////////////////

type PlanResumeDTO struct {
	ResumeDate dateonly.Date `json:"resume_date" validate:"required"`
}

type PlanRescheduleDTO struct {
	NewStartDate dateonly.Date `json:"new_start_date" validate:"required"`
}

type InstallmentRescheduleDTO struct {
	NewDueDate dateonly.Date `json:"new_due_date" validate:"required"`
}

type PaymentRefundDTO struct {
	RefundAmountCents int  `json:"refund_amount_cents" validate:"required,min=1"`
	FullRefund        bool `json:"full_refund"`
}

// Gateway callback intake. Only the data contract is in scope: the shape
// mirrors what the processor posts, the engine consumes the mapped result.
type GatewayCallbackDTO struct {
	PaymentRequestID  uuid.UUID `json:"payment_request_id" validate:"required"`
	TransactionStatus string    `json:"transaction_status" validate:"required"`
	FraudStatus       string    `json:"fraud_status"`
	ExternalRef       string    `json:"external_ref"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// ACTIVITY — response DTO
////////////////////////////////////////////////////////////////////////////////

type PaymentActivityResponse struct {
	PaymentActivityID                uuid.UUID            `json:"payment_activity_id"`
	PaymentActivityPlanID            uuid.UUID            `json:"payment_activity_plan_id"`
	PaymentActivityActionType        model.ActivityAction `json:"payment_activity_action_type"`
	PaymentActivityPerformedByUserID *uuid.UUID           `json:"payment_activity_performed_by_user_id,omitempty"`
	PaymentActivityPerformedAt       time.Time            `json:"payment_activity_performed_at"`
	PaymentActivityDetails           any                  `json:"payment_activity_details,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model -> Response
////////////////////////////////////////////////////////////////////////////////

func ToPaymentPlanResponse(m model.PaymentPlan) PaymentPlanResponse {
	return PaymentPlanResponse{
		PaymentPlanID:                     m.PaymentPlanID,
		PaymentPlanClinicID:               m.PaymentPlanClinicID,
		PaymentPlanPatientID:              m.PaymentPlanPatientID,
		PaymentPlanPaymentLinkID:          m.PaymentPlanPaymentLinkID,
		PaymentPlanTitle:                  m.PaymentPlanTitle,
		PaymentPlanTotalAmountCents:       m.PaymentPlanTotalAmountCents,
		PaymentPlanInstallmentAmountCents: m.PaymentPlanInstallmentAmountCents,
		PaymentPlanTotalInstallments:      m.PaymentPlanTotalInstallments,
		PaymentPlanPaidInstallments:       m.PaymentPlanPaidInstallments,
		PaymentPlanProgressPercent:        m.PaymentPlanProgressPercent,
		PaymentPlanFrequency:              m.PaymentPlanFrequency,
		PaymentPlanStartDate:              m.PaymentPlanStartDate,
		PaymentPlanNextDueDate:            m.PaymentPlanNextDueDate,
		PaymentPlanStatus:                 m.PaymentPlanStatus,
		PaymentPlanHasOverduePayments:     m.PaymentPlanHasOverduePayments,
		PaymentPlanCreatedBy:              m.PaymentPlanCreatedBy,
		PaymentPlanCreatedAt:              m.PaymentPlanCreatedAt,
		PaymentPlanUpdatedAt:              m.PaymentPlanUpdatedAt,
	}
}

func ToPlanInstallmentResponse(m model.PlanInstallment) PlanInstallmentResponse {
	return PlanInstallmentResponse{
		PaymentScheduleID:               m.PaymentScheduleID,
		PaymentSchedulePlanID:           m.PaymentSchedulePlanID,
		PaymentScheduleAmountCents:      m.PaymentScheduleAmountCents,
		PaymentScheduleDueDate:          m.PaymentScheduleDueDate,
		PaymentScheduleNumber:           m.PaymentScheduleNumber,
		PaymentScheduleTotalPayments:    m.PaymentScheduleTotalPayments,
		PaymentScheduleStatus:           m.PaymentScheduleStatus,
		PaymentSchedulePaymentRequestID: m.PaymentSchedulePaymentRequestID,
		PaymentSchedulePaymentID:        m.PaymentSchedulePaymentID,
	}
}

func ToPlanInstallmentResponses(ms []model.PlanInstallment) []PlanInstallmentResponse {
	out := make([]PlanInstallmentResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToPlanInstallmentResponse(m))
	}
	return out
}

// ToPaymentActivityResponse decodes the typed detail payload; rows with an
// undecodable payload still come back, with details omitted.
func ToPaymentActivityResponse(m model.PaymentActivity) PaymentActivityResponse {
	resp := PaymentActivityResponse{
		PaymentActivityID:                m.PaymentActivityID,
		PaymentActivityPlanID:            m.PaymentActivityPlanID,
		PaymentActivityActionType:        m.PaymentActivityActionType,
		PaymentActivityPerformedByUserID: m.PaymentActivityPerformedByUserID,
		PaymentActivityPerformedAt:       m.PaymentActivityPerformedAt,
	}
	if details, err := DecodeActivityDetails(m.PaymentActivityActionType, m.PaymentActivityDetails); err == nil {
		resp.PaymentActivityDetails = details
	}
	return resp
}
