// file: internals/features/plans/model/payment_plan_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   ENUMS — plan status & billing frequency
   Aligned with the Postgres ENUMs payment_plan_status,
   payment_plan_frequency.
========================================================= */

type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusOverdue   PlanStatus = "overdue"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

type PlanFrequency string

const (
	FrequencyDaily     PlanFrequency = "daily"
	FrequencyWeekly    PlanFrequency = "weekly"
	FrequencyBiweekly  PlanFrequency = "biweekly"
	FrequencyMonthly   PlanFrequency = "monthly"
	FrequencyQuarterly PlanFrequency = "quarterly"
	FrequencyYearly    PlanFrequency = "yearly"
)

// ValidFrequency reports whether f is one of the supported cadences.
func ValidFrequency(f PlanFrequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

/* =========================================================
   MODEL — payment_plans
========================================================= */

type PaymentPlan struct {
	// PK
	PaymentPlanID uuid.UUID `gorm:"column:payment_plan_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_plan_id"`

	// Tenancy / ownership
	PaymentPlanClinicID  uuid.UUID `gorm:"column:payment_plan_clinic_id;type:uuid;not null;index:ix_payment_plan_clinic" json:"payment_plan_clinic_id"`
	PaymentPlanPatientID uuid.UUID `gorm:"column:payment_plan_patient_id;type:uuid;not null;index:ix_payment_plan_patient" json:"payment_plan_patient_id"`

	// FK → payment_links (optional; the link the plan was created from)
	PaymentPlanPaymentLinkID *uuid.UUID `gorm:"column:payment_plan_payment_link_id;type:uuid;index" json:"payment_plan_payment_link_id,omitempty"`

	PaymentPlanTitle string `gorm:"column:payment_plan_title;type:varchar(160);not null" json:"payment_plan_title"`

	// Amounts (minor units)
	PaymentPlanTotalAmountCents       int `gorm:"column:payment_plan_total_amount_cents;not null;check:payment_plan_total_amount_cents>=0" json:"payment_plan_total_amount_cents"`
	PaymentPlanInstallmentAmountCents int `gorm:"column:payment_plan_installment_amount_cents;not null;check:payment_plan_installment_amount_cents>=0" json:"payment_plan_installment_amount_cents"`

	// Progress (paid/progress are derived caches, recomputed by every
	// lifecycle operation)
	PaymentPlanTotalInstallments int `gorm:"column:payment_plan_total_installments;not null;check:payment_plan_total_installments>0" json:"payment_plan_total_installments"`
	PaymentPlanPaidInstallments  int `gorm:"column:payment_plan_paid_installments;not null;default:0" json:"payment_plan_paid_installments"`
	PaymentPlanProgressPercent   int `gorm:"column:payment_plan_progress_percent;not null;default:0" json:"payment_plan_progress_percent"`

	// Cadence & dates
	PaymentPlanFrequency   PlanFrequency  `gorm:"column:payment_plan_frequency;type:payment_plan_frequency;not null" json:"payment_plan_frequency"`
	PaymentPlanStartDate   dateonly.Date  `gorm:"column:payment_plan_start_date;type:date;not null" json:"payment_plan_start_date"`
	PaymentPlanNextDueDate *dateonly.Date `gorm:"column:payment_plan_next_due_date;type:date" json:"payment_plan_next_due_date,omitempty"`

	// Status caches
	PaymentPlanStatus             PlanStatus `gorm:"column:payment_plan_status;type:payment_plan_status;not null;default:'pending';index:ix_payment_plan_status" json:"payment_plan_status"`
	PaymentPlanHasOverduePayments bool       `gorm:"column:payment_plan_has_overdue_payments;not null;default:false" json:"payment_plan_has_overdue_payments"`

	// Audit
	PaymentPlanCreatedBy *uuid.UUID `gorm:"column:payment_plan_created_by;type:uuid" json:"payment_plan_created_by,omitempty"`

	// Timestamps
	PaymentPlanCreatedAt time.Time      `gorm:"column:payment_plan_created_at;not null;default:now()" json:"payment_plan_created_at"`
	PaymentPlanUpdatedAt time.Time      `gorm:"column:payment_plan_updated_at;not null;default:now()" json:"payment_plan_updated_at"`
	PaymentPlanDeletedAt gorm.DeletedAt `gorm:"column:payment_plan_deleted_at;index" json:"-"`
}

func (PaymentPlan) TableName() string { return "payment_plans" }

/* =========================================================
   HOOKS
========================================================= */

func (m *PaymentPlan) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.PaymentPlanCreatedAt.IsZero() {
		m.PaymentPlanCreatedAt = now
	}
	m.PaymentPlanUpdatedAt = now
	return nil
}

func (m *PaymentPlan) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentPlanUpdatedAt = time.Now()
	return nil
}

/* =========================================================
   HELPERS
========================================================= */

// IsTerminal reports whether the plan can no longer move forward on its own.
// Paused is a reversible suspension, not terminal.
func (m *PaymentPlan) IsTerminal() bool {
	return m.PaymentPlanStatus == PlanStatusCompleted || m.PaymentPlanStatus == PlanStatusCancelled
}

func (m *PaymentPlan) IsPaused() bool {
	return m.PaymentPlanStatus == PlanStatusPaused
}
