// file: internals/features/plans/model/plan_installment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   ENUM — installment status (payment_schedule_status)
========================================================= */

type InstallmentStatus string

const (
	InstallmentStatusPending           InstallmentStatus = "pending"
	InstallmentStatusSent              InstallmentStatus = "sent"
	InstallmentStatusPaid              InstallmentStatus = "paid"
	InstallmentStatusOverdue           InstallmentStatus = "overdue"
	InstallmentStatusPaused            InstallmentStatus = "paused"
	InstallmentStatusCancelled         InstallmentStatus = "cancelled"
	InstallmentStatusRefunded          InstallmentStatus = "refunded"
	InstallmentStatusPartiallyRefunded InstallmentStatus = "partially_refunded"
)

/* =========================================================
   MODEL — payment_schedules
   One scheduled charge within a plan. payment_number is 1..N and
   contiguous; due dates are non-decreasing in payment_number order.
========================================================= */

type PlanInstallment struct {
	// PK
	PaymentScheduleID uuid.UUID `gorm:"column:payment_schedule_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_schedule_id"`

	// FK → payment_plans
	PaymentSchedulePlanID uuid.UUID `gorm:"column:payment_schedule_plan_id;type:uuid;not null;index:ix_payment_schedule_plan;index:uniq_plan_number,unique,priority:1" json:"payment_schedule_plan_id"`

	// Denormalized tenancy (mirrors the plan row; kept for dashboard queries)
	PaymentScheduleClinicID      uuid.UUID  `gorm:"column:payment_schedule_clinic_id;type:uuid;not null;index" json:"payment_schedule_clinic_id"`
	PaymentSchedulePatientID     uuid.UUID  `gorm:"column:payment_schedule_patient_id;type:uuid;not null;index" json:"payment_schedule_patient_id"`
	PaymentSchedulePaymentLinkID *uuid.UUID `gorm:"column:payment_schedule_payment_link_id;type:uuid" json:"payment_schedule_payment_link_id,omitempty"`

	PaymentScheduleAmountCents int           `gorm:"column:payment_schedule_amount_cents;not null;check:payment_schedule_amount_cents>=0" json:"payment_schedule_amount_cents"`
	PaymentScheduleDueDate     dateonly.Date `gorm:"column:payment_schedule_due_date;type:date;not null;index:ix_payment_schedule_due" json:"payment_schedule_due_date"`

	// Position in the series
	PaymentScheduleNumber        int `gorm:"column:payment_schedule_number;not null;check:payment_schedule_number>0;index:uniq_plan_number,unique,priority:2" json:"payment_schedule_number"`
	PaymentScheduleTotalPayments int `gorm:"column:payment_schedule_total_payments;not null" json:"payment_schedule_total_payments"`

	PaymentScheduleStatus InstallmentStatus `gorm:"column:payment_schedule_status;type:payment_schedule_status;not null;default:'pending';index:ix_payment_schedule_status" json:"payment_schedule_status"`

	// Installment owns the link to its request (one-to-zero-or-one); the
	// engine is the only writer of this column.
	PaymentSchedulePaymentRequestID *uuid.UUID `gorm:"column:payment_schedule_payment_request_id;type:uuid;index" json:"payment_schedule_payment_request_id,omitempty"`

	// Set once money has moved against this installment.
	PaymentSchedulePaymentID *uuid.UUID `gorm:"column:payment_schedule_payment_id;type:uuid;index" json:"payment_schedule_payment_id,omitempty"`

	// Timestamps
	PaymentScheduleCreatedAt time.Time      `gorm:"column:payment_schedule_created_at;not null;default:now()" json:"payment_schedule_created_at"`
	PaymentScheduleUpdatedAt time.Time      `gorm:"column:payment_schedule_updated_at;not null;default:now()" json:"payment_schedule_updated_at"`
	PaymentScheduleDeletedAt gorm.DeletedAt `gorm:"column:payment_schedule_deleted_at;index" json:"-"`
}

func (PlanInstallment) TableName() string { return "payment_schedules" }

/* =========================================================
   HOOKS
========================================================= */

func (m *PlanInstallment) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.PaymentScheduleCreatedAt.IsZero() {
		m.PaymentScheduleCreatedAt = now
	}
	m.PaymentScheduleUpdatedAt = now
	return nil
}

func (m *PlanInstallment) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentScheduleUpdatedAt = time.Now()
	return nil
}

/* =========================================================
   HELPERS
========================================================= */

func (m *PlanInstallment) IsPaid() bool {
	return m.PaymentScheduleStatus == InstallmentStatusPaid
}

// IsOpen reports whether the installment still waits for collection.
func (m *PlanInstallment) IsOpen() bool {
	switch m.PaymentScheduleStatus {
	case InstallmentStatusPending, InstallmentStatusSent, InstallmentStatusOverdue, InstallmentStatusPaused:
		return true
	default:
		return false
	}
}
