// file: internals/features/plans/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   ENUM — payment status
========================================================= */

type PaymentStatus string

const (
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

/* =========================================================
   MODEL — payments
   A settled charge. Immutable once created except for the refund fields.
========================================================= */

type Payment struct {
	// PK
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_id"`

	PaymentClinicID      uuid.UUID  `gorm:"column:payment_clinic_id;type:uuid;not null;index" json:"payment_clinic_id"`
	PaymentPaymentLinkID *uuid.UUID `gorm:"column:payment_payment_link_id;type:uuid" json:"payment_payment_link_id,omitempty"`

	PaymentAmountPaidCents int           `gorm:"column:payment_amount_paid_cents;not null;check:payment_amount_paid_cents>=0" json:"payment_amount_paid_cents"`
	PaymentStatus          PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'paid'" json:"payment_status"`

	// True when recorded by clinic staff instead of the processor.
	PaymentManualPayment bool `gorm:"column:payment_manual_payment;not null;default:false" json:"payment_manual_payment"`

	PaymentPaidAt time.Time `gorm:"column:payment_paid_at;not null" json:"payment_paid_at"`

	// Refund fields (the only mutation allowed after creation)
	PaymentRefundAmountCents *int       `gorm:"column:payment_refund_amount_cents" json:"payment_refund_amount_cents,omitempty"`
	PaymentRefundedAt        *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`

	// Human-facing reference, e.g. "PAY-20250318-143501-AB12CD34"
	PaymentRef string `gorm:"column:payment_ref;type:varchar(64);not null;uniqueIndex" json:"payment_ref"`

	// Timestamps
	PaymentCreatedAt time.Time      `gorm:"column:payment_created_at;not null;default:now()" json:"payment_created_at"`
	PaymentUpdatedAt time.Time      `gorm:"column:payment_updated_at;not null;default:now()" json:"payment_updated_at"`
	PaymentDeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"-"`
}

func (Payment) TableName() string { return "payments" }

func (m *Payment) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.PaymentCreatedAt.IsZero() {
		m.PaymentCreatedAt = now
	}
	m.PaymentUpdatedAt = now
	return nil
}

func (m *Payment) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentUpdatedAt = time.Now()
	return nil
}
