// file: internals/features/plans/model/payment_request_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   ENUM — payment request status
========================================================= */

type PaymentRequestStatus string

const (
	PaymentRequestStatusSent      PaymentRequestStatus = "sent"
	PaymentRequestStatusPaid      PaymentRequestStatus = "paid"
	PaymentRequestStatusCancelled PaymentRequestStatus = "cancelled"
)

/* =========================================================
   MODEL — payment_requests
   A sent invitation to pay one installment. Distinct from the realized
   Payment: a request may be cancelled as long as its payment_id is still
   NULL; once payment_id is set the request is settled history.
========================================================= */

type PaymentRequest struct {
	// PK
	PaymentRequestID uuid.UUID `gorm:"column:payment_request_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_request_id"`

	PaymentRequestClinicID      uuid.UUID  `gorm:"column:payment_request_clinic_id;type:uuid;not null;index" json:"payment_request_clinic_id"`
	PaymentRequestPatientID     uuid.UUID  `gorm:"column:payment_request_patient_id;type:uuid;not null;index" json:"payment_request_patient_id"`
	PaymentRequestPaymentLinkID *uuid.UUID `gorm:"column:payment_request_payment_link_id;type:uuid" json:"payment_request_payment_link_id,omitempty"`

	PaymentRequestStatus PaymentRequestStatus `gorm:"column:payment_request_status;type:payment_request_status;not null;default:'sent';index" json:"payment_request_status"`

	// Set by the payment-success path only.
	PaymentRequestPaymentID *uuid.UUID `gorm:"column:payment_request_payment_id;type:uuid;index" json:"payment_request_payment_id,omitempty"`
	PaymentRequestPaidAt    *time.Time `gorm:"column:payment_request_paid_at" json:"payment_request_paid_at,omitempty"`

	// Timestamps
	PaymentRequestCreatedAt time.Time      `gorm:"column:payment_request_created_at;not null;default:now()" json:"payment_request_created_at"`
	PaymentRequestUpdatedAt time.Time      `gorm:"column:payment_request_updated_at;not null;default:now()" json:"payment_request_updated_at"`
	PaymentRequestDeletedAt gorm.DeletedAt `gorm:"column:payment_request_deleted_at;index" json:"-"`
}

func (PaymentRequest) TableName() string { return "payment_requests" }

func (m *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.PaymentRequestCreatedAt.IsZero() {
		m.PaymentRequestCreatedAt = now
	}
	m.PaymentRequestUpdatedAt = now
	return nil
}

func (m *PaymentRequest) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentRequestUpdatedAt = time.Now()
	return nil
}

// IsRealized reports whether money actually moved against this request.
func (m *PaymentRequest) IsRealized() bool {
	return m.PaymentRequestPaymentID != nil
}
