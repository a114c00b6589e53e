// file: internals/features/plans/model/payment_activity_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/* =========================================================
   ENUM — activity action types
========================================================= */

type ActivityAction string

const (
	ActivityActionCreate        ActivityAction = "create"
	ActivityActionPause         ActivityAction = "pause"
	ActivityActionResume        ActivityAction = "resume"
	ActivityActionCancel        ActivityAction = "cancel"
	ActivityActionReschedule    ActivityAction = "reschedule"
	ActivityActionPaymentMade   ActivityAction = "payment_made"
	ActivityActionPaymentRefund ActivityAction = "payment_refund"
	ActivityActionReminderSent  ActivityAction = "reminder_sent"
	ActivityActionOverdue       ActivityAction = "overdue"
)

/* =========================================================
   MODEL — payment_activities
   Append-only audit trail: exactly one row per lifecycle mutation.
   details carries an action-specific typed payload (see dto package for
   the tagged union).
========================================================= */

type PaymentActivity struct {
	// PK
	PaymentActivityID uuid.UUID `gorm:"column:payment_activity_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_activity_id"`

	PaymentActivityPlanID        uuid.UUID  `gorm:"column:payment_activity_plan_id;type:uuid;not null;index:ix_payment_activity_plan" json:"payment_activity_plan_id"`
	PaymentActivityPaymentLinkID *uuid.UUID `gorm:"column:payment_activity_payment_link_id;type:uuid" json:"payment_activity_payment_link_id,omitempty"`
	PaymentActivityPatientID     uuid.UUID  `gorm:"column:payment_activity_patient_id;type:uuid;not null" json:"payment_activity_patient_id"`
	PaymentActivityClinicID      uuid.UUID  `gorm:"column:payment_activity_clinic_id;type:uuid;not null;index" json:"payment_activity_clinic_id"`

	PaymentActivityActionType ActivityAction `gorm:"column:payment_activity_action_type;type:payment_activity_action;not null" json:"payment_activity_action_type"`

	// NULL for system actions (overdue sweep, gateway reconciliation)
	PaymentActivityPerformedByUserID *uuid.UUID `gorm:"column:payment_activity_performed_by_user_id;type:uuid" json:"payment_activity_performed_by_user_id,omitempty"`

	PaymentActivityPerformedAt time.Time      `gorm:"column:payment_activity_performed_at;not null;default:now()" json:"payment_activity_performed_at"`
	PaymentActivityDetails     datatypes.JSON `gorm:"column:payment_activity_details;type:jsonb" json:"payment_activity_details,omitempty"`
}

func (PaymentActivity) TableName() string { return "payment_activities" }
