// file: internals/features/plans/dto/activity_details_dto.go
package dto

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   ACTIVITY DETAILS — tagged union
   One typed payload per action type; the action type on the activity row
   is the tag. Encode/decode is a closed switch, unknown combinations are
   an error, not a silent map.
========================================================= */

type CreateDetails struct {
	TotalInstallments int                 `json:"total_installments"`
	Frequency         model.PlanFrequency `json:"frequency"`
	StartDate         dateonly.Date       `json:"start_date"`
	TotalAmountCents  int                 `json:"total_amount_cents"`
}

type PauseDetails struct {
	FromPending int `json:"from_pending"`
	FromSent    int `json:"from_sent"`
	FromOverdue int `json:"from_overdue"`
}

type ResumeDetails struct {
	ResumedInstallments int           `json:"resumed_installments"`
	ResumeDate          dateonly.Date `json:"resume_date"`
}

type CancelDetails struct {
	CancelledInstallments int `json:"cancelled_installments"`
}

// RescheduleDetails covers both the whole-plan shift and the
// single-installment variant (InstallmentNumber/NewDueDate set, ShiftDays
// zero).
type RescheduleDetails struct {
	OldStartDate         *dateonly.Date `json:"old_start_date,omitempty"`
	NewStartDate         *dateonly.Date `json:"new_start_date,omitempty"`
	ShiftDays            int            `json:"shift_days"`
	AffectedInstallments int            `json:"affected_installments"`
	InstallmentNumber    *int           `json:"installment_number,omitempty"`
	NewDueDate           *dateonly.Date `json:"new_due_date,omitempty"`
}

type PaymentMadeDetails struct {
	InstallmentNumber int    `json:"installment_number"`
	AmountCents       int    `json:"amount_cents"`
	PaymentRef        string `json:"payment_ref"`
	ManualPayment     bool   `json:"manual_payment"`
}

type PaymentRefundDetails struct {
	OriginalAmountCents int    `json:"original_amount_cents"`
	RefundAmountCents   int    `json:"refund_amount_cents"`
	PaymentRef          string `json:"payment_ref"`
	FullRefund          bool   `json:"full_refund"`
}

type ReminderSentDetails struct {
	InstallmentNumber int           `json:"installment_number"`
	DueDate           dateonly.Date `json:"due_date"`
}

type OverdueDetails struct {
	FlaggedInstallments []int `json:"flagged_installments"`
}

// EncodeActivityDetails serializes the payload for an activity row after
// checking that the payload variant matches the action tag.
func EncodeActivityDetails(action model.ActivityAction, payload any) (datatypes.JSON, error) {
	ok := false
	switch action {
	case model.ActivityActionCreate:
		_, ok = payload.(CreateDetails)
	case model.ActivityActionPause:
		_, ok = payload.(PauseDetails)
	case model.ActivityActionResume:
		_, ok = payload.(ResumeDetails)
	case model.ActivityActionCancel:
		_, ok = payload.(CancelDetails)
	case model.ActivityActionReschedule:
		_, ok = payload.(RescheduleDetails)
	case model.ActivityActionPaymentMade:
		_, ok = payload.(PaymentMadeDetails)
	case model.ActivityActionPaymentRefund:
		_, ok = payload.(PaymentRefundDetails)
	case model.ActivityActionReminderSent:
		_, ok = payload.(ReminderSentDetails)
	case model.ActivityActionOverdue:
		_, ok = payload.(OverdueDetails)
	default:
		return nil, fmt.Errorf("activity details: unknown action %q", action)
	}
	if !ok {
		return nil, fmt.Errorf("activity details: payload %T does not match action %q", payload, action)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// DecodeActivityDetails parses the stored payload back into its typed
// variant.
func DecodeActivityDetails(action model.ActivityAction, raw datatypes.JSON) (any, error) {
	var target any
	switch action {
	case model.ActivityActionCreate:
		target = &CreateDetails{}
	case model.ActivityActionPause:
		target = &PauseDetails{}
	case model.ActivityActionResume:
		target = &ResumeDetails{}
	case model.ActivityActionCancel:
		target = &CancelDetails{}
	case model.ActivityActionReschedule:
		target = &RescheduleDetails{}
	case model.ActivityActionPaymentMade:
		target = &PaymentMadeDetails{}
	case model.ActivityActionPaymentRefund:
		target = &PaymentRefundDetails{}
	case model.ActivityActionReminderSent:
		target = &ReminderSentDetails{}
	case model.ActivityActionOverdue:
		target = &OverdueDetails{}
	default:
		return nil, fmt.Errorf("activity details: unknown action %q", action)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("activity details: decode %q: %w", action, err)
		}
	}
	return target, nil
}
