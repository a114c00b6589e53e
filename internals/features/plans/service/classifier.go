// file: internals/features/plans/service/classifier.go
package service

import (
	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   INSTALLMENT CLASSIFIER
   Settled = money actually moved against the installment. Only settled
   rows are off-limits to lifecycle operations; a "sent" installment whose
   request was never paid stays modifiable.
========================================================= */

// IsSettled decides whether the installment is immutable history.
// req is the installment's linked payment request, nil when there is none
// or it could not be found.
func IsSettled(inst *model.PlanInstallment, req *model.PaymentRequest) bool {
	switch inst.PaymentScheduleStatus {
	case model.InstallmentStatusRefunded, model.InstallmentStatusPartiallyRefunded:
		// Money moved and then moved back; the row is history, not schedule.
		return true
	case model.InstallmentStatusSent, model.InstallmentStatusPaid:
		// fall through to the realized-collection checks below
	default:
		return false
	}

	// Manual payments may settle an installment that never had a request.
	if inst.PaymentSchedulePaymentID != nil {
		return true
	}

	if inst.PaymentSchedulePaymentRequestID == nil || req == nil {
		return false
	}
	return req.PaymentRequestPaymentID != nil
}

func IsModifiable(inst *model.PlanInstallment, req *model.PaymentRequest) bool {
	return !IsSettled(inst, req)
}
