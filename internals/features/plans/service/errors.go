// file: internals/features/plans/service/errors.go
package service

import (
	"errors"
	"fmt"

	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   ERROR KINDS — stable identifiers callers can branch on
========================================================= */

type ErrorKind string

const (
	ErrorKindPlanNotFound               ErrorKind = "plan_not_found"
	ErrorKindInstallmentNotFound        ErrorKind = "installment_not_found"
	ErrorKindPaymentNotFound            ErrorKind = "payment_not_found"
	ErrorKindInstallmentAlreadySettled  ErrorKind = "installment_already_settled"
	ErrorKindInstallmentCancelled       ErrorKind = "installment_cancelled"
	ErrorKindNoModifiableInstallments   ErrorKind = "no_modifiable_installments"
	ErrorKindInvalidCadence             ErrorKind = "invalid_cadence"
	ErrorKindInvalidDateRange           ErrorKind = "invalid_date_range"
	ErrorKindInvalidArgument            ErrorKind = "invalid_argument"
	ErrorKindStoreConflict              ErrorKind = "store_conflict"
	ErrorKindNotificationDeliveryFailed ErrorKind = "notification_delivery_failed"
)

// OpError is a domain failure with a stable kind. Store conflicts are
// retriable by the caller; everything else is a terminal rejection.
type OpError struct {
	Kind    ErrorKind
	Message string
}

func (e *OpError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Errf(kind ErrorKind, format string, args ...any) *OpError {
	return &OpError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" for non-domain errors.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

/* =========================================================
   RESULT — outcome of a lifecycle operation
========================================================= */

// OpResult mirrors what callers (UI dialogs, webhook glue) need to react:
// whether the mutation committed, how many installments it touched, and
// the plan status after commit. ErrorKind is set on failure and also for
// the one legal no-op condition (no_modifiable_installments), which still
// commits an activity row and reports OK.
type OpResult struct {
	OK                   bool             `json:"ok"`
	ErrorKind            ErrorKind        `json:"error_kind,omitempty"`
	AffectedInstallments int              `json:"affected_installments"`
	PlanStatus           model.PlanStatus `json:"plan_status,omitempty"`
}

func failure(kind ErrorKind) OpResult {
	return OpResult{OK: false, ErrorKind: kind}
}
