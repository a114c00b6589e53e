// file: internals/features/plans/service/store.go
package service

import (
	"context"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   PLAN STORE — persistence boundary
   One snapshot in, one batch out: every lifecycle operation is a single
   atomic read-modify-write, and the store is the sole point of mutual
   exclusion for a plan aggregate.
========================================================= */

// Snapshot is a consistent read of one plan aggregate, taken under the
// store's lock. Installments are ordered by payment_schedule_number.
// Requests/Payments hold the rows linked from the installments.
type Snapshot struct {
	Plan         model.PaymentPlan
	Installments []model.PlanInstallment
	Requests     map[uuid.UUID]*model.PaymentRequest
	Payments     map[uuid.UUID]*model.Payment
}

// RequestFor returns the linked request of inst, or nil.
func (s *Snapshot) RequestFor(inst *model.PlanInstallment) *model.PaymentRequest {
	if inst.PaymentSchedulePaymentRequestID == nil {
		return nil
	}
	return s.Requests[*inst.PaymentSchedulePaymentRequestID]
}

// PaymentFor returns the linked payment of inst, or nil.
func (s *Snapshot) PaymentFor(inst *model.PlanInstallment) *model.Payment {
	if inst.PaymentSchedulePaymentID == nil {
		return nil
	}
	return s.Payments[*inst.PaymentSchedulePaymentID]
}

// InstallmentByID returns a pointer into s.Installments, or nil.
func (s *Snapshot) InstallmentByID(id uuid.UUID) *model.PlanInstallment {
	for i := range s.Installments {
		if s.Installments[i].PaymentScheduleID == id {
			return &s.Installments[i]
		}
	}
	return nil
}

// AnyModifiablePastDue reports whether a modifiable installment is overdue
// or past its due date as of today.
func (s *Snapshot) AnyModifiablePastDue(today dateonly.Date) bool {
	for i := range s.Installments {
		inst := &s.Installments[i]
		if IsSettled(inst, s.RequestFor(inst)) {
			continue
		}
		switch inst.PaymentScheduleStatus {
		case model.InstallmentStatusOverdue:
			return true
		case model.InstallmentStatusPending, model.InstallmentStatusSent:
			if inst.PaymentScheduleDueDate.Before(today) {
				return true
			}
		}
	}
	return false
}

// NextDueDate returns the earliest due date among installments that still
// wait for collection (pending/sent/overdue/paused and not settled), or
// nil when none remain.
func (s *Snapshot) NextDueDate() *dateonly.Date {
	var next *dateonly.Date
	for i := range s.Installments {
		inst := &s.Installments[i]
		if !inst.IsOpen() || IsSettled(inst, s.RequestFor(inst)) {
			continue
		}
		due := inst.PaymentScheduleDueDate
		if next == nil || due.Before(*next) {
			d := due
			next = &d
		}
	}
	return next
}

// Batch is the full write set of one lifecycle operation. Everything in it
// commits together or not at all, always alongside exactly one activity
// row.
type Batch struct {
	Plan         *model.PaymentPlan
	Installments []model.PlanInstallment

	// Requests to cancel; the store re-checks payment_request_payment_id
	// IS NULL at write time and reports StoreConflict when the guard trips.
	CancelRequestIDs []uuid.UUID

	NewRequests  []model.PaymentRequest
	PaidRequests []model.PaymentRequest

	NewPayments     []model.Payment
	UpdatedPayments []model.Payment

	Activity *model.PaymentActivity
}

// PlanStore is the persistence boundary of the engine.
type PlanStore interface {
	// CreatePlan inserts a plan, its generated schedule, and the creation
	// activity in one transaction.
	CreatePlan(ctx context.Context, plan *model.PaymentPlan, installments []model.PlanInstallment, activity *model.PaymentActivity) error

	// Transact runs fn against a locked snapshot of the plan aggregate and
	// commits the returned batch atomically. A nil batch commits nothing.
	Transact(ctx context.Context, planID uuid.UUID, fn func(snap *Snapshot) (*Batch, error)) error

	// LoadSnapshot is the read-only variant for dashboards/status checks.
	LoadSnapshot(ctx context.Context, planID uuid.UUID) (*Snapshot, error)

	FindPlanIDByInstallment(ctx context.Context, installmentID uuid.UUID) (uuid.UUID, error)
	FindPlanIDByPayment(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error)
	FindPlanIDByRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error)
}
