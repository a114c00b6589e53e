// file: internals/features/plans/service/payment_ops.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   PAYMENT-SIDE OPERATIONS
   Request issuance, manual payment, gateway reconciliation, refund.
========================================================= */

// MarkInstallmentSent records that a payment request went out for the
// installment: creates the request row, links it, and flips pending → sent
// (overdue keeps its flag but gets the link). Idempotent: an installment
// that already carries an unrealized request is left alone.
func (e *Engine) MarkInstallmentSent(ctx context.Context, installmentID uuid.UUID, actor *uuid.UUID) (OpResult, error) {
	planID, err := e.store.FindPlanIDByInstallment(ctx, installmentID)
	if err != nil {
		return failure(KindOf(err)), err
	}

	var res OpResult
	var ev NotificationEvent
	var emit bool

	err = e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		inst := snap.InstallmentByID(installmentID)
		if inst == nil {
			return nil, Errf(ErrorKindInstallmentNotFound, "installment %s not found", installmentID)
		}
		if IsSettled(inst, snap.RequestFor(inst)) {
			return nil, Errf(ErrorKindInstallmentAlreadySettled, "installment %d is already settled", inst.PaymentScheduleNumber)
		}
		switch inst.PaymentScheduleStatus {
		case model.InstallmentStatusCancelled:
			return nil, Errf(ErrorKindInstallmentCancelled, "installment %d is cancelled", inst.PaymentScheduleNumber)
		case model.InstallmentStatusPaused:
			return nil, Errf(ErrorKindNoModifiableInstallments, "installment %d is paused", inst.PaymentScheduleNumber)
		}
		if inst.PaymentSchedulePaymentRequestID != nil {
			res = OpResult{OK: true, AffectedInstallments: 0, PlanStatus: snap.Plan.PaymentPlanStatus}
			return nil, nil
		}

		req := model.PaymentRequest{
			PaymentRequestID:            uuid.New(),
			PaymentRequestClinicID:      inst.PaymentScheduleClinicID,
			PaymentRequestPatientID:     inst.PaymentSchedulePatientID,
			PaymentRequestPaymentLinkID: inst.PaymentSchedulePaymentLinkID,
			PaymentRequestStatus:        model.PaymentRequestStatusSent,
		}
		inst.PaymentSchedulePaymentRequestID = &req.PaymentRequestID
		if inst.PaymentScheduleStatus == model.InstallmentStatusPending {
			inst.PaymentScheduleStatus = model.InstallmentStatusSent
		}

		activity, err := newActivity(&snap.Plan, model.ActivityActionReminderSent, actor, dto.ReminderSentDetails{
			InstallmentNumber: inst.PaymentScheduleNumber,
			DueDate:           inst.PaymentScheduleDueDate,
		})
		if err != nil {
			return nil, err
		}

		ev = NotificationEvent{
			PlanID:        snap.Plan.PaymentPlanID,
			PatientID:     snap.Plan.PaymentPlanPatientID,
			InstallmentID: inst.PaymentScheduleID,
			Kind:          NotificationKindReminderSent,
			AmountCents:   inst.PaymentScheduleAmountCents,
			DueDate:       inst.PaymentScheduleDueDate,
		}
		emit = true

		res = OpResult{OK: true, AffectedInstallments: 1, PlanStatus: snap.Plan.PaymentPlanStatus}
		return &Batch{
			Plan:         &snap.Plan,
			Installments: []model.PlanInstallment{*inst},
			NewRequests:  []model.PaymentRequest{req},
			Activity:     activity,
		}, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if emit {
		e.dispatch(ev)
	}
	return res, nil
}

// RecordManualPayment settles one modifiable, non-cancelled installment
// with a staff-recorded payment: creates the Payment row, marks the
// installment paid, marks any linked request paid, and advances the plan
// counters/status per the first-payment and completion rules.
func (e *Engine) RecordManualPayment(ctx context.Context, installmentID uuid.UUID, actor *uuid.UUID) (OpResult, error) {
	planID, err := e.store.FindPlanIDByInstallment(ctx, installmentID)
	if err != nil {
		return failure(KindOf(err)), err
	}

	var res OpResult
	var ev NotificationEvent
	var emit bool

	err = e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		inst := snap.InstallmentByID(installmentID)
		if inst == nil {
			return nil, Errf(ErrorKindInstallmentNotFound, "installment %s not found", installmentID)
		}
		if inst.PaymentScheduleStatus == model.InstallmentStatusCancelled {
			return nil, Errf(ErrorKindInstallmentCancelled, "installment %d is cancelled", inst.PaymentScheduleNumber)
		}
		if IsSettled(inst, snap.RequestFor(inst)) {
			return nil, Errf(ErrorKindInstallmentAlreadySettled, "installment %d is already settled", inst.PaymentScheduleNumber)
		}

		now := time.Now()
		payment := model.Payment{
			PaymentID:              uuid.New(),
			PaymentClinicID:        inst.PaymentScheduleClinicID,
			PaymentPaymentLinkID:   inst.PaymentSchedulePaymentLinkID,
			PaymentAmountPaidCents: inst.PaymentScheduleAmountCents,
			PaymentStatus:          model.PaymentStatusPaid,
			PaymentManualPayment:   true,
			PaymentPaidAt:          now,
			PaymentRef:             GenPaymentRef(),
		}

		batch := &Batch{NewPayments: []model.Payment{payment}}
		e.settleInstallment(snap, inst, batch, &payment, now)

		activity, err := newActivity(&snap.Plan, model.ActivityActionPaymentMade, actor, dto.PaymentMadeDetails{
			InstallmentNumber: inst.PaymentScheduleNumber,
			AmountCents:       payment.PaymentAmountPaidCents,
			PaymentRef:        payment.PaymentRef,
			ManualPayment:     true,
		})
		if err != nil {
			return nil, err
		}

		ev = NotificationEvent{
			PlanID:        snap.Plan.PaymentPlanID,
			PatientID:     snap.Plan.PaymentPlanPatientID,
			InstallmentID: inst.PaymentScheduleID,
			Kind:          NotificationKindPaymentMade,
			AmountCents:   payment.PaymentAmountPaidCents,
			DueDate:       inst.PaymentScheduleDueDate,
		}
		emit = true

		batch.Plan = &snap.Plan
		batch.Installments = append(batch.Installments, *inst)
		batch.Activity = activity

		res = OpResult{OK: true, AffectedInstallments: 1, PlanStatus: snap.Plan.PaymentPlanStatus}
		return batch, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if emit {
		e.dispatch(ev)
	}
	return res, nil
}

// ReconcilePaymentSuccess applies an asynchronous processor success event
// for a payment request. Idempotent: a request whose installment is
// already paid commits nothing. System action: no actor on the audit row.
func (e *Engine) ReconcilePaymentSuccess(ctx context.Context, requestID uuid.UUID, externalRef string, paidAt time.Time) (OpResult, error) {
	planID, err := e.store.FindPlanIDByRequest(ctx, requestID)
	if err != nil {
		return failure(KindOf(err)), err
	}

	var res OpResult
	var ev NotificationEvent
	var emit bool

	err = e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		var inst *model.PlanInstallment
		for i := range snap.Installments {
			cand := &snap.Installments[i]
			if cand.PaymentSchedulePaymentRequestID != nil && *cand.PaymentSchedulePaymentRequestID == requestID {
				inst = cand
				break
			}
		}
		if inst == nil {
			return nil, Errf(ErrorKindInstallmentNotFound, "no installment linked to request %s", requestID)
		}
		if inst.IsPaid() {
			// retry of an already-applied success event
			res = OpResult{OK: true, AffectedInstallments: 0, PlanStatus: snap.Plan.PaymentPlanStatus}
			return nil, nil
		}

		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		ref := externalRef
		if ref == "" {
			ref = GenPaymentRef()
		}
		payment := model.Payment{
			PaymentID:              uuid.New(),
			PaymentClinicID:        inst.PaymentScheduleClinicID,
			PaymentPaymentLinkID:   inst.PaymentSchedulePaymentLinkID,
			PaymentAmountPaidCents: inst.PaymentScheduleAmountCents,
			PaymentStatus:          model.PaymentStatusPaid,
			PaymentManualPayment:   false,
			PaymentPaidAt:          paidAt,
			PaymentRef:             ref,
		}

		batch := &Batch{NewPayments: []model.Payment{payment}}
		e.settleInstallment(snap, inst, batch, &payment, paidAt)

		activity, err := newActivity(&snap.Plan, model.ActivityActionPaymentMade, nil, dto.PaymentMadeDetails{
			InstallmentNumber: inst.PaymentScheduleNumber,
			AmountCents:       payment.PaymentAmountPaidCents,
			PaymentRef:        payment.PaymentRef,
			ManualPayment:     false,
		})
		if err != nil {
			return nil, err
		}

		ev = NotificationEvent{
			PlanID:        snap.Plan.PaymentPlanID,
			PatientID:     snap.Plan.PaymentPlanPatientID,
			InstallmentID: inst.PaymentScheduleID,
			Kind:          NotificationKindPaymentMade,
			AmountCents:   payment.PaymentAmountPaidCents,
			DueDate:       inst.PaymentScheduleDueDate,
		}
		emit = true

		batch.Plan = &snap.Plan
		batch.Installments = append(batch.Installments, *inst)
		batch.Activity = activity

		res = OpResult{OK: true, AffectedInstallments: 1, PlanStatus: snap.Plan.PaymentPlanStatus}
		return batch, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if emit {
		e.dispatch(ev)
	}
	return res, nil
}

// settleInstallment applies one realized payment to the snapshot: marks
// the installment and its request paid, bumps the paid counter, and runs
// the status transition rules (complete the series / first payment
// activates / otherwise status stays, next due refreshed).
func (e *Engine) settleInstallment(snap *Snapshot, inst *model.PlanInstallment, batch *Batch, payment *model.Payment, paidAt time.Time) {
	today := e.Today()
	plan := &snap.Plan
	prev := plan.PaymentPlanStatus

	inst.PaymentScheduleStatus = model.InstallmentStatusPaid
	inst.PaymentSchedulePaymentID = &payment.PaymentID

	if req := snap.RequestFor(inst); req != nil && req.PaymentRequestPaymentID == nil {
		req.PaymentRequestStatus = model.PaymentRequestStatusPaid
		req.PaymentRequestPaymentID = &payment.PaymentID
		at := paidAt
		req.PaymentRequestPaidAt = &at
		batch.PaidRequests = append(batch.PaidRequests, *req)
	}

	plan.PaymentPlanPaidInstallments++
	plan.PaymentPlanProgressPercent = ProgressPercent(plan.PaymentPlanPaidInstallments, plan.PaymentPlanTotalInstallments)

	if plan.PaymentPlanPaidInstallments >= plan.PaymentPlanTotalInstallments {
		plan.PaymentPlanStatus = model.PlanStatusCompleted
		plan.PaymentPlanNextDueDate = nil
		plan.PaymentPlanHasOverduePayments = false
		return
	}

	if plan.PaymentPlanPaidInstallments == 1 && (prev == model.PlanStatusPending || prev == model.PlanStatusOverdue) {
		plan.PaymentPlanStatus = model.PlanStatusActive
	}
	plan.PaymentPlanNextDueDate = snap.NextDueDate()
	plan.PaymentPlanHasOverduePayments = snap.AnyModifiablePastDue(today)
}

// RecordRefund reverses a settled payment, fully or partially. The
// installment flips to refunded/partially_refunded; a full refund rolls
// the paid counter back and can demote a completed plan to active.
func (e *Engine) RecordRefund(ctx context.Context, paymentID uuid.UUID, amountCents int, fullRefund bool, actor *uuid.UUID) (OpResult, error) {
	if amountCents <= 0 {
		return failure(ErrorKindInvalidArgument), Errf(ErrorKindInvalidArgument, "refund amount must be positive, got %d", amountCents)
	}

	planID, err := e.store.FindPlanIDByPayment(ctx, paymentID)
	if err != nil {
		return failure(KindOf(err)), err
	}

	var res OpResult
	err = e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		var inst *model.PlanInstallment
		for i := range snap.Installments {
			cand := &snap.Installments[i]
			if cand.PaymentSchedulePaymentID != nil && *cand.PaymentSchedulePaymentID == paymentID {
				inst = cand
				break
			}
		}
		if inst == nil {
			return nil, Errf(ErrorKindPaymentNotFound, "no installment linked to payment %s", paymentID)
		}
		payment := snap.Payments[paymentID]
		if payment == nil {
			return nil, Errf(ErrorKindPaymentNotFound, "payment %s not found", paymentID)
		}

		now := time.Now()
		plan := &snap.Plan

		refund := amountCents
		payment.PaymentRefundAmountCents = &refund
		payment.PaymentRefundedAt = &now
		if fullRefund {
			payment.PaymentStatus = model.PaymentStatusRefunded
			inst.PaymentScheduleStatus = model.InstallmentStatusRefunded
		} else {
			payment.PaymentStatus = model.PaymentStatusPartiallyRefunded
			inst.PaymentScheduleStatus = model.InstallmentStatusPartiallyRefunded
		}

		if fullRefund {
			if plan.PaymentPlanPaidInstallments > 0 {
				plan.PaymentPlanPaidInstallments--
			}
			plan.PaymentPlanProgressPercent = ProgressPercent(plan.PaymentPlanPaidInstallments, plan.PaymentPlanTotalInstallments)
			if plan.PaymentPlanStatus == model.PlanStatusCompleted && plan.PaymentPlanProgressPercent < 100 {
				plan.PaymentPlanStatus = model.PlanStatusActive
			}
		}

		activity, err := newActivity(plan, model.ActivityActionPaymentRefund, actor, dto.PaymentRefundDetails{
			OriginalAmountCents: payment.PaymentAmountPaidCents,
			RefundAmountCents:   amountCents,
			PaymentRef:          payment.PaymentRef,
			FullRefund:          fullRefund,
		})
		if err != nil {
			return nil, err
		}

		res = OpResult{OK: true, AffectedInstallments: 1, PlanStatus: plan.PaymentPlanStatus}
		return &Batch{
			Plan:            plan,
			Installments:    []model.PlanInstallment{*inst},
			UpdatedPayments: []model.Payment{*payment},
			Activity:        activity,
		}, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	return res, nil
}
