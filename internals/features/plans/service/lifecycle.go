// file: internals/features/plans/service/lifecycle.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   LIFECYCLE ENGINE
   Every operation is one atomic read-modify-write against the PlanStore:
   snapshot in, batch (plan + installments + requests + payments + one
   activity row) out. Settled installments are filtered out before any
   mutation; the caller-supplied actor id is recorded on the audit row.
========================================================= */

type Engine struct {
	store    PlanStore
	notifier Notifier
	contacts ContactDirectory

	// NotifyTimeout bounds post-commit event dispatch (default 3s).
	NotifyTimeout time.Duration

	// Today supplies the sweep/resolver reference date; overridable in
	// tests.
	Today func() dateonly.Date
}

func NewEngine(store PlanStore, notifier Notifier, contacts ContactDirectory) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		contacts: contacts,
		Today:    dateonly.Today,
	}
}

/* =========================================================
   CREATE
========================================================= */

type CreatePlanInput struct {
	ClinicID               uuid.UUID
	PatientID              uuid.UUID
	PaymentLinkID          *uuid.UUID
	Title                  string
	TotalAmountCents       int
	InstallmentAmountCents int
	TotalInstallments      int
	Frequency              model.PlanFrequency
	StartDate              dateonly.Date
	ActorID                *uuid.UUID
}

// CreatePlan generates the installment series and inserts the whole
// aggregate in one transaction. The plan starts pending with its next due
// date on the first installment.
func (e *Engine) CreatePlan(ctx context.Context, in CreatePlanInput) (*model.PaymentPlan, error) {
	if in.StartDate.IsZero() {
		return nil, Errf(ErrorKindInvalidDateRange, "start date is required")
	}

	installments, err := GenerateSchedule(in.StartDate, in.Frequency, in.TotalInstallments, in.InstallmentAmountCents)
	if err != nil {
		return nil, err
	}

	start := in.StartDate
	plan := &model.PaymentPlan{
		PaymentPlanID:                     uuid.New(),
		PaymentPlanClinicID:               in.ClinicID,
		PaymentPlanPatientID:              in.PatientID,
		PaymentPlanPaymentLinkID:          in.PaymentLinkID,
		PaymentPlanTitle:                  in.Title,
		PaymentPlanTotalAmountCents:       in.TotalAmountCents,
		PaymentPlanInstallmentAmountCents: in.InstallmentAmountCents,
		PaymentPlanTotalInstallments:      in.TotalInstallments,
		PaymentPlanFrequency:              in.Frequency,
		PaymentPlanStartDate:              start,
		PaymentPlanNextDueDate:            &start,
		PaymentPlanStatus:                 model.PlanStatusPending,
		PaymentPlanCreatedBy:              in.ActorID,
	}

	for i := range installments {
		installments[i].PaymentScheduleID = uuid.New()
		installments[i].PaymentSchedulePlanID = plan.PaymentPlanID
		installments[i].PaymentScheduleClinicID = in.ClinicID
		installments[i].PaymentSchedulePatientID = in.PatientID
		installments[i].PaymentSchedulePaymentLinkID = in.PaymentLinkID
	}

	activity, err := newActivity(plan, model.ActivityActionCreate, in.ActorID, dto.CreateDetails{
		TotalInstallments: in.TotalInstallments,
		Frequency:         in.Frequency,
		StartDate:         in.StartDate,
		TotalAmountCents:  in.TotalAmountCents,
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.CreatePlan(ctx, plan, installments, activity); err != nil {
		return nil, err
	}
	return plan, nil
}

/* =========================================================
   CANCEL
========================================================= */

// CancelPlan marks the plan and every modifiable installment cancelled.
// Settled installments are untouched; outstanding payment requests are
// deliberately NOT cancelled (plan cancellation implicitly voids them —
// preserved source asymmetry, see Reschedule for the contrast). Logs even
// when nothing was modifiable.
func (e *Engine) CancelPlan(ctx context.Context, planID uuid.UUID, actor *uuid.UUID) (OpResult, error) {
	var res OpResult
	var statusChanged bool
	var ev NotificationEvent

	err := e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		prev := snap.Plan.PaymentPlanStatus

		var changed []model.PlanInstallment
		for i := range snap.Installments {
			inst := &snap.Installments[i]
			if IsSettled(inst, snap.RequestFor(inst)) {
				continue
			}
			if inst.PaymentScheduleStatus == model.InstallmentStatusCancelled {
				continue
			}
			inst.PaymentScheduleStatus = model.InstallmentStatusCancelled
			changed = append(changed, *inst)
		}

		snap.Plan.PaymentPlanStatus = model.PlanStatusCancelled
		snap.Plan.PaymentPlanNextDueDate = nil
		snap.Plan.PaymentPlanHasOverduePayments = false
		snap.Plan.PaymentPlanProgressPercent = ProgressPercent(snap.Plan.PaymentPlanPaidInstallments, snap.Plan.PaymentPlanTotalInstallments)

		activity, err := newActivity(&snap.Plan, model.ActivityActionCancel, actor, dto.CancelDetails{
			CancelledInstallments: len(changed),
		})
		if err != nil {
			return nil, err
		}

		res = OpResult{OK: true, AffectedInstallments: len(changed), PlanStatus: model.PlanStatusCancelled}
		if len(changed) == 0 {
			res.ErrorKind = ErrorKindNoModifiableInstallments
		}
		statusChanged = prev != model.PlanStatusCancelled
		ev = e.statusChangedEvent(snap)

		return &Batch{Plan: &snap.Plan, Installments: changed, Activity: activity}, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if statusChanged {
		e.dispatch(ev)
	}
	return res, nil
}

/* =========================================================
   PAUSE
========================================================= */

// PausePlan suspends collection: every modifiable pending/sent/overdue
// installment becomes paused, counting how many came from each prior
// status for the audit trail. Requests stay untouched.
func (e *Engine) PausePlan(ctx context.Context, planID uuid.UUID, actor *uuid.UUID) (OpResult, error) {
	var res OpResult
	var statusChanged bool
	var ev NotificationEvent

	err := e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		if snap.Plan.PaymentPlanStatus == model.PlanStatusCancelled {
			return nil, Errf(ErrorKindNoModifiableInstallments, "plan %s is cancelled", planID)
		}
		prev := snap.Plan.PaymentPlanStatus

		details := dto.PauseDetails{}
		var changed []model.PlanInstallment
		for i := range snap.Installments {
			inst := &snap.Installments[i]
			if IsSettled(inst, snap.RequestFor(inst)) {
				continue
			}
			switch inst.PaymentScheduleStatus {
			case model.InstallmentStatusPending:
				details.FromPending++
			case model.InstallmentStatusSent:
				details.FromSent++
			case model.InstallmentStatusOverdue:
				details.FromOverdue++
			default:
				continue
			}
			inst.PaymentScheduleStatus = model.InstallmentStatusPaused
			changed = append(changed, *inst)
		}

		snap.Plan.PaymentPlanStatus = model.PlanStatusPaused
		// overdue rows just became paused; the cached flag must follow
		snap.Plan.PaymentPlanHasOverduePayments = false

		activity, err := newActivity(&snap.Plan, model.ActivityActionPause, actor, details)
		if err != nil {
			return nil, err
		}

		res = OpResult{OK: true, AffectedInstallments: len(changed), PlanStatus: model.PlanStatusPaused}
		if len(changed) == 0 {
			res.ErrorKind = ErrorKindNoModifiableInstallments
		}
		statusChanged = prev != model.PlanStatusPaused
		ev = e.statusChangedEvent(snap)

		return &Batch{Plan: &snap.Plan, Installments: changed, Activity: activity}, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if statusChanged {
		e.dispatch(ev)
	}
	return res, nil
}

/* =========================================================
   RESUME
========================================================= */

// ResumePlan reinstates every paused installment: its request (if any,
// and only while still unrealized) is cancelled, the link cleared, status
// reset to pending, and the k-th resumed installment redated to
// advance(resumeDate, cadence, k), preserving relative order. An
// installment whose request turned out to be paid concurrently is left
// untouched. The overdue sweep runs at the end of the same transaction.
func (e *Engine) ResumePlan(ctx context.Context, planID uuid.UUID, resumeDate dateonly.Date, actor *uuid.UUID) (OpResult, error) {
	if resumeDate.IsZero() {
		return failure(ErrorKindInvalidDateRange), Errf(ErrorKindInvalidDateRange, "resume date is required")
	}

	var res OpResult
	var statusChanged bool
	var ev NotificationEvent

	err := e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		if snap.Plan.PaymentPlanStatus == model.PlanStatusCancelled {
			return nil, Errf(ErrorKindNoModifiableInstallments, "plan %s is cancelled", planID)
		}
		today := e.Today()
		prev := snap.Plan.PaymentPlanStatus

		batch := &Batch{}
		touched := map[int]bool{}
		k := 0
		for i := range snap.Installments {
			inst := &snap.Installments[i]
			if inst.PaymentScheduleStatus != model.InstallmentStatusPaused {
				continue
			}
			if req := snap.RequestFor(inst); req != nil {
				if req.IsRealized() {
					// Paid while the plan sat paused; reconciliation owns
					// this row now, leave it out of the batch entirely.
					continue
				}
				batch.CancelRequestIDs = append(batch.CancelRequestIDs, req.PaymentRequestID)
				req.PaymentRequestStatus = model.PaymentRequestStatusCancelled
			}
			due, err := Advance(resumeDate, snap.Plan.PaymentPlanFrequency, k)
			if err != nil {
				return nil, err
			}
			k++
			inst.PaymentSchedulePaymentRequestID = nil
			inst.PaymentScheduleStatus = model.InstallmentStatusPending
			inst.PaymentScheduleDueDate = due
			touched[i] = true
		}

		if snap.Plan.PaymentPlanPaidInstallments == 0 {
			snap.Plan.PaymentPlanStatus = model.PlanStatusPending
		} else {
			snap.Plan.PaymentPlanStatus = model.PlanStatusActive
		}
		for _, i := range sweepSnapshot(snap, today) {
			touched[i] = true
		}
		RecomputeSummary(snap, today)

		activity, err := newActivity(&snap.Plan, model.ActivityActionResume, actor, dto.ResumeDetails{
			ResumedInstallments: k,
			ResumeDate:          resumeDate,
		})
		if err != nil {
			return nil, err
		}

		for i := range snap.Installments {
			if touched[i] {
				batch.Installments = append(batch.Installments, snap.Installments[i])
			}
		}
		batch.Plan = &snap.Plan
		batch.Activity = activity

		res = OpResult{OK: true, AffectedInstallments: k, PlanStatus: snap.Plan.PaymentPlanStatus}
		if k == 0 {
			res.ErrorKind = ErrorKindNoModifiableInstallments
		}
		statusChanged = prev != snap.Plan.PaymentPlanStatus
		ev = e.statusChangedEvent(snap)

		return batch, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if statusChanged {
		e.dispatch(ev)
	}
	return res, nil
}

/* =========================================================
   RESCHEDULE — whole plan
========================================================= */

// ReschedulePlan shifts every modifiable installment by
// (newStartDate - startDate) days. A shift, not a regeneration: irregular
// historical adjustments keep their spacing. Unlike Cancel, reschedule
// actively cancels outstanding (unrealized) requests. A paused plan stays
// paused, installments included. Settled rows are excluded from both the
// date shift and the status recompute.
func (e *Engine) ReschedulePlan(ctx context.Context, planID uuid.UUID, newStartDate dateonly.Date, actor *uuid.UUID) (OpResult, error) {
	if newStartDate.IsZero() {
		return failure(ErrorKindInvalidDateRange), Errf(ErrorKindInvalidDateRange, "new start date is required")
	}

	var res OpResult
	var statusChanged bool
	var ev NotificationEvent

	err := e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		if snap.Plan.PaymentPlanStatus == model.PlanStatusCancelled {
			return nil, Errf(ErrorKindNoModifiableInstallments, "plan %s is cancelled", planID)
		}
		if newStartDate.Before(snap.Plan.PaymentPlanStartDate) {
			return nil, Errf(ErrorKindInvalidDateRange, "new start %s is before plan start %s", newStartDate, snap.Plan.PaymentPlanStartDate)
		}
		today := e.Today()
		prev := snap.Plan.PaymentPlanStatus
		wasPaused := prev == model.PlanStatusPaused
		shiftDays := snap.Plan.PaymentPlanStartDate.DaysUntil(newStartDate)

		batch := &Batch{}
		touched := map[int]bool{}
		affected := 0
		for i := range snap.Installments {
			inst := &snap.Installments[i]
			if IsSettled(inst, snap.RequestFor(inst)) {
				continue
			}
			if inst.PaymentScheduleStatus == model.InstallmentStatusCancelled {
				continue
			}
			if req := snap.RequestFor(inst); req != nil {
				if req.IsRealized() {
					continue
				}
				batch.CancelRequestIDs = append(batch.CancelRequestIDs, req.PaymentRequestID)
				req.PaymentRequestStatus = model.PaymentRequestStatusCancelled
			}
			inst.PaymentSchedulePaymentRequestID = nil
			inst.PaymentScheduleDueDate = inst.PaymentScheduleDueDate.AddDays(shiftDays)
			switch inst.PaymentScheduleStatus {
			case model.InstallmentStatusSent, model.InstallmentStatusOverdue:
				inst.PaymentScheduleStatus = model.InstallmentStatusPending
			}
			// paused stays paused: reschedule must not silently resume
			touched[i] = true
			affected++
		}

		oldStart := snap.Plan.PaymentPlanStartDate
		snap.Plan.PaymentPlanStartDate = newStartDate
		if !wasPaused {
			if snap.Plan.PaymentPlanPaidInstallments == 0 {
				snap.Plan.PaymentPlanStatus = model.PlanStatusPending
			} else {
				snap.Plan.PaymentPlanStatus = model.PlanStatusActive
			}
		}
		for _, i := range sweepSnapshot(snap, today) {
			touched[i] = true
		}
		RecomputeSummary(snap, today)

		newStart := newStartDate
		activity, err := newActivity(&snap.Plan, model.ActivityActionReschedule, actor, dto.RescheduleDetails{
			OldStartDate:         &oldStart,
			NewStartDate:         &newStart,
			ShiftDays:            shiftDays,
			AffectedInstallments: affected,
		})
		if err != nil {
			return nil, err
		}

		for i := range snap.Installments {
			if touched[i] {
				batch.Installments = append(batch.Installments, snap.Installments[i])
			}
		}
		batch.Plan = &snap.Plan
		batch.Activity = activity

		res = OpResult{OK: true, AffectedInstallments: affected, PlanStatus: snap.Plan.PaymentPlanStatus}
		if affected == 0 {
			res.ErrorKind = ErrorKindNoModifiableInstallments
		}
		statusChanged = prev != snap.Plan.PaymentPlanStatus
		ev = e.statusChangedEvent(snap)

		return batch, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	if statusChanged {
		e.dispatch(ev)
	}
	return res, nil
}

/* =========================================================
   RESCHEDULE — single installment
========================================================= */

// RescheduleInstallment moves one modifiable installment to newDate and
// resets it to pending. Targeting a settled installment is rejected, not
// skipped: the caller named the row explicitly.
func (e *Engine) RescheduleInstallment(ctx context.Context, installmentID uuid.UUID, newDate dateonly.Date, actor *uuid.UUID) (OpResult, error) {
	if newDate.IsZero() {
		return failure(ErrorKindInvalidDateRange), Errf(ErrorKindInvalidDateRange, "new due date is required")
	}

	planID, err := e.store.FindPlanIDByInstallment(ctx, installmentID)
	if err != nil {
		return failure(KindOf(err)), err
	}

	var res OpResult
	err = e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		inst := snap.InstallmentByID(installmentID)
		if inst == nil {
			return nil, Errf(ErrorKindInstallmentNotFound, "installment %s not found", installmentID)
		}
		if IsSettled(inst, snap.RequestFor(inst)) {
			return nil, Errf(ErrorKindInstallmentAlreadySettled, "installment %d is already settled", inst.PaymentScheduleNumber)
		}
		today := e.Today()

		batch := &Batch{}
		if req := snap.RequestFor(inst); req != nil {
			batch.CancelRequestIDs = append(batch.CancelRequestIDs, req.PaymentRequestID)
			req.PaymentRequestStatus = model.PaymentRequestStatusCancelled
		}
		inst.PaymentSchedulePaymentRequestID = nil
		inst.PaymentScheduleDueDate = newDate
		inst.PaymentScheduleStatus = model.InstallmentStatusPending

		RecomputeSummary(snap, today)

		number := inst.PaymentScheduleNumber
		due := newDate
		activity, err := newActivity(&snap.Plan, model.ActivityActionReschedule, actor, dto.RescheduleDetails{
			AffectedInstallments: 1,
			InstallmentNumber:    &number,
			NewDueDate:           &due,
		})
		if err != nil {
			return nil, err
		}

		batch.Plan = &snap.Plan
		batch.Installments = append(batch.Installments, *inst)
		batch.Activity = activity

		res = OpResult{OK: true, AffectedInstallments: 1, PlanStatus: snap.Plan.PaymentPlanStatus}
		return batch, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	return res, nil
}

/* =========================================================
   READ-ONLY STATUS
========================================================= */

// Snapshot exposes a read-only view of the aggregate for detail endpoints.
func (e *Engine) Snapshot(ctx context.Context, planID uuid.UUID) (*Snapshot, error) {
	return e.store.LoadSnapshot(ctx, planID)
}

// ResolveStatus derives the plan status from a fresh snapshot without
// writing anything; dashboards use this instead of trusting the cache.
func (e *Engine) ResolveStatus(ctx context.Context, planID uuid.UUID) (model.PlanStatus, error) {
	snap, err := e.store.LoadSnapshot(ctx, planID)
	if err != nil {
		return "", err
	}
	return ResolvePlanStatus(snap, e.Today()), nil
}

// statusChangedEvent shapes the plan_status_changed notification for the
// snapshot's current state. Pure: contact channels are resolved by
// dispatch once the transaction has committed.
func (e *Engine) statusChangedEvent(snap *Snapshot) NotificationEvent {
	ev := NotificationEvent{
		PlanID:    snap.Plan.PaymentPlanID,
		PatientID: snap.Plan.PaymentPlanPatientID,
		Kind:      NotificationKindPlanStatusChanged,
	}
	if snap.Plan.PaymentPlanNextDueDate != nil {
		ev.DueDate = *snap.Plan.PaymentPlanNextDueDate
	}
	return ev
}
