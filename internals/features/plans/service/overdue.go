// file: internals/features/plans/service/overdue.go
package service

import (
	"context"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   OVERDUE SWEEP
   Flags past-due installments and lifts the plan to overdue where the
   first-payment grace rule allows it.
========================================================= */

// sweepSnapshot flips every pending/sent installment whose due date has
// passed to overdue, in place on the snapshot. Returns the indices of the
// rows it changed. Paused, cancelled and settled rows are never touched.
func sweepSnapshot(snap *Snapshot, today dateonly.Date) []int {
	var flipped []int
	for i := range snap.Installments {
		inst := &snap.Installments[i]
		switch inst.PaymentScheduleStatus {
		case model.InstallmentStatusPending, model.InstallmentStatusSent:
		default:
			continue
		}
		if IsSettled(inst, snap.RequestFor(inst)) {
			continue
		}
		if !inst.PaymentScheduleDueDate.Before(today) {
			continue
		}
		inst.PaymentScheduleStatus = model.InstallmentStatusOverdue
		flipped = append(flipped, i)
	}
	return flipped
}

// SweepOverdue runs the scheduled overdue pass for one plan. Paused and
// terminal plans are skipped entirely; a plan with nothing past due
// commits nothing. System action: no actor on the audit row.
func (e *Engine) SweepOverdue(ctx context.Context, planID uuid.UUID) (OpResult, error) {
	today := e.Today()

	var res OpResult
	err := e.store.Transact(ctx, planID, func(snap *Snapshot) (*Batch, error) {
		plan := &snap.Plan
		if plan.IsTerminal() || plan.IsPaused() {
			res = OpResult{OK: true, AffectedInstallments: 0, PlanStatus: plan.PaymentPlanStatus}
			return nil, nil
		}

		flipped := sweepSnapshot(snap, today)
		if len(flipped) == 0 {
			res = OpResult{OK: true, AffectedInstallments: 0, PlanStatus: plan.PaymentPlanStatus}
			return nil, nil
		}

		RecomputeSummary(snap, today)

		numbers := make([]int, 0, len(flipped))
		changed := make([]model.PlanInstallment, 0, len(flipped))
		for _, i := range flipped {
			numbers = append(numbers, snap.Installments[i].PaymentScheduleNumber)
			changed = append(changed, snap.Installments[i])
		}

		activity, err := newActivity(plan, model.ActivityActionOverdue, nil, dto.OverdueDetails{
			FlaggedInstallments: numbers,
		})
		if err != nil {
			return nil, err
		}

		res = OpResult{OK: true, AffectedInstallments: len(flipped), PlanStatus: plan.PaymentPlanStatus}
		return &Batch{
			Plan:         plan,
			Installments: changed,
			Activity:     activity,
		}, nil
	})
	if err != nil {
		return failure(KindOf(err)), err
	}
	return res, nil
}
