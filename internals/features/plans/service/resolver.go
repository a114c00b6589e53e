// file: internals/features/plans/service/resolver.go
package service

import (
	"math"

	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   PLAN STATUS RESOLVER
   The single place plan status is derived from the installment set.
   Callers that are transitioning out of paused/cancelled clear the sticky
   status on the snapshot before resolving.
========================================================= */

// ResolvePlanStatus derives the aggregate status from one snapshot.
//
// paused/cancelled are sticky: they were set by an explicit operation and
// are never inferred away here. A plan with zero payments made reports
// `pending` even when its first due date has passed — the clinic is not
// alarmed before the first real billing attempt completes. (Preserved
// source behavior; flagged for product confirmation, do not "fix".)
func ResolvePlanStatus(snap *Snapshot, today dateonly.Date) model.PlanStatus {
	plan := &snap.Plan

	if plan.PaymentPlanStatus == model.PlanStatusCancelled || plan.PaymentPlanStatus == model.PlanStatusPaused {
		return plan.PaymentPlanStatus
	}

	paid := plan.PaymentPlanPaidInstallments
	if paid >= plan.PaymentPlanTotalInstallments {
		return model.PlanStatusCompleted
	}

	overdueEligible := paid > 0 || plan.PaymentPlanStatus != model.PlanStatusPending
	if overdueEligible && snap.AnyModifiablePastDue(today) {
		return model.PlanStatusOverdue
	}

	if paid == 0 {
		return model.PlanStatusPending
	}
	return model.PlanStatusActive
}

// ProgressPercent is the cached progress value: round(100 * paid / total).
func ProgressPercent(paid, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(paid) / float64(total)))
}

// RecomputeSummary refreshes every cached plan field (status, progress,
// next due date, overdue flag) from the snapshot's installment set. All
// lifecycle operations funnel through this one derivation instead of
// re-guessing status from partial queries.
func RecomputeSummary(snap *Snapshot, today dateonly.Date) {
	plan := &snap.Plan
	plan.PaymentPlanProgressPercent = ProgressPercent(plan.PaymentPlanPaidInstallments, plan.PaymentPlanTotalInstallments)
	plan.PaymentPlanNextDueDate = snap.NextDueDate()
	plan.PaymentPlanHasOverduePayments = snap.AnyModifiablePastDue(today)
	plan.PaymentPlanStatus = ResolvePlanStatus(snap, today)
	if plan.PaymentPlanStatus == model.PlanStatusCompleted || plan.PaymentPlanStatus == model.PlanStatusCancelled {
		plan.PaymentPlanNextDueDate = nil
	}
}
