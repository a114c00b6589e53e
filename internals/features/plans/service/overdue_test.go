// file: internals/features/plans/service/overdue_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klinikpay_backend/internals/features/plans/model"
)

func TestSweepOverdue_FlagsPastDue(t *testing.T) {
	e, store := newTestEngine(t)
	// monthly from 40 days ago: installments 1 and 2 are past due
	plan := mustCreatePlan(t, e, 3, fixedToday().AddDays(-40))
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)

	res, err := e.SweepOverdue(context.Background(), plan.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedInstallments)
	assert.Equal(t, model.PlanStatusOverdue, res.PlanStatus)

	got := store.InstallmentsOf(plan.PaymentPlanID)
	assert.Equal(t, model.InstallmentStatusPaid, got[0].PaymentScheduleStatus)
	assert.Equal(t, model.InstallmentStatusOverdue, got[1].PaymentScheduleStatus)
	assert.Equal(t, model.InstallmentStatusPending, got[2].PaymentScheduleStatus)

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.True(t, p.PaymentPlanHasOverduePayments)

	act := lastActivity(t, store, plan.PaymentPlanID)
	assert.Equal(t, model.ActivityActionOverdue, act.PaymentActivityActionType)
}

func TestSweepOverdue_PendingPlanKeepsPendingStatus(t *testing.T) {
	// no payment has ever landed: installments get flagged but the plan
	// itself stays pending until the first collection
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday().AddDays(-10))

	res, err := e.SweepOverdue(context.Background(), plan.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedInstallments)
	assert.Equal(t, model.PlanStatusPending, res.PlanStatus)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusOverdue, got.PaymentScheduleStatus)

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, model.PlanStatusPending, p.PaymentPlanStatus)
	assert.True(t, p.PaymentPlanHasOverduePayments)
}

func TestSweepOverdue_SkipsPausedAndCancelled(t *testing.T) {
	e, store := newTestEngine(t)

	paused := mustCreatePlan(t, e, 2, fixedToday().AddDays(-10))
	_, err := e.PausePlan(context.Background(), paused.PaymentPlanID, nil)
	require.NoError(t, err)

	res, err := e.SweepOverdue(context.Background(), paused.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AffectedInstallments)
	assert.Equal(t, model.PlanStatusPaused, res.PlanStatus)

	cancelled := mustCreatePlan(t, e, 2, fixedToday().AddDays(-10))
	_, err = e.CancelPlan(context.Background(), cancelled.PaymentPlanID, nil)
	require.NoError(t, err)

	res, err = e.SweepOverdue(context.Background(), cancelled.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AffectedInstallments)
	assert.Equal(t, model.PlanStatusCancelled, res.PlanStatus)

	for _, inst := range store.InstallmentsOf(paused.PaymentPlanID) {
		assert.Equal(t, model.InstallmentStatusPaused, inst.PaymentScheduleStatus)
	}
}

func TestSweepOverdue_NothingDueCommitsNothing(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday().AddDays(5))
	before := len(store.ActivitiesOf(plan.PaymentPlanID))

	res, err := e.SweepOverdue(context.Background(), plan.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AffectedInstallments)

	// no audit row for a no-op sweep
	assert.Len(t, store.ActivitiesOf(plan.PaymentPlanID), before)
}

func TestSweepOverdue_IsIdempotent(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday().AddDays(-10))

	_, err := e.SweepOverdue(context.Background(), plan.PaymentPlanID)
	require.NoError(t, err)
	before := len(store.ActivitiesOf(plan.PaymentPlanID))

	res, err := e.SweepOverdue(context.Background(), plan.PaymentPlanID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AffectedInstallments)
	assert.Len(t, store.ActivitiesOf(plan.PaymentPlanID), before)
}
