// file: internals/features/plans/service/payment_ops_test.go
package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   MARK SENT
========================================================= */

func TestMarkInstallmentSent(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	res, err := e.MarkInstallmentSent(context.Background(), instID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedInstallments)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusSent, got.PaymentScheduleStatus)
	require.NotNil(t, got.PaymentSchedulePaymentRequestID)

	req, ok := store.Request(*got.PaymentSchedulePaymentRequestID)
	require.True(t, ok)
	assert.Equal(t, model.PaymentRequestStatusSent, req.PaymentRequestStatus)

	act := lastActivity(t, store, plan.PaymentPlanID)
	assert.Equal(t, model.ActivityActionReminderSent, act.PaymentActivityActionType)
}

func TestMarkInstallmentSent_Idempotent(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.MarkInstallmentSent(context.Background(), instID, nil)
	require.NoError(t, err)
	reqID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentRequestID
	before := len(store.ActivitiesOf(plan.PaymentPlanID))

	res, err := e.MarkInstallmentSent(context.Background(), instID, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 0, res.AffectedInstallments)

	// same request, no extra audit row
	assert.Equal(t, reqID, *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentRequestID)
	assert.Len(t, store.ActivitiesOf(plan.PaymentPlanID), before)
}

func TestMarkInstallmentSent_RejectsPaused(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.PausePlan(context.Background(), plan.PaymentPlanID, nil)
	require.NoError(t, err)

	_, err = e.MarkInstallmentSent(context.Background(), instID, nil)
	assert.Equal(t, ErrorKindNoModifiableInstallments, KindOf(err))
}

/* =========================================================
   MANUAL PAYMENT
========================================================= */

func TestRecordManualPayment(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 3, fixedToday())
	insts := store.InstallmentsOf(plan.PaymentPlanID)

	res, err := e.RecordManualPayment(context.Background(), insts[0].PaymentScheduleID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PlanStatusActive, res.PlanStatus)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusPaid, got.PaymentScheduleStatus)
	require.NotNil(t, got.PaymentSchedulePaymentID)

	pay, ok := store.Payment(*got.PaymentSchedulePaymentID)
	require.True(t, ok)
	assert.True(t, pay.PaymentManualPayment)
	assert.Equal(t, testAmountCents, pay.PaymentAmountPaidCents)
	assert.True(t, strings.HasPrefix(pay.PaymentRef, "PAY-"))

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, 1, p.PaymentPlanPaidInstallments)
	assert.Equal(t, 33, p.PaymentPlanProgressPercent)
}

func TestRecordManualPayment_AlreadySettled(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)

	_, err = e.RecordManualPayment(context.Background(), instID, nil)
	assert.Equal(t, ErrorKindInstallmentAlreadySettled, KindOf(err))
}

func TestRecordManualPayment_CancelledInstallment(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.CancelPlan(context.Background(), plan.PaymentPlanID, nil)
	require.NoError(t, err)

	_, err = e.RecordManualPayment(context.Background(), instID, nil)
	assert.Equal(t, ErrorKindInstallmentCancelled, KindOf(err))
}

func TestRecordManualPayment_LastInstallmentCompletes(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())

	for _, inst := range store.InstallmentsOf(plan.PaymentPlanID) {
		_, err := e.RecordManualPayment(context.Background(), inst.PaymentScheduleID, nil)
		require.NoError(t, err)
	}

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, model.PlanStatusCompleted, p.PaymentPlanStatus)
	assert.Equal(t, 100, p.PaymentPlanProgressPercent)
	assert.Nil(t, p.PaymentPlanNextDueDate)
}

/* =========================================================
   GATEWAY RECONCILIATION
========================================================= */

func TestReconcilePaymentSuccess(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.MarkInstallmentSent(context.Background(), instID, nil)
	require.NoError(t, err)
	reqID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentRequestID

	paidAt := time.Date(2025, time.June, 14, 10, 30, 0, 0, time.UTC)
	res, err := e.ReconcilePaymentSuccess(context.Background(), reqID, "MT-ORDER-123", paidAt)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedInstallments)
	assert.Equal(t, model.PlanStatusActive, res.PlanStatus)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusPaid, got.PaymentScheduleStatus)
	require.NotNil(t, got.PaymentSchedulePaymentID)

	pay, _ := store.Payment(*got.PaymentSchedulePaymentID)
	assert.False(t, pay.PaymentManualPayment)
	assert.Equal(t, "MT-ORDER-123", pay.PaymentRef)
	assert.True(t, pay.PaymentPaidAt.Equal(paidAt))

	req, _ := store.Request(reqID)
	assert.Equal(t, model.PaymentRequestStatusPaid, req.PaymentRequestStatus)
	assert.Equal(t, got.PaymentSchedulePaymentID, req.PaymentRequestPaymentID)

	// system action: no actor on the audit row
	act := lastActivity(t, store, plan.PaymentPlanID)
	assert.Equal(t, model.ActivityActionPaymentMade, act.PaymentActivityActionType)
	assert.Nil(t, act.PaymentActivityPerformedByUserID)
}

func TestReconcilePaymentSuccess_RetryIsIdempotent(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.MarkInstallmentSent(context.Background(), instID, nil)
	require.NoError(t, err)
	reqID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentRequestID

	_, err = e.ReconcilePaymentSuccess(context.Background(), reqID, "MT-1", time.Now())
	require.NoError(t, err)
	firstPayID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID
	before := len(store.ActivitiesOf(plan.PaymentPlanID))

	res, err := e.ReconcilePaymentSuccess(context.Background(), reqID, "MT-1", time.Now())
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 0, res.AffectedInstallments)

	assert.Equal(t, firstPayID, *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID)
	assert.Len(t, store.ActivitiesOf(plan.PaymentPlanID), before)

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, 1, p.PaymentPlanPaidInstallments)
}

/* =========================================================
   REFUNDS
========================================================= */

func TestRecordRefund_Full(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)
	payID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID

	res, err := e.RecordRefund(context.Background(), payID, testAmountCents, true, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusRefunded, got.PaymentScheduleStatus)

	pay, _ := store.Payment(payID)
	assert.Equal(t, model.PaymentStatusRefunded, pay.PaymentStatus)
	require.NotNil(t, pay.PaymentRefundAmountCents)
	assert.Equal(t, testAmountCents, *pay.PaymentRefundAmountCents)
	assert.NotNil(t, pay.PaymentRefundedAt)

	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, 0, p.PaymentPlanPaidInstallments)
	assert.Equal(t, 0, p.PaymentPlanProgressPercent)
}

func TestRecordRefund_Partial(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)
	payID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID

	_, err = e.RecordRefund(context.Background(), payID, testAmountCents/2, false, nil)
	require.NoError(t, err)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusPartiallyRefunded, got.PaymentScheduleStatus)

	pay, _ := store.Payment(payID)
	assert.Equal(t, model.PaymentStatusPartiallyRefunded, pay.PaymentStatus)

	// partial refunds keep the installment counted as collected
	p, _ := store.Plan(plan.PaymentPlanID)
	assert.Equal(t, 1, p.PaymentPlanPaidInstallments)
}

func TestRecordRefund_RejectsNonPositiveAmount(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)
	payID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID

	_, err = e.RecordRefund(context.Background(), payID, 0, true, nil)
	assert.Equal(t, ErrorKindInvalidArgument, KindOf(err))
	_, err = e.RecordRefund(context.Background(), payID, -100, false, nil)
	assert.Equal(t, ErrorKindInvalidArgument, KindOf(err))

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusPaid, got.PaymentScheduleStatus)
}

func TestRecordRefund_DemotesCompletedPlan(t *testing.T) {
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())

	for _, inst := range store.InstallmentsOf(plan.PaymentPlanID) {
		_, err := e.RecordManualPayment(context.Background(), inst.PaymentScheduleID, nil)
		require.NoError(t, err)
	}
	p, _ := store.Plan(plan.PaymentPlanID)
	require.Equal(t, model.PlanStatusCompleted, p.PaymentPlanStatus)

	payID := *store.InstallmentsOf(plan.PaymentPlanID)[1].PaymentSchedulePaymentID
	_, err := e.RecordRefund(context.Background(), payID, testAmountCents, true, nil)
	require.NoError(t, err)

	p, _ = store.Plan(plan.PaymentPlanID)
	assert.Equal(t, model.PlanStatusActive, p.PaymentPlanStatus)
	assert.Equal(t, 1, p.PaymentPlanPaidInstallments)
	assert.Equal(t, 50, p.PaymentPlanProgressPercent)
}

func TestRecordRefund_SettledInstallmentStaysOffLimits(t *testing.T) {
	// after a refund the installment is history, not schedule: lifecycle
	// operations must leave it alone
	e, store := newTestEngine(t)
	plan := mustCreatePlan(t, e, 2, fixedToday())
	instID := store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentScheduleID

	_, err := e.RecordManualPayment(context.Background(), instID, nil)
	require.NoError(t, err)
	payID := *store.InstallmentsOf(plan.PaymentPlanID)[0].PaymentSchedulePaymentID
	_, err = e.RecordRefund(context.Background(), payID, testAmountCents, true, nil)
	require.NoError(t, err)

	res, err := e.CancelPlan(context.Background(), plan.PaymentPlanID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AffectedInstallments)

	got := store.InstallmentsOf(plan.PaymentPlanID)[0]
	assert.Equal(t, model.InstallmentStatusRefunded, got.PaymentScheduleStatus)
}
