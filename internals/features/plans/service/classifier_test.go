// file: internals/features/plans/service/classifier_test.go
package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"klinikpay_backend/internals/features/plans/model"
)

func TestIsSettled(t *testing.T) {
	reqID := uuid.New()
	payID := uuid.New()

	realized := &model.PaymentRequest{
		PaymentRequestID:        reqID,
		PaymentRequestStatus:    model.PaymentRequestStatusPaid,
		PaymentRequestPaymentID: &payID,
	}
	unrealized := &model.PaymentRequest{
		PaymentRequestID:     reqID,
		PaymentRequestStatus: model.PaymentRequestStatusSent,
	}

	tests := []struct {
		name    string
		inst    model.PlanInstallment
		req     *model.PaymentRequest
		settled bool
	}{
		{
			name:    "pending, no request",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusPending},
			settled: false,
		},
		{
			name: "sent with unrealized request stays modifiable",
			inst: model.PlanInstallment{
				PaymentScheduleStatus:           model.InstallmentStatusSent,
				PaymentSchedulePaymentRequestID: &reqID,
			},
			req:     unrealized,
			settled: false,
		},
		{
			name: "sent with realized request",
			inst: model.PlanInstallment{
				PaymentScheduleStatus:           model.InstallmentStatusSent,
				PaymentSchedulePaymentRequestID: &reqID,
			},
			req:     realized,
			settled: true,
		},
		{
			name: "sent with dangling request link",
			inst: model.PlanInstallment{
				PaymentScheduleStatus:           model.InstallmentStatusSent,
				PaymentSchedulePaymentRequestID: &reqID,
			},
			req:     nil,
			settled: false,
		},
		{
			name: "manually paid, no request at all",
			inst: model.PlanInstallment{
				PaymentScheduleStatus:    model.InstallmentStatusPaid,
				PaymentSchedulePaymentID: &payID,
			},
			settled: true,
		},
		{
			name: "paid status but nothing realized",
			inst: model.PlanInstallment{
				PaymentScheduleStatus: model.InstallmentStatusPaid,
			},
			settled: false,
		},
		{
			name:    "overdue is modifiable",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusOverdue},
			settled: false,
		},
		{
			name:    "paused is modifiable",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusPaused},
			settled: false,
		},
		{
			name:    "cancelled is not settled",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusCancelled},
			settled: false,
		},
		{
			name:    "refunded is history",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusRefunded},
			settled: true,
		},
		{
			name:    "partially refunded is history",
			inst:    model.PlanInstallment{PaymentScheduleStatus: model.InstallmentStatusPartiallyRefunded},
			settled: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.settled, IsSettled(&tc.inst, tc.req))
			assert.Equal(t, !tc.settled, IsModifiable(&tc.inst, tc.req))
		})
	}
}
