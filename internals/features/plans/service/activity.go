// file: internals/features/plans/service/activity.go
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/dto"
	"klinikpay_backend/internals/features/plans/model"
)

// newActivity builds the single audit row a lifecycle operation commits
// with its batch. actor is nil for system actions (sweep, gateway
// reconciliation).
func newActivity(plan *model.PaymentPlan, action model.ActivityAction, actor *uuid.UUID, payload any) (*model.PaymentActivity, error) {
	details, err := dto.EncodeActivityDetails(action, payload)
	if err != nil {
		return nil, err
	}
	return &model.PaymentActivity{
		PaymentActivityID:                uuid.New(),
		PaymentActivityPlanID:            plan.PaymentPlanID,
		PaymentActivityPaymentLinkID:     plan.PaymentPlanPaymentLinkID,
		PaymentActivityPatientID:         plan.PaymentPlanPatientID,
		PaymentActivityClinicID:          plan.PaymentPlanClinicID,
		PaymentActivityActionType:        action,
		PaymentActivityPerformedByUserID: actor,
		PaymentActivityPerformedAt:       time.Now(),
		PaymentActivityDetails:           details,
	}, nil
}

// GenPaymentRef builds a human-facing payment reference,
// e.g. "PAY-20250318-143501-AB12CD34".
func GenPaymentRef() string {
	now := time.Now().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return "PAY-" + now + "-" + strings.ToUpper(u)
}
