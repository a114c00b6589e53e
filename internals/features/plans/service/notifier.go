// file: internals/features/plans/service/notifier.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   NOTIFICATION CONTRACT
   The engine only emits a well-formed event; delivery (email/SMS/queue)
   belongs to an external dispatcher. Emission happens after commit,
   bounded by a timeout, and a delivery failure never fails the operation
   that produced it.
========================================================= */

type NotificationKind string

const (
	NotificationKindPaymentMade       NotificationKind = "payment_made"
	NotificationKindReminderSent      NotificationKind = "reminder_sent"
	NotificationKindPlanStatusChanged NotificationKind = "plan_status_changed"
)

type NotificationEvent struct {
	PlanID        uuid.UUID        `json:"plan_id"`
	PatientID     uuid.UUID        `json:"patient_id"`
	InstallmentID uuid.UUID        `json:"installment_id,omitempty"`
	Kind          NotificationKind `json:"kind"`
	AmountCents   int              `json:"amount_cents"`
	DueDate       dateonly.Date    `json:"due_date"`

	// Channel gating: each recipient channel is independently enabled by
	// contact-info availability. Filled in by dispatch, after commit.
	RecipientHasEmail bool `json:"recipient_has_email"`
	RecipientHasPhone bool `json:"recipient_has_phone"`
}

type Notifier interface {
	Notify(ctx context.Context, ev NotificationEvent) error
}

// ContactDirectory answers whether a patient has reachable contact info.
// External collaborator; the noop default reports no channels.
type ContactDirectory interface {
	ContactFlags(ctx context.Context, patientID uuid.UUID) (hasEmail, hasPhone bool)
}

const defaultNotifyTimeout = 3 * time.Second

// dispatch fires the event post-commit. The contact-directory lookup runs
// here too, never inside a store transaction, so a slow directory can only
// delay the notification, not the commit. Fire-and-forget: timeouts and
// errors are logged as notification_delivery_failed and swallowed.
func (e *Engine) dispatch(ev NotificationEvent) {
	if e.notifier == nil {
		return
	}
	timeout := e.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ev.RecipientHasEmail, ev.RecipientHasPhone = e.contactFlags(ctx, ev.PatientID)
	if err := e.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[WARN] %s plan=%s kind=%s: %v", ErrorKindNotificationDeliveryFailed, ev.PlanID, ev.Kind, err)
	}
}

func (e *Engine) contactFlags(ctx context.Context, patientID uuid.UUID) (bool, bool) {
	if e.contacts == nil {
		return false, false
	}
	return e.contacts.ContactFlags(ctx, patientID)
}
