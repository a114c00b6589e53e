// file: internals/features/plans/service/schedule.go
package service

import (
	"klinikpay_backend/internals/features/plans/model"
	"klinikpay_backend/internals/helpers/dateonly"
)

/* =========================================================
   SCHEDULE GENERATOR — pure date math, no wall clock
========================================================= */

// Advance returns start moved forward by `periods` steps of the cadence.
// Month/quarter/year steps always count from the original start date, so
// a plan starting Jan 31 bills Jan 31 / Feb 28(+rollover) / Mar 31 rather
// than drifting; rollover follows standard calendar normalization.
func Advance(start dateonly.Date, freq model.PlanFrequency, periods int) (dateonly.Date, error) {
	switch freq {
	case model.FrequencyDaily:
		return start.AddDays(periods), nil
	case model.FrequencyWeekly:
		return start.AddDays(7 * periods), nil
	case model.FrequencyBiweekly:
		return start.AddDays(14 * periods), nil
	case model.FrequencyMonthly:
		return start.AddMonths(periods), nil
	case model.FrequencyQuarterly:
		return start.AddMonths(3 * periods), nil
	case model.FrequencyYearly:
		return start.AddYears(periods), nil
	default:
		return dateonly.Date{}, Errf(ErrorKindInvalidCadence, "unknown frequency %q", freq)
	}
}

// GenerateSchedule builds the ordered installment series for a plan.
// Deterministic: same inputs, same series. Tenancy fields (plan/clinic/
// patient ids) are filled in by the caller.
func GenerateSchedule(start dateonly.Date, freq model.PlanFrequency, count, amountCents int) ([]model.PlanInstallment, error) {
	if count < 1 {
		return nil, Errf(ErrorKindInvalidArgument, "installment count must be positive, got %d", count)
	}
	if !model.ValidFrequency(freq) {
		return nil, Errf(ErrorKindInvalidCadence, "unknown frequency %q", freq)
	}

	out := make([]model.PlanInstallment, 0, count)
	for i := 0; i < count; i++ {
		due, err := Advance(start, freq, i)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PlanInstallment{
			PaymentScheduleAmountCents:   amountCents,
			PaymentScheduleDueDate:       due,
			PaymentScheduleNumber:        i + 1,
			PaymentScheduleTotalPayments: count,
			PaymentScheduleStatus:        model.InstallmentStatusPending,
		})
	}
	return out, nil
}
