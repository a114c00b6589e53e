// file: internals/features/plans/service/memory_store.go
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   IN-MEMORY PLAN STORE
   Mutex-serialized PlanStore used by tests and local tooling. Enforces the
   same write-time guard as the SQL store: cancelling a request whose
   payment_id is already set fails the whole batch with store_conflict.
========================================================= */

type MemoryPlanStore struct {
	mu sync.Mutex

	plans        map[uuid.UUID]*model.PaymentPlan
	installments map[uuid.UUID][]model.PlanInstallment // keyed by plan id
	requests     map[uuid.UUID]*model.PaymentRequest
	payments     map[uuid.UUID]*model.Payment
	activities   map[uuid.UUID][]model.PaymentActivity // keyed by plan id
}

func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{
		plans:        make(map[uuid.UUID]*model.PaymentPlan),
		installments: make(map[uuid.UUID][]model.PlanInstallment),
		requests:     make(map[uuid.UUID]*model.PaymentRequest),
		payments:     make(map[uuid.UUID]*model.Payment),
		activities:   make(map[uuid.UUID][]model.PaymentActivity),
	}
}

func (s *MemoryPlanStore) CreatePlan(ctx context.Context, plan *model.PaymentPlan, installments []model.PlanInstallment, activity *model.PaymentActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *plan
	s.plans[p.PaymentPlanID] = &p
	rows := make([]model.PlanInstallment, len(installments))
	copy(rows, installments)
	s.installments[p.PaymentPlanID] = rows
	if activity != nil {
		s.activities[p.PaymentPlanID] = append(s.activities[p.PaymentPlanID], *activity)
	}
	return nil
}

// snapshotLocked builds a deep copy of the aggregate; fn mutations never
// leak into the store unless the batch commits.
func (s *MemoryPlanStore) snapshotLocked(planID uuid.UUID) (*Snapshot, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, Errf(ErrorKindPlanNotFound, "plan %s not found", planID)
	}

	snap := &Snapshot{
		Plan:     *plan,
		Requests: make(map[uuid.UUID]*model.PaymentRequest),
		Payments: make(map[uuid.UUID]*model.Payment),
	}
	snap.Installments = make([]model.PlanInstallment, len(s.installments[planID]))
	copy(snap.Installments, s.installments[planID])
	sort.Slice(snap.Installments, func(i, j int) bool {
		return snap.Installments[i].PaymentScheduleNumber < snap.Installments[j].PaymentScheduleNumber
	})

	for i := range snap.Installments {
		inst := &snap.Installments[i]
		if id := inst.PaymentSchedulePaymentRequestID; id != nil {
			if req, ok := s.requests[*id]; ok {
				r := *req
				snap.Requests[*id] = &r
			}
		}
		if id := inst.PaymentSchedulePaymentID; id != nil {
			if pay, ok := s.payments[*id]; ok {
				p := *pay
				snap.Payments[*id] = &p
			}
		}
	}
	return snap, nil
}

func (s *MemoryPlanStore) Transact(ctx context.Context, planID uuid.UUID, fn func(snap *Snapshot) (*Batch, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshotLocked(planID)
	if err != nil {
		return err
	}
	batch, err := fn(snap)
	if err != nil {
		return err
	}
	if batch == nil {
		return nil
	}

	// Write-time guard first: the batch applies all-or-nothing.
	for _, id := range batch.CancelRequestIDs {
		req, ok := s.requests[id]
		if !ok {
			return Errf(ErrorKindStoreConflict, "request %s not found", id)
		}
		if req.PaymentRequestPaymentID != nil {
			return Errf(ErrorKindStoreConflict, "request %s was paid concurrently", id)
		}
	}

	for _, id := range batch.CancelRequestIDs {
		s.requests[id].PaymentRequestStatus = model.PaymentRequestStatusCancelled
	}
	for _, req := range batch.NewRequests {
		r := req
		s.requests[r.PaymentRequestID] = &r
	}
	for _, req := range batch.PaidRequests {
		r := req
		s.requests[r.PaymentRequestID] = &r
	}
	for _, pay := range batch.NewPayments {
		p := pay
		s.payments[p.PaymentID] = &p
	}
	for _, pay := range batch.UpdatedPayments {
		p := pay
		s.payments[p.PaymentID] = &p
	}
	if batch.Plan != nil {
		p := *batch.Plan
		s.plans[p.PaymentPlanID] = &p
	}
	if len(batch.Installments) > 0 {
		rows := s.installments[planID]
		for _, upd := range batch.Installments {
			for i := range rows {
				if rows[i].PaymentScheduleID == upd.PaymentScheduleID {
					rows[i] = upd
					break
				}
			}
		}
		s.installments[planID] = rows
	}
	if batch.Activity != nil {
		s.activities[planID] = append(s.activities[planID], *batch.Activity)
	}
	return nil
}

func (s *MemoryPlanStore) LoadSnapshot(ctx context.Context, planID uuid.UUID) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(planID)
}

func (s *MemoryPlanStore) FindPlanIDByInstallment(ctx context.Context, installmentID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for planID, rows := range s.installments {
		for i := range rows {
			if rows[i].PaymentScheduleID == installmentID {
				return planID, nil
			}
		}
	}
	return uuid.Nil, Errf(ErrorKindInstallmentNotFound, "installment %s not found", installmentID)
}

func (s *MemoryPlanStore) FindPlanIDByPayment(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for planID, rows := range s.installments {
		for i := range rows {
			if rows[i].PaymentSchedulePaymentID != nil && *rows[i].PaymentSchedulePaymentID == paymentID {
				return planID, nil
			}
		}
	}
	return uuid.Nil, Errf(ErrorKindPaymentNotFound, "payment %s not found", paymentID)
}

func (s *MemoryPlanStore) FindPlanIDByRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for planID, rows := range s.installments {
		for i := range rows {
			if rows[i].PaymentSchedulePaymentRequestID != nil && *rows[i].PaymentSchedulePaymentRequestID == requestID {
				return planID, nil
			}
		}
	}
	return uuid.Nil, Errf(ErrorKindPlanNotFound, "no installment linked to request %s", requestID)
}

/* =========================================================
   TEST/SEED ACCESSORS
========================================================= */

// PutRequest seeds or overwrites a request row directly.
func (s *MemoryPlanStore) PutRequest(req model.PaymentRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := req
	s.requests[r.PaymentRequestID] = &r
}

// PutPayment seeds or overwrites a payment row directly.
func (s *MemoryPlanStore) PutPayment(pay model.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pay
	s.payments[p.PaymentID] = &p
}

// PutInstallment overwrites one installment row of an existing plan.
func (s *MemoryPlanStore) PutInstallment(inst model.PlanInstallment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.installments[inst.PaymentSchedulePlanID]
	for i := range rows {
		if rows[i].PaymentScheduleID == inst.PaymentScheduleID {
			rows[i] = inst
			return
		}
	}
}

// Plan returns a copy of the stored plan row.
func (s *MemoryPlanStore) Plan(planID uuid.UUID) (model.PaymentPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[planID]
	if !ok {
		return model.PaymentPlan{}, false
	}
	return *p, true
}

// Installments returns copies ordered by installment number.
func (s *MemoryPlanStore) InstallmentsOf(planID uuid.UUID) []model.PlanInstallment {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]model.PlanInstallment, len(s.installments[planID]))
	copy(rows, s.installments[planID])
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].PaymentScheduleNumber < rows[j].PaymentScheduleNumber
	})
	return rows
}

// Request returns a copy of one request row.
func (s *MemoryPlanStore) Request(id uuid.UUID) (model.PaymentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return model.PaymentRequest{}, false
	}
	return *r, true
}

// Payment returns a copy of one payment row.
func (s *MemoryPlanStore) Payment(id uuid.UUID) (model.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return model.Payment{}, false
	}
	return *p, true
}

// ActivitiesOf returns the audit rows of a plan in insertion order.
func (s *MemoryPlanStore) ActivitiesOf(planID uuid.UUID) []model.PaymentActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]model.PaymentActivity, len(s.activities[planID]))
	copy(rows, s.activities[planID])
	return rows
}
