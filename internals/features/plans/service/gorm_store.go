// file: internals/features/plans/service/gorm_store.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"klinikpay_backend/internals/features/plans/model"
)

/* =========================================================
   GORM PLAN STORE
   Postgres-backed PlanStore. Mutual exclusion per plan comes from
   SELECT ... FOR UPDATE on the plan row; the whole read-modify-write runs
   inside one transaction.
========================================================= */

type GormPlanStore struct {
	DB *gorm.DB
}

func NewGormPlanStore(db *gorm.DB) *GormPlanStore {
	return &GormPlanStore{DB: db}
}

func (s *GormPlanStore) CreatePlan(ctx context.Context, plan *model.PaymentPlan, installments []model.PlanInstallment, activity *model.PaymentActivity) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		if len(installments) > 0 {
			if err := tx.Create(&installments).Error; err != nil {
				return err
			}
		}
		if activity != nil {
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// loadSnapshotTx reads the whole aggregate inside tx. When lock is true the
// plan row is taken FOR UPDATE, serializing lifecycle operations per plan.
func loadSnapshotTx(tx *gorm.DB, planID uuid.UUID, lock bool) (*Snapshot, error) {
	snap := &Snapshot{
		Requests: make(map[uuid.UUID]*model.PaymentRequest),
		Payments: make(map[uuid.UUID]*model.Payment),
	}

	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&snap.Plan, "payment_plan_id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errf(ErrorKindPlanNotFound, "plan %s not found", planID)
		}
		return nil, err
	}

	if err := tx.
		Where("payment_schedule_plan_id = ?", planID).
		Order("payment_schedule_number ASC").
		Find(&snap.Installments).Error; err != nil {
		return nil, err
	}

	var reqIDs, payIDs []uuid.UUID
	for i := range snap.Installments {
		if id := snap.Installments[i].PaymentSchedulePaymentRequestID; id != nil {
			reqIDs = append(reqIDs, *id)
		}
		if id := snap.Installments[i].PaymentSchedulePaymentID; id != nil {
			payIDs = append(payIDs, *id)
		}
	}
	if len(reqIDs) > 0 {
		var reqs []model.PaymentRequest
		if err := tx.Where("payment_request_id IN ?", reqIDs).Find(&reqs).Error; err != nil {
			return nil, err
		}
		for i := range reqs {
			snap.Requests[reqs[i].PaymentRequestID] = &reqs[i]
		}
	}
	if len(payIDs) > 0 {
		var pays []model.Payment
		if err := tx.Where("payment_id IN ?", payIDs).Find(&pays).Error; err != nil {
			return nil, err
		}
		for i := range pays {
			snap.Payments[pays[i].PaymentID] = &pays[i]
		}
	}
	return snap, nil
}

func (s *GormPlanStore) Transact(ctx context.Context, planID uuid.UUID, fn func(snap *Snapshot) (*Batch, error)) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := loadSnapshotTx(tx, planID, true)
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
		return applyBatchTx(tx, batch)
	})
}

func applyBatchTx(tx *gorm.DB, batch *Batch) error {
	// Guarded cancel: the predicate re-checks that no payment landed on the
	// request since the snapshot was taken. Losing the race aborts the batch.
	for _, id := range batch.CancelRequestIDs {
		res := tx.Model(&model.PaymentRequest{}).
			Where("payment_request_id = ? AND payment_request_payment_id IS NULL", id).
			Update("payment_request_status", model.PaymentRequestStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return Errf(ErrorKindStoreConflict, "request %s was paid concurrently", id)
		}
	}

	for i := range batch.NewRequests {
		if err := tx.Create(&batch.NewRequests[i]).Error; err != nil {
			return err
		}
	}
	for i := range batch.PaidRequests {
		if err := tx.Save(&batch.PaidRequests[i]).Error; err != nil {
			return err
		}
	}
	for i := range batch.NewPayments {
		if err := tx.Create(&batch.NewPayments[i]).Error; err != nil {
			return err
		}
	}
	for i := range batch.UpdatedPayments {
		if err := tx.Save(&batch.UpdatedPayments[i]).Error; err != nil {
			return err
		}
	}
	for i := range batch.Installments {
		if err := tx.Save(&batch.Installments[i]).Error; err != nil {
			return err
		}
	}
	if batch.Plan != nil {
		if err := tx.Save(batch.Plan).Error; err != nil {
			return err
		}
	}
	if batch.Activity != nil {
		if err := tx.Create(batch.Activity).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *GormPlanStore) LoadSnapshot(ctx context.Context, planID uuid.UUID) (*Snapshot, error) {
	return loadSnapshotTx(s.DB.WithContext(ctx), planID, false)
}

func (s *GormPlanStore) FindPlanIDByInstallment(ctx context.Context, installmentID uuid.UUID) (uuid.UUID, error) {
	var inst model.PlanInstallment
	err := s.DB.WithContext(ctx).
		Select("payment_schedule_plan_id").
		First(&inst, "payment_schedule_id = ?", installmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, Errf(ErrorKindInstallmentNotFound, "installment %s not found", installmentID)
		}
		return uuid.Nil, err
	}
	return inst.PaymentSchedulePlanID, nil
}

func (s *GormPlanStore) FindPlanIDByPayment(ctx context.Context, paymentID uuid.UUID) (uuid.UUID, error) {
	var inst model.PlanInstallment
	err := s.DB.WithContext(ctx).
		Select("payment_schedule_plan_id").
		First(&inst, "payment_schedule_payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, Errf(ErrorKindPaymentNotFound, "payment %s not found", paymentID)
		}
		return uuid.Nil, err
	}
	return inst.PaymentSchedulePlanID, nil
}

func (s *GormPlanStore) FindPlanIDByRequest(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	var inst model.PlanInstallment
	err := s.DB.WithContext(ctx).
		Select("payment_schedule_plan_id").
		First(&inst, "payment_schedule_payment_request_id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, Errf(ErrorKindPlanNotFound, "no installment linked to request %s", requestID)
		}
		return uuid.Nil, err
	}
	return inst.PaymentSchedulePlanID, nil
}
