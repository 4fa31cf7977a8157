// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

const subscriptionCols = `id, name, amount, billing_cycle, next_renewal, active,
	sync_status, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.Name, &sub.Amount, &sub.BillingCycle, &sub.NextRenewal,
		&sub.Active, &sub.SyncStatus, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription creates a subscription and enqueues the create
// mutation.
func (s *Store) CreateSubscription(sub *models.Subscription) error {
	now := s.now().Unix()
	if sub.ID == "" {
		sub.ID = models.UUID(uuid.New())
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now
	sub.Amount = models.CoerceAmount(sub.Amount)
	sub.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO subscriptions (`+subscriptionCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.Name, sub.Amount, sub.BillingCycle, sub.NextRenewal,
			sub.Active, sub.SyncStatus, sub.CreatedAt, sub.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create subscription", err)
		}
		return s.enqueue(tx, models.EntitySubscription, sub.ID, models.OpCreate, sub)
	})
}

// GetSubscription retrieves a subscription by id.
func (s *Store) GetSubscription(id models.UUID) (*models.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(
		"SELECT "+subscriptionCols+" FROM subscriptions WHERE id = ?", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "subscription "+id.String()+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get subscription", err)
	}
	return sub, nil
}

// SubscriptionUpdate carries the fields of a partial subscription update.
type SubscriptionUpdate struct {
	Name         *string
	Amount       *float64
	BillingCycle *string
	NextRenewal  *int64
	Active       *bool
}

// UpdateSubscription applies a partial update and enqueues the mutation.
func (s *Store) UpdateSubscription(id models.UUID, upd SubscriptionUpdate) (*models.Subscription, error) {
	var out *models.Subscription
	err := s.withTx(func(tx *sql.Tx) error {
		sub, err := scanSubscription(tx.QueryRow(
			"SELECT "+subscriptionCols+" FROM subscriptions WHERE id = ?", id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "subscription "+id.String()+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get subscription", err)
		}

		if upd.Name != nil {
			sub.Name = *upd.Name
		}
		if upd.Amount != nil {
			sub.Amount = *upd.Amount
		}
		if upd.BillingCycle != nil {
			sub.BillingCycle = *upd.BillingCycle
		}
		if upd.NextRenewal != nil {
			sub.NextRenewal = *upd.NextRenewal
		}
		if upd.Active != nil {
			sub.Active = *upd.Active
		}
		sub.Amount = models.CoerceAmount(sub.Amount)
		sub.UpdatedAt = s.now().Unix()
		sub.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE subscriptions SET name = ?, amount = ?, billing_cycle = ?,
			next_renewal = ?, active = ?, sync_status = ?, updated_at = ?
		WHERE id = ?`,
			sub.Name, sub.Amount, sub.BillingCycle, sub.NextRenewal,
			sub.Active, sub.SyncStatus, sub.UpdatedAt, sub.ID)
		if err != nil {
			return wrapWriteErr("failed to update subscription", err)
		}

		out = sub
		return s.enqueue(tx, models.EntitySubscription, sub.ID, models.OpUpdate, sub)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSubscription deletes a subscription and enqueues the mutation.
func (s *Store) DeleteSubscription(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM subscriptions WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete subscription", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "subscription "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntitySubscription, id, models.OpDelete, nil)
	})
}
