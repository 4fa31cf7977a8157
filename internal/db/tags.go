// Package db provides the transactional entity store.
package db

import (
	"database/sql"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

// CreateTag creates a tag and enqueues the create mutation.
// Tag names are unique; a duplicate name fails with ErrDuplicate.
func (s *Store) CreateTag(t *models.Tag) error {
	now := s.now().Unix()
	if t.ID == "" {
		t.ID = models.UUID(uuid.New())
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO tags (id, name, color, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Color, t.SyncStatus, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create tag", err)
		}
		return s.enqueue(tx, models.EntityTag, t.ID, models.OpCreate, t)
	})
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]*models.Tag, error) {
	rows, err := s.db.Query(`
	SELECT id, name, color, sync_status, created_at, updated_at
	FROM tags ORDER BY name`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list tags", err)
	}
	defer rows.Close()

	var out []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.SyncStatus, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan tag", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// DeleteTag deletes a tag and enqueues the mutation.
func (s *Store) DeleteTag(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM tags WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete tag", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "tag "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityTag, id, models.OpDelete, nil)
	})
}

// CreateBudget creates a budget and enqueues the create mutation.
func (s *Store) CreateBudget(b *models.Budget) error {
	now := s.now().Unix()
	if b.ID == "" {
		b.ID = models.UUID(uuid.New())
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Amount = models.CoerceAmount(b.Amount)
	b.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO budgets (id, category, amount, period_start, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Category, b.Amount, b.PeriodStart, b.SyncStatus, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create budget", err)
		}
		return s.enqueue(tx, models.EntityBudget, b.ID, models.OpCreate, b)
	})
}

// DeleteBudget deletes a budget and enqueues the mutation.
func (s *Store) DeleteBudget(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM budgets WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete budget", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "budget "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityBudget, id, models.OpDelete, nil)
	})
}
