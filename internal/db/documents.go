// Package db provides the transactional entity store.
package db

import (
	"database/sql"
	stderrors "errors"

	apperrors "github.com/yihsuanlo/homevault/backend/internal/errors"
	"github.com/yihsuanlo/homevault/backend/internal/models"
	"github.com/yihsuanlo/homevault/backend/internal/uuid"
)

const documentCols = `id, title, file_path, mime_type, tags, sync_status, created_at, updated_at`

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID, &d.Title, &d.FilePath, &d.MimeType, &d.Tags,
		&d.SyncStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument creates a document and enqueues the create mutation.
func (s *Store) CreateDocument(d *models.Document) error {
	now := s.now().Unix()
	if d.ID == "" {
		d.ID = models.UUID(uuid.New())
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	d.SyncStatus = models.SyncStatusPending

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
		INSERT INTO documents (`+documentCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Title, d.FilePath, d.MimeType, d.Tags,
			d.SyncStatus, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return wrapWriteErr("failed to create document", err)
		}
		return s.enqueue(tx, models.EntityDocument, d.ID, models.OpCreate, d)
	})
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(id models.UUID) (*models.Document, error) {
	d, err := scanDocument(s.db.QueryRow(
		"SELECT "+documentCols+" FROM documents WHERE id = ?", id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "document "+id.String()+" not found", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get document", err)
	}
	return d, nil
}

// DocumentUpdate carries the fields of a partial document update.
type DocumentUpdate struct {
	Title    *string
	FilePath *string
	MimeType *string
	Tags     *string
}

// UpdateDocument applies a partial update and enqueues the mutation.
func (s *Store) UpdateDocument(id models.UUID, upd DocumentUpdate) (*models.Document, error) {
	var out *models.Document
	err := s.withTx(func(tx *sql.Tx) error {
		d, err := scanDocument(tx.QueryRow(
			"SELECT "+documentCols+" FROM documents WHERE id = ?", id))
		if stderrors.Is(err, sql.ErrNoRows) {
			return apperrors.Wrap(apperrors.ErrNotFound, "document "+id.String()+" not found", err)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get document", err)
		}

		if upd.Title != nil {
			d.Title = *upd.Title
		}
		if upd.FilePath != nil {
			d.FilePath = *upd.FilePath
		}
		if upd.MimeType != nil {
			d.MimeType = *upd.MimeType
		}
		if upd.Tags != nil {
			d.Tags = *upd.Tags
		}
		d.UpdatedAt = s.now().Unix()
		d.SyncStatus = models.SyncStatusPending

		_, err = tx.Exec(`
		UPDATE documents SET title = ?, file_path = ?, mime_type = ?, tags = ?,
			sync_status = ?, updated_at = ?
		WHERE id = ?`,
			d.Title, d.FilePath, d.MimeType, d.Tags, d.SyncStatus, d.UpdatedAt, d.ID)
		if err != nil {
			return wrapWriteErr("failed to update document", err)
		}

		out = d
		return s.enqueue(tx, models.EntityDocument, d.ID, models.OpUpdate, d)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDocument deletes a document and enqueues the mutation.
func (s *Store) DeleteDocument(id models.UUID) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return wrapWriteErr("failed to delete document", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrNotFound, "document "+id.String()+" not found")
		}
		return s.enqueue(tx, models.EntityDocument, id, models.OpDelete, nil)
	})
}
