// Package models provides data model definitions for HomeVault Core.
package models

import (
	"encoding/json"
	"fmt"
)

// Document represents a stored document (warranty card, manual, contract).
type Document struct {
	ID         UUID       `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	FilePath   string     `db:"file_path" json:"file_path,omitempty"`
	MimeType   string     `db:"mime_type" json:"mime_type,omitempty"`
	Tags       string     `db:"tags" json:"tags,omitempty"` // Comma-separated
	SyncStatus SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt  int64      `db:"created_at" json:"created_at"`
	UpdatedAt  int64      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// Validate checks the minimal shape required of a document record.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document: missing id")
	}
	if d.Title == "" {
		return fmt.Errorf("document %s: missing title", d.ID)
	}
	if d.UpdatedAt <= 0 {
		return fmt.Errorf("document %s: missing updated_at", d.ID)
	}
	return nil
}

// DecodeDocument parses and validates a remote document record.
func DecodeDocument(raw []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
