// Package models provides data model definitions for HomeVault Core.
package models

import "encoding/json"

// RemoteSnapshot is the payload returned by GET /sync/pull.
//
// Records are kept as raw JSON so the reconciler can validate each one
// independently: a single malformed record is skipped without aborting
// the rest of the merge.
type RemoteSnapshot struct {
	Receipts       []json.RawMessage `json:"receipts"`
	Devices        []json.RawMessage `json:"devices"`
	Reminders      []json.RawMessage `json:"reminders"`
	HouseholdBills []json.RawMessage `json:"householdBills"`
	Documents      []json.RawMessage `json:"documents"`
	Subscriptions  []json.RawMessage `json:"subscriptions"`
	Settings       json.RawMessage   `json:"settings,omitempty"`
}

// Empty reports whether the snapshot carries no records at all.
func (s *RemoteSnapshot) Empty() bool {
	return len(s.Receipts) == 0 && len(s.Devices) == 0 && len(s.Reminders) == 0 &&
		len(s.HouseholdBills) == 0 && len(s.Documents) == 0 &&
		len(s.Subscriptions) == 0 && len(s.Settings) == 0
}
