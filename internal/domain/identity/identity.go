// Package identity holds the domain model for upstream identity records:
// the identity itself, its free-form metadata, and the account-event audit
// trail embedded in that metadata.
package identity

import "encoding/json"

// Metadata is the free-form metadata object attached to an upstream identity.
// Upstream treats values as opaque; the only key this system interprets is
// "account_events" (see events.go).
type Metadata map[string]any

// Identity is an upstream identity record. The upstream API owns the full
// schema; only the fields used for display, edit forms, and the audit trail
// are modeled here. Unknown fields are dropped on decode, which is fine
// because identities are always re-fetched before mutation.
type Identity struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"first_name,omitempty"`
	MiddleName  string   `json:"middle_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// ListResult is the normalized form of an upstream identity list response.
// Upstream has historically returned either a bare array or a paginated
// {"results": [...]} envelope; both are accepted.
type ListResult struct {
	Identities []Identity
}

// UnmarshalJSON accepts both list encodings.
func (r *ListResult) UnmarshalJSON(data []byte) error {
	var bare []Identity
	if err := json.Unmarshal(data, &bare); err == nil {
		r.Identities = bare
		return nil
	}
	var envelope struct {
		Results []Identity `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	r.Identities = envelope.Results
	return nil
}
