package identity

import "github.com/keyo/identities-backend/internal/domain/identity"

// CreateIdentityInput contains the fields accepted when creating an
// identity record.
type CreateIdentityInput struct {
	FirstName   string            `json:"first_name" binding:"required"`
	MiddleName  string            `json:"middle_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email" binding:"omitempty,email"`
	Phone       string            `json:"phone" binding:"omitempty,phone"`
	DateOfBirth string            `json:"date_of_birth"`
	Metadata    identity.Metadata `json:"metadata"`

	// Enroll requests the fresh-enrollment flow right after creation.
	Enroll bool `json:"enroll"`
}

// UpdateIdentityInput contains the fields accepted when updating an
// identity record. Nil pointers mean "leave unchanged"; an explicit empty
// string clears the field.
type UpdateIdentityInput struct {
	FirstName   *string            `json:"first_name"`
	MiddleName  *string            `json:"middle_name"`
	LastName    *string            `json:"last_name"`
	Email       *string            `json:"email" binding:"omitempty,email"`
	Phone       *string            `json:"phone" binding:"omitempty,phone"`
	DateOfBirth *string            `json:"date_of_birth"`
	Metadata    *identity.Metadata `json:"metadata"`
}

// IdentityDTO is an identity record augmented with its decoded audit trail.
type IdentityDTO struct {
	identity.Identity
	AccountEvents []identity.AccountEvent `json:"account_events"`
}

// ToDTO attaches the decoded audit trail to an identity record.
func ToDTO(record identity.Identity) IdentityDTO {
	return IdentityDTO{
		Identity:      record,
		AccountEvents: identity.DecodeEvents(record.Metadata),
	}
}
