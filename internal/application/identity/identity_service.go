package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/keyo/identities-backend/internal/domain/identity"
	"github.com/keyo/identities-backend/internal/domain/shared"
	"github.com/keyo/identities-backend/internal/infrastructure/localstore"
	"go.uber.org/zap"
)

// Gateway is the subset of the upstream client the identity services use.
type Gateway interface {
	ListIdentities(ctx context.Context) ([]identity.Identity, error)
	GetIdentity(ctx context.Context, id string) (*identity.Identity, error)
	CreateIdentity(ctx context.Context, payload any) (*identity.Identity, error)
	UpdateIdentity(ctx context.Context, id string, payload any) (*identity.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	DeleteBiometric(ctx context.Context, id string) error
	StartEnroll(ctx context.Context, id, deviceID string) error
}

// phonePattern is the format upstream accepts: a plus sign followed by up
// to fifteen digits. Checked locally so a bad phone never reaches the wire.
var phonePattern = regexp.MustCompile(`^\+\d{1,15}$`)

// clearFieldSentinel is what upstream expects in place of an empty string
// when a previously set email or phone should be removed.
const clearFieldSentinel = " "

// demoLastName replaces the operator-supplied last name while demo mode is
// active, keeping demo records recognizable.
const demoLastName = "IdentitiesUI"

const (
	metadataCreatedByKey = "created_by"
	metadataCreatedAtKey = "created_at"
	defaultCreatedBy     = "agency_app"
)

// IdentityService manages identity records through the upstream gateway.
type IdentityService struct {
	gateway Gateway
	stores  *localstore.Manager
	logger  *zap.Logger
	now     func() time.Time
}

// NewIdentityService creates an identity service.
func NewIdentityService(gateway Gateway, stores *localstore.Manager, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		gateway: gateway,
		stores:  stores,
		logger:  logger,
		now:     time.Now,
	}
}

// List fetches all identity records.
func (s *IdentityService) List(ctx context.Context) ([]IdentityDTO, error) {
	records, err := s.gateway.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]IdentityDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ToDTO(record))
	}
	return dtos, nil
}

// Get fetches a single identity record.
func (s *IdentityService) Get(ctx context.Context, id string) (*IdentityDTO, error) {
	record, err := s.gateway.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*record)
	return &dto, nil
}

// Create creates an identity record. The record is stamped with its origin
// metadata and an opening audit event before it is sent upstream.
func (s *IdentityService) Create(ctx context.Context, profileID string, input CreateIdentityInput) (*IdentityDTO, error) {
	if input.Phone != "" && !phonePattern.MatchString(input.Phone) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Phone must be in international format, e.g. +15551234567")
	}

	lastName := input.LastName
	email := input.Email
	dateOfBirth := input.DateOfBirth
	if s.demoMode(profileID) {
		// Demo records are recognizable and carry no real contact data.
		lastName = demoLastName
		email = ""
		dateOfBirth = ""
	}

	now := s.now().UTC()
	metadata := make(identity.Metadata, len(input.Metadata)+3)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	if _, ok := metadata[metadataCreatedByKey]; !ok {
		metadata[metadataCreatedByKey] = defaultCreatedBy
	}
	if _, ok := metadata[metadataCreatedAtKey]; !ok {
		metadata[metadataCreatedAtKey] = now.Format(time.RFC3339)
	}
	metadata, decodeErr := identity.AppendEvent(metadata, identity.EventCreateAccount, now)
	if decodeErr != nil {
		s.logger.Warn("Resetting undecodable audit trail", zap.Error(decodeErr))
	}

	payload := map[string]any{
		"first_name": input.FirstName,
		"metadata":   metadata,
	}
	setIfPresent(payload, "middle_name", input.MiddleName)
	setIfPresent(payload, "last_name", lastName)
	setIfPresent(payload, "email", email)
	setIfPresent(payload, "phone", input.Phone)
	setIfPresent(payload, "date_of_birth", dateOfBirth)

	record, err := s.gateway.CreateIdentity(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Identity created", zap.String("identity_id", record.ID))
	dto := ToDTO(*record)
	return &dto, nil
}

// Update applies a partial update to an identity record and records the
// change in its audit trail. Empty email or phone values translate to the
// upstream clear sentinel.
func (s *IdentityService) Update(ctx context.Context, id string, input UpdateIdentityInput) (*IdentityDTO, error) {
	if input.Phone != nil && *input.Phone != "" && !phonePattern.MatchString(*input.Phone) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Phone must be in international format, e.g. +15551234567")
	}

	current, err := s.gateway.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	metadata := current.Metadata
	if input.Metadata != nil {
		merged := make(identity.Metadata, len(metadata)+len(*input.Metadata))
		for k, v := range metadata {
			merged[k] = v
		}
		for k, v := range *input.Metadata {
			merged[k] = v
		}
		metadata = merged
	}
	metadata, decodeErr := identity.AppendEvent(metadata, identity.EventUpdateAccount, s.now().UTC())
	if decodeErr != nil {
		s.logger.Warn("Resetting undecodable audit trail",
			zap.String("identity_id", id), zap.Error(decodeErr))
	}

	payload := map[string]any{"metadata": metadata}
	assignIfPresent(payload, "first_name", input.FirstName, "")
	assignIfPresent(payload, "middle_name", input.MiddleName, "")
	assignIfPresent(payload, "last_name", input.LastName, "")
	assignIfPresent(payload, "date_of_birth", input.DateOfBirth, "")
	assignIfPresent(payload, "email", input.Email, clearFieldSentinel)
	assignIfPresent(payload, "phone", input.Phone, clearFieldSentinel)

	record, err := s.gateway.UpdateIdentity(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Identity updated", zap.String("identity_id", id))
	dto := ToDTO(*record)
	return &dto, nil
}

// Delete permanently removes an identity record. No audit event is written
// because the record, including its trail, ceases to exist.
func (s *IdentityService) Delete(ctx context.Context, id string) error {
	if err := s.gateway.DeleteIdentity(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Identity deleted", zap.String("identity_id", id))
	return nil
}

func (s *IdentityService) demoMode(profileID string) bool {
	value, _ := s.stores.ForProfile(profileID).Get(localstore.KeyDemoMode)
	return value == "true"
}

func setIfPresent(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}

// assignIfPresent copies an optional update field into payload. A non-nil
// empty value means "clear": fields with a clear sentinel send it, the rest
// send the empty string as-is.
func assignIfPresent(payload map[string]any, key string, value *string, emptyAs string) {
	if value == nil {
		return
	}
	if *value == "" && emptyAs != "" {
		payload[key] = emptyAs
		return
	}
	payload[key] = *value
}
