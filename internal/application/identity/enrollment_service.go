package identity

import (
	"context"

	"github.com/keyo/identities-backend/internal/domain/device"
	"github.com/keyo/identities-backend/internal/domain/identity"
	"go.uber.org/zap"
)

// DeviceSelector resolves which enrollment device a browser profile should
// use and records usage for future selection.
type DeviceSelector interface {
	Selected(profileID string) (*device.Device, error)
	MarkUsed(profileID, deviceID string)
}

// EnrollmentService drives the biometric enrollment flow. Enrollment is a
// multi-step sequence against an upstream that offers no transactions, so
// each step has an explicit failure policy: clearing a stale template and
// writing the audit event are best-effort, putting the device into
// enrollment mode is the one step that must succeed.
type EnrollmentService struct {
	gateway  Gateway
	devices  DeviceSelector
	identity *IdentityService
	logger   *zap.Logger
}

// NewEnrollmentService creates an enrollment service.
func NewEnrollmentService(gateway Gateway, devices DeviceSelector, identityService *IdentityService, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		gateway:  gateway,
		devices:  devices,
		identity: identityService,
		logger:   logger,
	}
}

// CreateAndEnroll creates an identity and immediately starts the fresh
// enrollment flow on it. Creation failures abort; an enrollment failure is
// returned alongside the created record, which exists regardless.
func (s *EnrollmentService) CreateAndEnroll(ctx context.Context, profileID string, input CreateIdentityInput) (*IdentityDTO, error) {
	dto, err := s.identity.Create(ctx, profileID, input)
	if err != nil {
		return nil, err
	}
	if err := s.Enroll(ctx, profileID, dto.ID); err != nil {
		s.logger.Warn("Identity created but enrollment failed",
			zap.String("identity_id", dto.ID), zap.Error(err))
		return dto, err
	}
	return dto, nil
}

// Enroll starts biometric enrollment for an identity on the profile's
// selected device. Any existing template is cleared first on a best-effort
// basis so a previously failed enrollment cannot block a new one.
func (s *EnrollmentService) Enroll(ctx context.Context, profileID, identityID string) error {
	if err := s.gateway.DeleteBiometric(ctx, identityID); err != nil {
		s.logger.Warn("Pre-enrollment biometric cleanup failed, continuing",
			zap.String("identity_id", identityID), zap.Error(err))
	}
	return s.startEnroll(ctx, profileID, identityID)
}

// ReEnroll replaces an identity's existing biometric template. Unlike
// Enroll, the delete must succeed: proceeding with the old template still
// in place would leave upstream holding two conflicting enrollments.
func (s *EnrollmentService) ReEnroll(ctx context.Context, profileID, identityID string) error {
	if err := s.gateway.DeleteBiometric(ctx, identityID); err != nil {
		s.logger.Error("Failed to delete existing biometric template",
			zap.String("identity_id", identityID), zap.Error(err))
		return err
	}
	return s.startEnroll(ctx, profileID, identityID)
}

// RemoveBiometric deletes an identity's biometric template and records the
// deletion in the audit trail.
func (s *EnrollmentService) RemoveBiometric(ctx context.Context, identityID string) error {
	if err := s.gateway.DeleteBiometric(ctx, identityID); err != nil {
		return err
	}
	s.logger.Info("Biometric template deleted", zap.String("identity_id", identityID))
	s.appendAuditEvent(ctx, identityID, identity.EventDeleteBiometric)
	return nil
}

func (s *EnrollmentService) startEnroll(ctx context.Context, profileID, identityID string) error {
	deviceID := ""
	selected, err := s.devices.Selected(profileID)
	if err != nil {
		s.logger.Warn("Device selection failed, letting upstream choose",
			zap.String("profile_id", profileID), zap.Error(err))
	} else if selected != nil {
		deviceID = selected.DeviceID
	}

	if err := s.gateway.StartEnroll(ctx, identityID, deviceID); err != nil {
		s.logger.Error("Failed to start enrollment",
			zap.String("identity_id", identityID),
			zap.String("device_id", deviceID),
			zap.Error(err))
		return err
	}
	s.logger.Info("Enrollment started",
		zap.String("identity_id", identityID),
		zap.String("device_id", deviceID))

	if selected != nil {
		s.devices.MarkUsed(profileID, selected.ID)
	}
	s.appendAuditEvent(ctx, identityID, identity.EventEnrollBiometric)
	return nil
}

// appendAuditEvent re-fetches the identity and patches its audit trail.
// The enrollment itself has already happened upstream, so a failure here
// loses only the audit entry and is logged, not returned.
func (s *EnrollmentService) appendAuditEvent(ctx context.Context, identityID string, event identity.EventType) {
	record, err := s.gateway.GetIdentity(ctx, identityID)
	if err != nil {
		s.logger.Warn("Skipping audit event, identity fetch failed",
			zap.String("identity_id", identityID),
			zap.String("event", string(event)),
			zap.Error(err))
		return
	}

	metadata, decodeErr := identity.AppendEvent(record.Metadata, event, s.identity.now().UTC())
	if decodeErr != nil {
		s.logger.Warn("Resetting undecodable audit trail",
			zap.String("identity_id", identityID), zap.Error(decodeErr))
	}

	if _, err := s.gateway.UpdateIdentity(ctx, identityID, map[string]any{"metadata": metadata}); err != nil {
		s.logger.Warn("Failed to record audit event",
			zap.String("identity_id", identityID),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}
