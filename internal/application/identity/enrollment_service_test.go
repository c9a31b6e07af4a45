package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/keyo/identities-backend/internal/domain/device"
	"github.com/keyo/identities-backend/internal/domain/identity"
	"github.com/keyo/identities-backend/internal/infrastructure/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEnrollmentService(gateway Gateway, devices DeviceSelector) *EnrollmentService {
	identitySvc := newTestIdentityService(gateway, localstore.NewManager())
	return NewEnrollmentService(gateway, devices, identitySvc, zap.NewNop())
}

func selectorWith(d *device.Device) *mockDeviceSelector {
	selector := &mockDeviceSelector{}
	selector.On("Selected", mock.Anything).Return(d, nil)
	if d != nil {
		selector.On("MarkUsed", mock.Anything, d.ID).Return()
	}
	return selector
}

func TestEnrollmentService_Enroll(t *testing.T) {
	gateway := &mockGateway{}
	selected := &device.Device{ID: "dev-1", DeviceID: "wave-1"}
	svc := newTestEnrollmentService(gateway, selectorWith(selected))

	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(nil)
	gateway.On("StartEnroll", mock.Anything, "id-1", "wave-1").Return(nil)
	gateway.On("GetIdentity", mock.Anything, "id-1").
		Return(&identity.Identity{ID: "id-1"}, nil)

	var sent map[string]any
	gateway.On("UpdateIdentity", mock.Anything, "id-1", mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(2).(map[string]any)
		}).
		Return(&identity.Identity{ID: "id-1"}, nil)

	require.NoError(t, svc.Enroll(context.Background(), "p", "id-1"))

	metadata := sent["metadata"].(identity.Metadata)
	assert.JSONEq(t, `[{"event":"ENROLL_BIOMETRIC","date":"2024-06-15"}]`,
		metadata[identity.AccountEventsKey].(string))
	gateway.AssertExpectations(t)
}

func TestEnrollmentService_Enroll_CleanupFailureIsNotFatal(t *testing.T) {
	gateway := &mockGateway{}
	svc := newTestEnrollmentService(gateway, selectorWith(&device.Device{ID: "dev-1", DeviceID: "wave-1"}))

	gateway.On("DeleteBiometric", mock.Anything, "id-1").
		Return(errors.New("upstream: HTTP 409"))
	gateway.On("StartEnroll", mock.Anything, "id-1", "wave-1").Return(nil)
	gateway.On("GetIdentity", mock.Anything, "id-1").
		Return(&identity.Identity{ID: "id-1"}, nil)
	gateway.On("UpdateIdentity", mock.Anything, "id-1", mock.Anything).
		Return(&identity.Identity{ID: "id-1"}, nil)

	assert.NoError(t, svc.Enroll(context.Background(), "p", "id-1"))
}

func TestEnrollmentService_Enroll_StartFailureIsFatal(t *testing.T) {
	gateway := &mockGateway{}
	svc := newTestEnrollmentService(gateway, selectorWith(&device.Device{ID: "dev-1", DeviceID: "wave-1"}))

	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(nil)
	startErr := errors.New("upstream: HTTP 503")
	gateway.On("StartEnroll", mock.Anything, "id-1", "wave-1").Return(startErr)

	err := svc.Enroll(context.Background(), "p", "id-1")
	assert.ErrorIs(t, err, startErr)
	// No audit event after a failed start.
	gateway.AssertNotCalled(t, "UpdateIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrollmentService_Enroll_AuditFailureIsNotFatal(t *testing.T) {
	gateway := &mockGateway{}
	svc := newTestEnrollmentService(gateway, selectorWith(&device.Device{ID: "dev-1", DeviceID: "wave-1"}))

	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(nil)
	gateway.On("StartEnroll", mock.Anything, "id-1", "wave-1").Return(nil)
	gateway.On("GetIdentity", mock.Anything, "id-1").
		Return(nil, errors.New("upstream: HTTP 500"))

	assert.NoError(t, svc.Enroll(context.Background(), "p", "id-1"))
}

func TestEnrollmentService_Enroll_NoDeviceLetsUpstreamChoose(t *testing.T) {
	gateway := &mockGateway{}
	selector := &mockDeviceSelector{}
	selector.On("Selected", "p").Return(nil, nil)
	svc := newTestEnrollmentService(gateway, selector)

	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(nil)
	gateway.On("StartEnroll", mock.Anything, "id-1", "").Return(nil)
	gateway.On("GetIdentity", mock.Anything, "id-1").
		Return(&identity.Identity{ID: "id-1"}, nil)
	gateway.On("UpdateIdentity", mock.Anything, "id-1", mock.Anything).
		Return(&identity.Identity{ID: "id-1"}, nil)

	require.NoError(t, svc.Enroll(context.Background(), "p", "id-1"))
	selector.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything)
}

func TestEnrollmentService_ReEnroll_DeleteFailureIsFatal(t *testing.T) {
	gateway := &mockGateway{}
	svc := newTestEnrollmentService(gateway, selectorWith(&device.Device{ID: "dev-1", DeviceID: "wave-1"}))

	deleteErr := errors.New("upstream: HTTP 500")
	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(deleteErr)

	err := svc.ReEnroll(context.Background(), "p", "id-1")
	assert.ErrorIs(t, err, deleteErr)
	gateway.AssertNotCalled(t, "StartEnroll", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrollmentService_RemoveBiometric(t *testing.T) {
	gateway := &mockGateway{}
	svc := newTestEnrollmentService(gateway, &mockDeviceSelector{})

	gateway.On("DeleteBiometric", mock.Anything, "id-1").Return(nil)
	gateway.On("GetIdentity", mock.Anything, "id-1").
		Return(&identity.Identity{ID: "id-1"}, nil)

	var sent map[string]any
	gateway.On("UpdateIdentity", mock.Anything, "id-1", mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.Get(2).(map[string]any)
		}).
		Return(&identity.Identity{ID: "id-1"}, nil)

	require.NoError(t, svc.RemoveBiometric(context.Background(), "id-1"))

	metadata := sent["metadata"].(identity.Metadata)
	assert.JSONEq(t, `[{"event":"DELETE_BIOMETRIC","date":"2024-06-15"}]`,
		metadata[identity.AccountEventsKey].(string))
}
