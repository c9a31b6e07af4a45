package identity

import (
	"context"

	"github.com/keyo/identities-backend/internal/domain/device"
	"github.com/keyo/identities-backend/internal/domain/identity"
	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListIdentities(ctx context.Context) ([]identity.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Identity), args.Error(1)
}

func (m *mockGateway) GetIdentity(ctx context.Context, id string) (*identity.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *mockGateway) CreateIdentity(ctx context.Context, payload any) (*identity.Identity, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *mockGateway) UpdateIdentity(ctx context.Context, id string, payload any) (*identity.Identity, error) {
	args := m.Called(ctx, id, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Identity), args.Error(1)
}

func (m *mockGateway) DeleteIdentity(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) DeleteBiometric(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGateway) StartEnroll(ctx context.Context, id, deviceID string) error {
	return m.Called(ctx, id, deviceID).Error(0)
}

type mockDeviceSelector struct {
	mock.Mock
}

func (m *mockDeviceSelector) Selected(profileID string) (*device.Device, error) {
	args := m.Called(profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*device.Device), args.Error(1)
}

func (m *mockDeviceSelector) MarkUsed(profileID, deviceID string) {
	m.Called(profileID, deviceID)
}
