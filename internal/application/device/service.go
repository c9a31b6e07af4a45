// Package device manages each browser profile's roster of enrollment
// devices and the hints that drive device selection.
package device

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keyo/identities-backend/internal/domain/device"
	"github.com/keyo/identities-backend/internal/domain/shared"
	"github.com/keyo/identities-backend/internal/infrastructure/localstore"
	"go.uber.org/zap"
)

// AddDeviceInput contains the fields accepted when registering a device.
type AddDeviceInput struct {
	SerialNumber string `json:"serial_number" binding:"required"`
	DeviceID     string `json:"device_id" binding:"required"`
	Name         string `json:"name"`
}

// Service manages the per-profile device roster. Devices are operator-
// registered, stored alongside the profile's other widget state, and never
// synchronized upstream; upstream only ever sees a device_id at enrollment
// time.
type Service struct {
	stores *localstore.Manager
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a device service.
func NewService(stores *localstore.Manager, logger *zap.Logger) *Service {
	return &Service{
		stores: stores,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the profile's registered devices. An undecodable roster
// reads as empty rather than failing; the operator can re-register.
func (s *Service) List(profileID string) []device.Device {
	store := s.stores.ForProfile(profileID)
	raw, ok := store.Get(localstore.KeyDevices)
	if !ok || raw == "" {
		return nil
	}
	var devices []device.Device
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		s.logger.Warn("Discarding undecodable device roster",
			zap.String("profile_id", profileID), zap.Error(err))
		return nil
	}
	return devices
}

// Add registers a device for the profile and marks it last-used so it is
// selected immediately.
func (s *Service) Add(profileID string, input AddDeviceInput) (*device.Device, error) {
	serial := strings.TrimSpace(input.SerialNumber)
	deviceID := strings.TrimSpace(input.DeviceID)
	if serial == "" || deviceID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "serial_number and device_id are required")
	}

	added := device.Device{
		ID:           s.newID(),
		SerialNumber: serial,
		DeviceID:     deviceID,
		Name:         strings.TrimSpace(input.Name),
	}

	store := s.stores.ForProfile(profileID)
	devices := append(s.List(profileID), added)
	if err := s.persist(store, devices); err != nil {
		return nil, err
	}
	store.Set(localstore.KeyLastDevice, added.ID)

	s.logger.Info("Device registered",
		zap.String("profile_id", profileID),
		zap.String("device_id", added.DeviceID),
		zap.String("name", device.Label(added)))
	return &added, nil
}

// Delete removes a device from the profile's roster. Hints pointing at the
// removed device are cleared, not reassigned; selection falls through to
// the remaining policy steps.
func (s *Service) Delete(profileID, id string) error {
	devices := s.List(profileID)
	remaining := make([]device.Device, 0, len(devices))
	found := false
	for _, d := range devices {
		if d.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, d)
	}
	if !found {
		return shared.ErrNotFound
	}

	store := s.stores.ForProfile(profileID)
	if err := s.persist(store, remaining); err != nil {
		return err
	}
	if v, _ := store.Get(localstore.KeyDefaultDevice); v == id {
		store.Delete(localstore.KeyDefaultDevice)
	}
	if v, _ := store.Get(localstore.KeyLastDevice); v == id {
		store.Delete(localstore.KeyLastDevice)
	}

	s.logger.Info("Device removed",
		zap.String("profile_id", profileID), zap.String("id", id))
	return nil
}

// SetDefault marks a device as the profile's default. The default also
// becomes the last-used hint so the two never disagree right after.
func (s *Service) SetDefault(profileID, id string) error {
	if !s.exists(profileID, id) {
		return shared.ErrNotFound
	}
	store := s.stores.ForProfile(profileID)
	store.Set(localstore.KeyDefaultDevice, id)
	store.Set(localstore.KeyLastDevice, id)
	return nil
}

// MarkUsed records that a device was just used for enrollment.
func (s *Service) MarkUsed(profileID, id string) {
	if !s.exists(profileID, id) {
		return
	}
	s.stores.ForProfile(profileID).Set(localstore.KeyLastDevice, id)
}

// Selected resolves which device the profile should enroll with, following
// default, then last-used, then first-registered. Nil means no device is
// available and upstream picks.
func (s *Service) Selected(profileID string) (*device.Device, error) {
	store := s.stores.ForProfile(profileID)
	defaultID, _ := store.Get(localstore.KeyDefaultDevice)
	lastUsedID, _ := store.Get(localstore.KeyLastDevice)
	return device.Resolve(s.List(profileID), device.Hints{
		DefaultID:  defaultID,
		LastUsedID: lastUsedID,
	}), nil
}

// DemoMode reports whether the profile has demo mode enabled.
func (s *Service) DemoMode(profileID string) bool {
	v, _ := s.stores.ForProfile(profileID).Get(localstore.KeyDemoMode)
	return v == "true"
}

// SetDemoMode toggles demo mode for the profile.
func (s *Service) SetDemoMode(profileID string, enabled bool) {
	store := s.stores.ForProfile(profileID)
	if enabled {
		store.Set(localstore.KeyDemoMode, "true")
		return
	}
	store.Delete(localstore.KeyDemoMode)
}

func (s *Service) exists(profileID, id string) bool {
	for _, d := range s.List(profileID) {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *Service) persist(store localstore.Store, devices []device.Device) error {
	encoded, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encoding device roster: %w", err)
	}
	store.Set(localstore.KeyDevices, string(encoded))
	return nil
}

// newID mirrors the widget's id scheme, a timestamp plus a short random
// suffix, so rosters written by either side stay uniform.
func (s *Service) newID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("dev-%d-%s", s.now().UnixMilli(), suffix)
}
