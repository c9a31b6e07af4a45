package keyo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/keyo/identities-backend/internal/domain/identity"
)

// ListIdentities fetches all identity records visible to the organization.
func (c *Client) ListIdentities(ctx context.Context) ([]identity.Identity, error) {
	data, err := c.Do(ctx, http.MethodGet, identitiesPath, nil)
	if err != nil {
		return nil, err
	}
	var result identity.ListResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("keyo: failed to parse identity list: %w", err)
	}
	return result.Identities, nil
}

// GetIdentity fetches a single identity record.
func (c *Client) GetIdentity(ctx context.Context, id string) (*identity.Identity, error) {
	data, err := c.Do(ctx, http.MethodGet, fmt.Sprintf(identityPathFmt, id), nil)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(data)
}

// CreateIdentity creates an identity from the given payload and returns the
// created record.
func (c *Client) CreateIdentity(ctx context.Context, payload any) (*identity.Identity, error) {
	data, err := c.Do(ctx, http.MethodPost, identitiesPath, payload)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(data)
}

// UpdateIdentity applies a partial update to an identity and returns the
// updated record.
func (c *Client) UpdateIdentity(ctx context.Context, id string, payload any) (*identity.Identity, error) {
	data, err := c.Do(ctx, http.MethodPatch, fmt.Sprintf(identityPathFmt, id), payload)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(data)
}

// DeleteIdentity permanently removes an identity record.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf(identityPathFmt, id), nil)
	return err
}

// DeleteBiometric removes the biometric template attached to an identity
// while leaving the record itself in place.
func (c *Client) DeleteBiometric(ctx context.Context, id string) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf(deleteBiometricFmt, id), nil)
	return err
}

// StartEnroll puts the given device into enrollment mode for an identity.
// An empty deviceID lets upstream pick a device.
func (c *Client) StartEnroll(ctx context.Context, id, deviceID string) error {
	payload := map[string]any{}
	if deviceID != "" {
		payload["device_id"] = deviceID
	}
	_, err := c.Do(ctx, http.MethodPost, fmt.Sprintf(startEnrollFmt, id), payload)
	return err
}

func decodeIdentity(data []byte) (*identity.Identity, error) {
	var record identity.Identity
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("keyo: failed to parse identity response: %w", err)
	}
	return &record, nil
}
