package keyo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrInvalidUserToken indicates a user session token that the identity
// provider rejected.
var ErrInvalidUserToken = errors.New("keyo: invalid user token")

// VerifyUserJWT confirms a user session token against the identity
// provider's profile endpoint and returns the token's claims. Signature
// verification is delegated to the provider; the local decode only
// extracts the payload of an already-accepted token.
func (c *Client) VerifyUserJWT(ctx context.Context, token string) (jwt.MapClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+usersProfilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("keyo: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "JWT "+token)
	req.Header.Set("Accept", acceptVersionHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("User token rejected by identity provider",
			zap.Int("status", resp.StatusCode))
		return nil, ErrInvalidUserToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUserToken, err)
	}
	return claims, nil
}
