package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// refreshThreshold is how close to expiry a token must be before it is
// exchanged for a fresh long-lived one.
const refreshThreshold = 10 * 24 * time.Hour

// TokenRefresher exchanges the current long-lived access token for a new one
// before it expires. It mutates the client's token in place on success.
type TokenRefresher struct {
	client    *Client
	appID     string
	appSecret string
}

// NewTokenRefresher wires a refresher for the given client. appID and
// appSecret are the Facebook app credentials behind the token.
func NewTokenRefresher(client *Client, appID, appSecret string) *TokenRefresher {
	return &TokenRefresher{client: client, appID: appID, appSecret: appSecret}
}

// Enabled reports whether app credentials are configured; without them the
// refresher is a no-op.
func (r *TokenRefresher) Enabled() bool {
	return r.appID != "" && r.appSecret != ""
}

// RefreshIfNeeded checks the current token's expiry and exchanges it when
// fewer than ten days remain. Returns whether a refresh happened.
func (r *TokenRefresher) RefreshIfNeeded(ctx context.Context) (bool, error) {
	if !r.Enabled() {
		logrus.Debug("Token refresh skipped - app credentials not configured")
		return false, nil
	}

	expiresAt, err := r.tokenExpiry(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check token expiry: %w", err)
	}

	remaining := time.Until(expiresAt)
	if remaining > refreshThreshold {
		logrus.Infof("Access token valid for %d more days, refresh not needed", int(remaining.Hours()/24))
		return false, nil
	}

	logrus.Warnf("Access token expires in %v, refreshing", remaining)

	newToken, err := r.exchangeToken(ctx)
	if err != nil {
		return false, fmt.Errorf("token exchange failed: %w", err)
	}

	// Validate the new token before adopting it.
	previous := r.client.accessToken()
	r.client.setAccessToken(newToken)
	if err := r.client.ValidateCredentials(ctx); err != nil {
		r.client.setAccessToken(previous)
		return false, fmt.Errorf("refreshed token failed validation: %w", err)
	}

	logrus.Info("Access token refreshed successfully")
	return true, nil
}

func (r *TokenRefresher) tokenExpiry(ctx context.Context) (time.Time, error) {
	var result struct {
		Data struct {
			ExpiresAt int64 `json:"expires_at"`
			IsValid   bool  `json:"is_valid"`
		} `json:"data"`
	}

	resp, err := r.client.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"input_token":  r.client.accessToken(),
			"access_token": fmt.Sprintf("%s|%s", r.appID, r.appSecret),
		}).
		Get("/debug_token")

	if err != nil {
		return time.Time{}, err
	}

	if resp.StatusCode() != 200 {
		return time.Time{}, fmt.Errorf("debug_token returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse debug_token response: %w", err)
	}

	if !result.Data.IsValid {
		return time.Time{}, fmt.Errorf("current access token is no longer valid")
	}

	// expires_at of zero means a token that never expires.
	if result.Data.ExpiresAt == 0 {
		return time.Now().Add(365 * 24 * time.Hour), nil
	}

	return time.Unix(result.Data.ExpiresAt, 0), nil
}

func (r *TokenRefresher) exchangeToken(ctx context.Context) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	resp, err := r.client.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":        "fb_exchange_token",
			"client_id":         r.appID,
			"client_secret":     r.appSecret,
			"fb_exchange_token": r.client.accessToken(),
		}).
		Get("/oauth/access_token")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("oauth/access_token returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse token exchange response: %w", err)
	}

	if result.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned an empty token")
	}

	return result.AccessToken, nil
}
