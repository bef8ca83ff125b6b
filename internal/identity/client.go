// Package identity talks to the upstream identity service that owns user
// accounts and issues the tokens this portal trusts.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nidhi/internal/models"
)

const defaultTimeout = 10 * time.Second

// Profile is the subset of the upstream user profile the portal cares about.
type Profile struct {
	ID        json.Number `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	CollegeID string      `json:"college_id"`
	Role      string      `json:"role"`
}

// LoginResult bundles the upstream token pair with the resolved profile.
type LoginResult struct {
	AccessToken  string  `json:"access"`
	RefreshToken string  `json:"refresh"`
	Profile      Profile `json:"profile"`
}

// Client is an HTTP client for the upstream identity service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an identity client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Login exchanges credentials for an upstream token pair, then resolves the
// caller's profile with the fresh access token. Bad credentials and an
// unreachable upstream are distinct failures: the first is the caller's
// problem, the second is ours.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/users/token/", bytes.NewReader(body))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.NewUpstreamUnavailableError("identity", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, models.NewUnauthorizedError("Invalid username or password")
	case resp.StatusCode != http.StatusOK:
		return nil, models.NewUpstreamUnavailableError("identity",
			fmt.Errorf("token endpoint returned %d", resp.StatusCode))
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, models.NewUpstreamUnavailableError("identity", err)
	}

	profile, err := c.fetchProfile(ctx, result.AccessToken)
	if err != nil {
		return nil, err
	}
	result.Profile = *profile
	return &result, nil
}

func (c *Client) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/users/profile/", nil)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.NewUpstreamUnavailableError("identity", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewUpstreamUnavailableError("identity",
			fmt.Errorf("profile endpoint returned %d", resp.StatusCode))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, models.NewUpstreamUnavailableError("identity", err)
	}
	return &profile, nil
}
