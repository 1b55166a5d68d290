package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

var (
	// ErrInvalidBaseURL is returned by New for a missing or non-absolute base URL.
	ErrInvalidBaseURL = errors.New("backend base URL must be an absolute http(s) URL")
	// ErrUnexpectedStatus is returned for backend statuses outside the login contract.
	ErrUnexpectedStatus = errors.New("unexpected backend status")
	// ErrBadResponse is returned when the backend answers 200 with an unusable identity.
	ErrBadResponse = errors.New("malformed backend response")
)

const maxResponseBody = 1 << 20

// Config configures a Client.
type Config struct {
	BaseURL   string
	LoginPath string
	Timeout   time.Duration
}

// Client calls the backend login endpoint.
type Client struct {
	loginURL string
	http     *http.Client
}

// New returns a Client. A nil httpClient gets a client with cfg.Timeout (default 10s).
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth/login"
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		loginURL: strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(cfg.LoginPath, "/"),
		http:     httpClient,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       int    `json:"role"`
	IdentityID string `json:"identityId"`
}

// Authenticate posts creds to the backend. Rejected credentials return an error wrapping
// goSession.ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context, creds goSession.Credentials) (token.Identity, error) {
	body, err := json.Marshal(loginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return token.Identity{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(body))
	if err != nil {
		return token.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := goSession.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return token.Identity{}, fmt.Errorf("backend login: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return token.Identity{}, goSession.ErrInvalidCredentials
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return token.Identity{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return token.Identity{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.Role < 0 || out.Role > 255 {
		return token.Identity{}, fmt.Errorf("%w: role %d", ErrBadResponse, out.Role)
	}

	id := token.Identity{
		UserID:     out.UserID,
		Email:      out.Email,
		Name:       out.Name,
		Role:       role.Role(out.Role),
		IdentityID: out.IdentityID,
	}
	if err := id.Validate(); err != nil {
		return token.Identity{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return id, nil
}
