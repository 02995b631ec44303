package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/fleetdesk/portal/internal/core/domain"
)

const (
	csrfCookiePath = "/sanctum/csrf-cookie"
	loginPath      = "/login"
	logoutPath     = "/logout"
	xsrfHeader     = "X-XSRF-TOKEN"
	authResource   = "auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// handshake holds the cookies issued by the CSRF endpoint.
type handshake struct {
	session   *http.Cookie
	xsrf      *http.Cookie
	xsrfToken string
}

// Exchange converts an identifier/password pair into a backend token and
// user profile. It first fetches the anti-forgery cookies, then posts the
// credentials with those cookies echoed back. Every failure is returned as
// an error; rejected credentials wrap domain.ErrInvalidCredentials.
func (c *Client) Exchange(ctx context.Context, identifier, password string) (*domain.Credentials, error) {
	hs, err := c.handshake(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, loginPath, loginRequest{Email: identifier, Password: password})
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: hs.session.Name, Value: hs.session.Value})
	req.AddCookie(&http.Cookie{Name: hs.xsrf.Name, Value: hs.xsrf.Value})
	req.Header.Set(xsrfHeader, hs.xsrfToken)

	resp, err := c.do(req, authResource)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity, statusPageExpired:
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, decodeError(resp))
	default:
		return nil, fmt.Errorf("login: %w", decodeError(resp))
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("login: decode response: %w", err)
	}
	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}
	if token == "" {
		return nil, fmt.Errorf("%w: login response carried no token", domain.ErrBackendUnavailable)
	}

	return &domain.Credentials{Token: token, User: payload.User}, nil
}

// statusPageExpired is the status the backend uses for a stale CSRF token.
const statusPageExpired = 419

func (c *Client) handshake(ctx context.Context) (*handshake, error) {
	req, err := c.newRequest(ctx, http.MethodGet, csrfCookiePath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, authResource)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: csrf cookie endpoint returned %d", domain.ErrHandshakeFailed, resp.StatusCode)
	}

	hs := &handshake{}
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case c.sessionCookie:
			hs.session = ck
		case c.xsrfCookie:
			hs.xsrf = ck
		}
	}
	if hs.session == nil || hs.session.Value == "" {
		return nil, fmt.Errorf("%w: missing %s cookie", domain.ErrHandshakeFailed, c.sessionCookie)
	}
	if hs.xsrf == nil || hs.xsrf.Value == "" {
		return nil, fmt.Errorf("%w: missing %s cookie", domain.ErrHandshakeFailed, c.xsrfCookie)
	}

	// The cookie carries the token URL-encoded; the header wants it raw.
	token, err := url.QueryUnescape(hs.xsrf.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed %s cookie: %v", domain.ErrHandshakeFailed, c.xsrfCookie, err)
	}
	hs.xsrfToken = token
	return hs, nil
}

// Logout revokes token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrMissingToken
	}
	req, err := c.newRequest(ctx, http.MethodPost, logoutPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.do(req, authResource)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := decodeError(resp)
		// An already invalid token is as good as a revoked one.
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return nil
		}
		return fmt.Errorf("logout: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
