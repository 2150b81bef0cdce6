package pkg

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	nurl "net/url"
	"sync"
	"time"

	"github.com/bsmkit/bsmc/pkg/bsm"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// HTTP simplifies making requests to the manager API. Handles JWT
// authentication with transparent re-login on token rejection.
type HTTP struct {
	manager *Manager
	baseURL string

	tokenMutex sync.Mutex
	token      string
}

func NewHTTP(manager *Manager, baseURL string) *HTTP {
	return &HTTP{manager: manager, baseURL: baseURL}
}

func (h *HTTP) Client() *resty.Client {
	cv := h.manager.registry.bsm.Config().Values()
	client := resty.New()
	client.SetBaseURL(h.baseURL + bsm.BasePathDefault)
	client.SetTimeout(cv.Manager.RequestTimeout)
	client.SetHeader("Content-Type", "application/json")
	if verify := h.manager.VerifySSL(); !verify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return client
}

// Authenticate logs into the manager API and caches the access token.
// Safe for concurrent use; only one login runs at a time.
func (h *HTTP) Authenticate(ctx context.Context, force bool) (string, error) {
	h.tokenMutex.Lock()
	defer h.tokenMutex.Unlock()

	if !force && h.token != "" && tokenUsable(h.token) {
		return h.token, nil
	}

	log.Debugf("manager '%s': logging into API at '%s'", h.manager.ID(), h.baseURL)
	resp, err := h.Client().R().
		SetContext(ctx).
		SetBody(map[string]string{"username": h.manager.User(), "password": h.manager.Password()}).
		Post(bsm.LoginPath)
	if err != nil {
		return "", fmt.Errorf("manager '%s': %w: %s", h.manager.ID(), bsm.ErrCannotConnect, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return "", fmt.Errorf("manager '%s': %w", h.manager.ID(), bsm.ErrInvalidAuth)
	}
	if resp.IsError() {
		return "", fmt.Errorf("manager '%s': login failed: %w", h.manager.ID(), &bsm.APIError{StatusCode: resp.StatusCode(), Message: envelopeMessage(resp.Body())})
	}
	var login bsm.LoginResponse
	if err := json.Unmarshal(resp.Body(), &login); err != nil || login.AccessToken == "" {
		return "", fmt.Errorf("manager '%s': login reply misses access token", h.manager.ID())
	}
	h.token = login.AccessToken
	return h.token, nil
}

func (h *HTTP) invalidateToken() {
	h.tokenMutex.Lock()
	defer h.tokenMutex.Unlock()
	h.token = ""
}

// tokenUsable checks the token expiry claim locally to skip requests bound to
// bounce off with 401. Tokens without a parsable expiry are sent as-is.
func tokenUsable(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}
	return time.Now().Add(10 * time.Second).Before(expiry.Time)
}

// Get performs an authenticated GET and decodes the reply into out.
func (h *HTTP) Get(ctx context.Context, path string, out any) error {
	return h.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST and decodes the reply into out.
func (h *HTTP) Post(ctx context.Context, path string, body any, out any) error {
	return h.do(ctx, http.MethodPost, path, body, out)
}

// Delete performs an authenticated DELETE and decodes the reply into out.
func (h *HTTP) Delete(ctx context.Context, path string, out any) error {
	return h.do(ctx, http.MethodDelete, path, nil, out)
}

func (h *HTTP) do(ctx context.Context, method string, path string, body any, out any) error {
	resp, err := h.execute(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		log.Debugf("manager '%s': token rejected, re-authenticating", h.manager.ID())
		h.invalidateToken()
		if _, err = h.Authenticate(ctx, true); err != nil {
			return err
		}
		resp, err = h.execute(ctx, method, path, body)
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			return fmt.Errorf("manager '%s': %w", h.manager.ID(), bsm.ErrInvalidAuth)
		}
	}
	message := envelopeMessage(resp.Body())
	if resp.IsError() {
		switch {
		case bsm.IsNotRunningMessage(message):
			return fmt.Errorf("manager '%s': %w", h.manager.ID(), bsm.ErrServerNotRunning)
		case resp.StatusCode() == http.StatusNotFound:
			return fmt.Errorf("manager '%s': %w: %s", h.manager.ID(), bsm.ErrServerNotFound, path)
		default:
			return fmt.Errorf("manager '%s': %w", h.manager.ID(), &bsm.APIError{StatusCode: resp.StatusCode(), Message: message})
		}
	}
	var env bsm.Envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.IsError() {
		if bsm.IsNotRunningMessage(env.Message) {
			return fmt.Errorf("manager '%s': %w", h.manager.ID(), bsm.ErrServerNotRunning)
		}
		return fmt.Errorf("manager '%s': %w", h.manager.ID(), &bsm.APIError{StatusCode: resp.StatusCode(), Message: env.Message})
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("manager '%s': cannot parse reply of '%s': %w", h.manager.ID(), path, err)
		}
	}
	return nil
}

func (h *HTTP) execute(ctx context.Context, method string, path string, body any) (*resty.Response, error) {
	token, err := h.Authenticate(ctx, false)
	if err != nil {
		return nil, err
	}
	request := h.Client().R().SetContext(ctx).SetAuthToken(token)
	if body != nil {
		request.SetBody(body)
	}
	resp, err := request.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("manager '%s': %w: %s", h.manager.ID(), bsm.ErrCannotConnect, err)
	}
	return resp, nil
}

func envelopeMessage(data []byte) string {
	var env bsm.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.Message
}

func (h *HTTP) Port() string {
	urlConfig, _ := nurl.Parse(h.baseURL)
	port := urlConfig.Port()
	if port == "" {
		if urlConfig.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return port
}

func (h *HTTP) Hostname() string {
	urlConfig, _ := nurl.Parse(h.baseURL)
	return urlConfig.Hostname()
}

func (h *HTTP) BaseURL() string {
	return h.baseURL
}
