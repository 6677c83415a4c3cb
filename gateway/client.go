package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TurahWilson/TubesIAE/model"
)

const (
	tokenPath    = "/auth/token"
	registerPath = "/auth/register"
	healthPath   = "/health"
)

// Client talks to the remote clinical records gateway. It is safe for
// concurrent use; the caller's session is passed explicitly on every call.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A zero timeout means requests never time out.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient returns a client that sends requests through hc.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL returns the remote root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body as JSON to path and decodes a 2xx answer into out. out may
// be nil and an empty 2xx body is accepted. The bearer token of sess is
// attached when present.
func (c *Client) Do(ctx context.Context, sess *model.Session, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, sess, out)
}

// Token exchanges credentials for a bearer token. The body is form-encoded,
// unlike every other call.
func (c *Client) Token(ctx context.Context, username, password string) (model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok model.TokenResponse
	if err := c.send(req, nil, &tok); err != nil {
		return model.TokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return model.TokenResponse{}, &APIError{Status: http.StatusOK, Detail: "token response carried no access_token"}
	}
	return tok, nil
}

// Register creates an account on the auth service.
func (c *Client) Register(ctx context.Context, r model.RegisterRequest) error {
	r.Role = model.NormalizeRole(r.Role)
	return c.Do(ctx, nil, http.MethodPost, registerPath, r, nil)
}

// Health returns the remote gateway's per-service health report.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	report := map[string]interface{}{}
	if err := c.Do(ctx, nil, http.MethodGet, healthPath, nil, &report); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) send(req *http.Request, sess *model.Session, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("gateway: %s %s failed: %v", req.Method, req.URL.Path, err)
		return &TransportError{Method: req.Method, Path: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("gateway: reading %s %s failed: %v", req.Method, req.URL.Path, err)
		return &TransportError{Method: req.Method, Path: req.URL.Path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(payload)}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{Status: resp.StatusCode, Detail: fmt.Sprintf("unreadable response from %s", req.URL.Path)}
	}
	return nil
}
