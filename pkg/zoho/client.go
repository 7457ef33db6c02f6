package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Authorizer supplies valid access tokens for API calls.
type Authorizer interface {
	EnsureValidToken(ctx context.Context) error
	AccessToken() string
}

// Module identifies one CRM module.
type Module struct {
	APIName string `json:"api_name"`
}

// Field describes one field of a CRM module.
type Field struct {
	APIName    string `json:"api_name"`
	FieldLabel string `json:"field_label"`
	DataType   string `json:"data_type"`
	Required   bool   `json:"required"`
}

// RecordStatus is the per-record outcome inside a batch insert response.
// A 201 at the batch level does not imply every record succeeded.
type RecordStatus struct {
	Status  string         `json:"status"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success reports whether this record was accepted.
func (r RecordStatus) Success() bool {
	return r.Status == "success"
}

// AuthError marks failures to obtain a usable access token. Submissions
// abort on it instead of burning through the remaining chunks.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("zoho: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err stems from token acquisition.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Client defines the Zoho CRM operations used by the pipeline.
type Client interface {
	// Modules lists the api_names of all visible CRM modules.
	Modules(ctx context.Context) ([]string, error)
	// Fields returns field metadata for one module.
	Fields(ctx context.Context, module string) ([]Field, error)
	// Insert creates the given leads in one batch call and returns the
	// per-record statuses in submission order.
	Insert(ctx context.Context, module string, leads []Lead) ([]RecordStatus, error)
}

// ClientOption configures the CRM client.
type ClientOption func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit spaces API calls at the given per-second rate. A burst of
// one is allowed, so the first call of a run is never delayed.
func WithRateLimit(rps float64) ClientOption {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTriggers overrides the workflow triggers sent with batch inserts.
func WithTriggers(triggers []string) ClientOption {
	return func(c *httpClient) {
		c.triggers = triggers
	}
}

type httpClient struct {
	baseURL  string
	auth     Authorizer
	http     *http.Client
	limiter  *rate.Limiter
	triggers []string
}

// NewClient creates a Zoho CRM client rooted at baseURL (e.g.
// https://www.zohoapis.com/crm/v2) with session-backed authentication.
func NewClient(baseURL string, auth Authorizer, opts ...ClientOption) Client {
	c := &httpClient{
		baseURL:  baseURL,
		auth:     auth,
		triggers: []string{"approval", "workflow", "blueprint"},
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Modules(ctx context.Context) ([]string, error) {
	var body struct {
		Modules []Module `json:"modules"`
	}
	if err := c.get(ctx, "/settings/modules", &body); err != nil {
		return nil, err
	}

	names := make([]string, len(body.Modules))
	for i, m := range body.Modules {
		names[i] = m.APIName
	}
	return names, nil
}

func (c *httpClient) Fields(ctx context.Context, module string) ([]Field, error) {
	var body struct {
		Fields []Field `json:"fields"`
	}
	path := "/settings/fields?module=" + url.QueryEscape(module)
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	return body.Fields, nil
}

func (c *httpClient) Insert(ctx context.Context, module string, leads []Lead) ([]RecordStatus, error) {
	if err := c.prepare(ctx); err != nil {
		return nil, err
	}

	payload := struct {
		Data    []Lead   `json:"data"`
		Trigger []string `json:"trigger"`
	}{Data: leads, Trigger: c.triggers}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: marshal insert payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+module, bytes.NewReader(raw))
	if err != nil {
		return nil, eris.Wrap(err, "zoho: build insert request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: insert request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("zoho: insert returned %d: %s", resp.StatusCode, readBodyExcerpt(resp.Body))
	}

	var body struct {
		Data []RecordStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "zoho: decode insert response")
	}
	return body.Data, nil
}

// prepare waits out the rate limiter and makes sure a valid token is held.
func (c *httpClient) prepare(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "zoho: rate limit")
		}
	}
	if err := c.auth.EnsureValidToken(ctx); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	if err := c.prepare(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "zoho: build request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "zoho: GET %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("zoho: GET %s returned %d: %s", path, resp.StatusCode, readBodyExcerpt(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "zoho: decode %s response", path)
	}
	return nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.auth.AccessToken())
	req.Header.Set("Content-Type", "application/json")
}

func readBodyExcerpt(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(raw)
}
