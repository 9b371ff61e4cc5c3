package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrCrumbFetch = errors.New("failed to fetch Jenkins crumb")
	ErrTrigger    = errors.New("failed to trigger Jenkins build")
)

// Crumb is the CSRF token Jenkins requires before it accepts a
// state-changing request. One crumb is fetched and consumed per
// trigger attempt; it is never cached across calls.
type Crumb struct {
	Value  string
	Field  string
	Cookie string
}

type crumbResponse struct {
	Class             string `json:"_class"`
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

// Client performs the two-step Jenkins handshake: crumb fetch, then a
// parameterized build trigger using that crumb.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchCrumb authenticates against the crumb issuer and extracts the
// crumb value, its header field name, and the session cookie. A
// response missing either crumb field is fatal for the whole trigger
// attempt; the build-trigger call must not be made.
func (c *Client) FetchCrumb(ctx context.Context) (*Crumb, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/crumbIssuer/api/json", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrumbFetch, err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrumbFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCrumbFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrumbFetch, err)
	}

	var crumbResp crumbResponse
	if err := json.Unmarshal(body, &crumbResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrumbFetch, err)
	}

	if crumbResp.Crumb == "" || crumbResp.CrumbRequestField == "" {
		return nil, fmt.Errorf("%w: crumb or crumbRequestField missing from response", ErrCrumbFetch)
	}

	return &Crumb{
		Value:  crumbResp.Crumb,
		Field:  crumbResp.CrumbRequestField,
		Cookie: resp.Header.Get("Set-Cookie"),
	}, nil
}

// TriggerBuild issues the parameterized build request. The crumb
// travels as a header under its own field name, the session cookie
// rides along when the issuer set one, and the parameters are flattened
// into the query string the way buildWithParameters expects.
func (c *Client) TriggerBuild(ctx context.Context, crumb *Crumb, jobName string, parameters map[string]string) error {
	query := url.Values{}
	for key, value := range parameters {
		query.Set(key, value)
	}

	triggerURL := fmt.Sprintf("%s/job/%s/buildWithParameters?%s",
		c.baseURL, url.PathEscape(jobName), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, triggerURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrigger, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set(crumb.Field, crumb.Value)
	if crumb.Cookie != "" {
		req.Header.Set("Cookie", crumb.Cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrigger, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrTrigger, resp.StatusCode, string(body))
	}

	return nil
}
