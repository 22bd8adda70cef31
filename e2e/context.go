package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// TestContext carries scenario state: the HTTP client, the last response,
// and the operator credentials threaded between steps.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	lastStatus int
	lastBody   []byte

	operatorID  string
	apiKey      string
	accessToken string
}

// NewTestContext builds a context from the environment. Base URL and admin
// token must match the server under test.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:    envOr("WELLFILE_E2E_BASE_URL", "http://localhost:8080"),
		adminToken: envOr("WELLFILE_E2E_ADMIN_TOKEN", "e2e-admin-token"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// POST sends a JSON body. The stored access token rides along when set.
func (tc *TestContext) POST(path string, body interface{}) error {
	headers := map[string]string{}
	if tc.accessToken != "" {
		headers["Authorization"] = "Bearer " + tc.accessToken
	}
	return tc.do(http.MethodPost, path, body, headers)
}

// POSTWithHeaders sends a JSON body with explicit headers only, bypassing
// the stored access token.
func (tc *TestContext) POSTWithHeaders(path string, body interface{}, headers map[string]string) error {
	return tc.do(http.MethodPost, path, body, headers)
}

// AdminPOST sends a JSON body with the admin token attached.
func (tc *TestContext) AdminPOST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body, map[string]string{"X-Admin-Token": tc.adminToken})
}

// GET sends a GET request. The stored access token is attached unless the
// caller provided an Authorization header.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Authorization"]; !ok && tc.accessToken != "" {
		headers["Authorization"] = "Bearer " + tc.accessToken
	}
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body interface{}, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	return nil
}

// GetLastResponseStatus returns the status code of the last response.
func (tc *TestContext) GetLastResponseStatus() int { return tc.lastStatus }

// GetLastResponseBody returns the raw body of the last response.
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

// GetResponseField extracts a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &payload); err != nil {
		return nil, fmt.Errorf("last response is not a JSON object: %w", err)
	}
	value, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("field %q not present in response", field)
	}
	return value, nil
}

// ResponseContains reports whether the last JSON response has the field set.
func (tc *TestContext) ResponseContains(field string) bool {
	_, err := tc.GetResponseField(field)
	return err == nil
}

// SetOperatorID stores the provisioned operator's ID.
func (tc *TestContext) SetOperatorID(id string) { tc.operatorID = id }

// GetOperatorID returns the provisioned operator's ID.
func (tc *TestContext) GetOperatorID() string { return tc.operatorID }

// SetAPIKey stores the provisioned operator's API key.
func (tc *TestContext) SetAPIKey(key string) { tc.apiKey = key }

// GetAPIKey returns the provisioned operator's API key.
func (tc *TestContext) GetAPIKey() string { return tc.apiKey }

// SetAccessToken stores the bearer token attached to subsequent requests.
func (tc *TestContext) SetAccessToken(token string) { tc.accessToken = token }

// GetAccessToken returns the stored bearer token.
func (tc *TestContext) GetAccessToken() string { return tc.accessToken }
