package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apiv1 "github.com/beam-cloud/mailsync/pkg/api/v1"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const defaultRequestTimeout = 5 * time.Minute

// Client talks to the gateway's HTTP API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the gateway at baseURL
func NewClient(baseURL, token string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

// APIError is a non-2xx gateway response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d", e.Status)
	}
	return e.Message
}

type apiResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// do sends a request and decodes the body into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiv1.HttpServerBaseRoute+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Addr: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure apiResponse
		_ = json.Unmarshal(raw, &failure)
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// data sends a request whose response uses the {success, data} envelope
func (c *Client) data(ctx context.Context, method, path string, body, out interface{}) error {
	var resp apiResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Data, out)
}

func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) Sweep(ctx context.Context, manual bool) (*apiv1.SweepResponse, error) {
	var out apiv1.SweepResponse
	err := c.do(ctx, http.MethodPost, "/sync/sweep", apiv1.SweepRequest{ManualTrigger: manual}, &out)
	return &out, err
}

// Sync runs one sync kind: folders, messages or account
func (c *Client) Sync(ctx context.Context, kind, accountId string) (*apiv1.SyncResponse, error) {
	var out apiv1.SyncResponse
	err := c.do(ctx, http.MethodPost, "/sync/"+kind, apiv1.SyncRequest{AccountId: accountId}, &out)
	return &out, err
}

func (c *Client) ListJobs(ctx context.Context, filter types.JobFilter) ([]*types.SyncJob, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.AccountId != "" {
		q.Set("account_id", filter.AccountId)
	}
	if filter.Limit > 0 {
		q.Set("limit", fmt.Sprint(filter.Limit))
	}

	path := "/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var jobs []*types.SyncJob
	err := c.data(ctx, http.MethodGet, path, nil, &jobs)
	return jobs, err
}

func (c *Client) CreateJob(ctx context.Context, accountId, schedule string) (*types.SyncJob, error) {
	var job types.SyncJob
	err := c.data(ctx, http.MethodPost, "/jobs", apiv1.CreateJobRequest{AccountId: accountId, Schedule: schedule}, &job)
	return &job, err
}

func (c *Client) RetryJob(ctx context.Context, id string) (*types.SyncJob, error) {
	var job types.SyncJob
	err := c.data(ctx, http.MethodPost, "/jobs/"+url.PathEscape(id)+"/retry", nil, &job)
	return &job, err
}

func (c *Client) CancelJob(ctx context.Context, id string) (*types.SyncJob, error) {
	var job types.SyncJob
	err := c.data(ctx, http.MethodPost, "/jobs/"+url.PathEscape(id)+"/cancel", nil, &job)
	return &job, err
}

func (c *Client) ListAccounts(ctx context.Context) ([]*types.Account, error) {
	var accounts []*types.Account
	err := c.data(ctx, http.MethodGet, "/accounts", nil, &accounts)
	return accounts, err
}

func (c *Client) ValidateAccount(ctx context.Context, req apiv1.CreateAccountRequest) error {
	return c.do(ctx, http.MethodPost, "/accounts/validate", req, nil)
}
