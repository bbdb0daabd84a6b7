package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrMutationRejected is returned when a mutation response does not report a create or update.
var ErrMutationRejected = errors.New("cms mutation rejected")

// Config holds the connection settings for a Sanity project
type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	UseCDN     bool
	Timeout    time.Duration
	// BaseURL overrides the project host, mainly for tests.
	BaseURL string
}

// Client talks to the Sanity HTTP API
type Client struct {
	client   *resty.Client
	dataset  string
	version  string
	apiHost  string
	readHost string
}

// APIError is a non-2xx answer from the CMS
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms returned status %d: %s", e.StatusCode, e.Message)
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	version := strings.TrimPrefix(cfg.APIVersion, "v")
	if version == "" {
		version = "2021-10-21"
	}

	apiHost := fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	readHost := apiHost
	if cfg.UseCDN {
		readHost = fmt.Sprintf("https://%s.apicdn.sanity.io", cfg.ProjectID)
	}
	if cfg.BaseURL != "" {
		apiHost = strings.TrimSuffix(cfg.BaseURL, "/")
		readHost = apiHost
	}

	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}

	return &Client{
		client:   c,
		dataset:  cfg.Dataset,
		version:  version,
		apiHost:  apiHost,
		readHost: readHost,
	}
}

type queryEnvelope struct {
	Result json.RawMessage `json:"result"`
}

// Query runs a GROQ query. Params are bound as $name and JSON encoded.
// A null result leaves out untouched and reports found=false.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, out any) (bool, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("query", groq)

	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return false, fmt.Errorf("failed to encode query param %s: %w", name, err)
		}
		req.SetQueryParam("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s", c.readHost, c.version, url.PathEscape(c.dataset))
	resp, err := req.Get(endpoint)
	if err != nil {
		return false, fmt.Errorf("cms query failed: %w", err)
	}
	if resp.IsError() {
		return false, newAPIError(resp)
	}

	var envelope queryEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return false, fmt.Errorf("failed to parse cms query response: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return true, fmt.Errorf("failed to decode cms query result: %w", err)
	}
	return true, nil
}

// Mutation is one entry of a mutate transaction, e.g. {"createOrReplace": {...}}
type Mutation map[string]any

func CreateOrReplace(doc any) Mutation { return Mutation{"createOrReplace": doc} }
func Create(doc any) Mutation          { return Mutation{"create": doc} }

func Delete(id string) Mutation {
	return Mutation{"delete": map[string]string{"id": id}}
}

// MutateResult is the transaction summary returned by the CMS
type MutateResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Succeeded reports whether the first result is a create or update.
func (r *MutateResult) Succeeded() bool {
	if r == nil || len(r.Results) == 0 {
		return false
	}
	op := r.Results[0].Operation
	return op == "create" || op == "update"
}

// Mutate submits mutations as a single transaction.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) (*MutateResult, error) {
	if len(mutations) == 0 {
		return nil, fmt.Errorf("no mutations given")
	}

	var result MutateResult
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("returnIds", "true").
		SetBody(map[string]any{"mutations": mutations}).
		Post(fmt.Sprintf("%s/v%s/data/mutate/%s", c.apiHost, c.version, url.PathEscape(c.dataset)))
	if err != nil {
		return nil, fmt.Errorf("cms mutate failed: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse cms mutate response: %w", err)
	}
	return &result, nil
}

// Save writes doc with createOrReplace and fails unless the CMS confirms the write.
func (c *Client) Save(ctx context.Context, doc any) (*MutateResult, error) {
	result, err := c.Mutate(ctx, CreateOrReplace(doc))
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		return result, ErrMutationRejected
	}
	return result, nil
}

// Asset is an uploaded image asset
type Asset struct {
	ID  string `json:"_id"`
	URL string `json:"url"`
}

// UploadImage stores raw image bytes as an image asset.
func (c *Client) UploadImage(ctx context.Context, data []byte, mimeType, filename string) (*Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	var envelope struct {
		Document Asset `json:"document"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", mimeType).
		SetQueryParam("filename", filename).
		SetBody(data).
		Post(fmt.Sprintf("%s/v%s/assets/images/%s", c.apiHost, c.version, url.PathEscape(c.dataset)))
	if err != nil {
		return nil, fmt.Errorf("cms asset upload failed: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse cms asset response: %w", err)
	}
	if envelope.Document.ID == "" {
		return nil, fmt.Errorf("cms asset upload returned no document")
	}
	return &envelope.Document, nil
}

func newAPIError(resp *resty.Response) error {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	msg := strings.TrimSpace(resp.String())
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		var detail struct {
			Description string `json:"description"`
		}
		var plain string
		switch {
		case json.Unmarshal(body.Error, &detail) == nil && detail.Description != "":
			msg = detail.Description
		case json.Unmarshal(body.Error, &plain) == nil && plain != "":
			msg = plain
			if body.Message != "" {
				msg += ": " + body.Message
			}
		case body.Message != "":
			msg = body.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
