package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/query"
)

// Client talks to a running server over its JSON API. Errors carry the same
// common codes the service layer would have returned locally.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Healthy reports whether a server answers the health check at baseURL.
func (c *Client) Healthy(ctx context.Context) bool {
	var body map[string]string
	if err := c.get(ctx, "/api/health", nil, &body); err != nil {
		return false
	}
	return body["status"] == "ok"
}

func (c *Client) List(ctx context.Context, f query.Filter) ([]db.Applicant, error) {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.PositionType != "" {
		v.Set("position_type", f.PositionType)
	}
	if f.Department != "" {
		v.Set("department", f.Department)
	}
	var list []db.Applicant
	if err := c.get(ctx, "/api/applicants", v, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []db.Applicant{}
	}
	return list, nil
}

func (c *Client) Get(ctx context.Context, id uint) (*db.Applicant, error) {
	var a db.Applicant
	if err := c.get(ctx, fmt.Sprintf("/api/applicants/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Stats(ctx context.Context) (applicant.Stats, error) {
	var st applicant.Stats
	err := c.get(ctx, "/api/stats", nil, &st)
	return st, err
}

func (c *Client) Departments(ctx context.Context) ([]string, error) {
	var departments []string
	if err := c.get(ctx, "/api/departments", nil, &departments); err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []string{}
	}
	return departments, nil
}

// Create submits an application and returns the new applicant's id.
func (c *Client) Create(ctx context.Context, in applicant.Input) (uint, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/applicants", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result createdBody
	if err := c.do(req, http.StatusCreated, &result); err != nil {
		return 0, err
	}
	return result.ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to reach server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = fmt.Sprintf("server returned status %d", resp.StatusCode)
		}
		return &common.Error{Code: codeFor(resp.StatusCode), Message: body.Error, Fields: body.Fields}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return common.NewError(common.CodeInternal, "failed to decode response", err)
	}
	return nil
}

func codeFor(status int) common.Code {
	switch status {
	case http.StatusBadRequest:
		return common.CodeValidation
	case http.StatusConflict:
		return common.CodeConflict
	case http.StatusNotFound:
		return common.CodeNotFound
	case http.StatusTooManyRequests:
		return common.CodeRateLimited
	default:
		return common.CodeInternal
	}
}
