package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/config"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/query"
)

func setupDirectory(t *testing.T) (Directory, uint) {
	t.Helper()
	d, err := db.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(d) })

	svc := applicant.NewService(d)
	ctx := context.Background()
	id, err := svc.Create(ctx, applicant.Input{Name: "Alice Tan", Email: "alice@x.com", PositionType: "intern", Department: "web-dev", Motivation: "Learn Go"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Create(ctx, applicant.Input{Name: "Bob Lee", Email: "bob@x.com", PositionType: "volunteer", Department: "design"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return Local(svc), id
}

func callTool(t *testing.T, dir Directory, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, tool := range Tools(dir) {
		if tool.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := tool.Handler(context.Background(), req)
		if err != nil {
			t.Fatalf("%s returned error: %v", name, err)
		}
		return res
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestToolsRegistered(t *testing.T) {
	dir, _ := setupDirectory(t)
	want := map[string]bool{"list_applicants": false, "get_applicant": false, "applicant_stats": false, "list_departments": false, "submit_application": false}
	for _, tool := range Tools(dir) {
		if _, ok := want[tool.Tool.Name]; !ok {
			t.Errorf("unexpected tool %s", tool.Tool.Name)
		}
		want[tool.Tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s missing", name)
		}
	}
	if NewServer(dir, "test") == nil {
		t.Error("expected a server")
	}
}

func TestListApplicantsTool(t *testing.T) {
	dir, _ := setupDirectory(t)

	res := callTool(t, dir, "list_applicants", map[string]any{"position_type": "volunteer"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var list []db.Applicant
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Bob Lee" {
		t.Errorf("unexpected list: %v", list)
	}

	res = callTool(t, dir, "list_applicants", nil)
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 applicants without filters, got %d", len(list))
	}
}

func TestGetApplicantTool(t *testing.T) {
	dir, id := setupDirectory(t)

	res := callTool(t, dir, "get_applicant", map[string]any{"id": float64(id)})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var a db.Applicant
	if err := json.Unmarshal([]byte(resultText(t, res)), &a); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if a.Motivation == nil || *a.Motivation != "Learn Go" {
		t.Errorf("expected motivation, got %+v", a.Motivation)
	}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing id", nil, "id must be a positive integer"},
		{"zero id", map[string]any{"id": float64(0)}, "id must be a positive integer"},
		{"unknown id", map[string]any{"id": float64(999)}, applicant.MsgNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, dir, "get_applicant", tt.args)
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStatsAndDepartmentsTools(t *testing.T) {
	dir, _ := setupDirectory(t)

	var st applicant.Stats
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, dir, "applicant_stats", nil))), &st); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if st.Total != 2 || st.Interns != 1 || st.Volunteers != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}

	var departments []string
	if err := json.Unmarshal([]byte(resultText(t, callTool(t, dir, "list_departments", nil))), &departments); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(departments) != 2 || departments[0] != "design" || departments[1] != "web-dev" {
		t.Errorf("unexpected departments: %v", departments)
	}
}

func TestSubmitApplicationTool(t *testing.T) {
	dir, _ := setupDirectory(t)

	res := callTool(t, dir, "submit_application", map[string]any{
		"name":          "  Carol Ng ",
		"email":         "carol@x.com",
		"position_type": "intern",
		"department":    "data",
		"motivation":    "Ship things",
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var out submitted
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if out.Message != applicant.MsgSubmitted || out.ID == 0 {
		t.Fatalf("unexpected result: %+v", out)
	}

	res = callTool(t, dir, "get_applicant", map[string]any{"id": float64(out.ID)})
	var a db.Applicant
	if err := json.Unmarshal([]byte(resultText(t, res)), &a); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if a.Name != "Carol Ng" || a.Department != "data" || a.Motivation == nil || *a.Motivation != "Ship things" {
		t.Errorf("unexpected stored applicant: %+v", a)
	}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing fields", map[string]any{"name": "Dan"}, applicant.MsgMissingFields},
		{"bad position", map[string]any{"name": "Dan", "email": "dan@x.com", "position_type": "manager", "department": "d"}, applicant.MsgInvalidPositionType},
		{"bad email", map[string]any{"name": "Dan", "email": "dan", "position_type": "intern", "department": "d"}, applicant.MsgInvalidEmail},
		{"duplicate email", map[string]any{"name": "Alice", "email": "alice@x.com", "position_type": "intern", "department": "d"}, applicant.MsgEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, dir, "submit_application", tt.args)
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type failingDirectory struct{}

var errBoom = errors.New("connection refused by 10.0.0.5")

func (failingDirectory) Create(context.Context, applicant.Input) (uint, error) {
	return 0, errBoom
}

func (failingDirectory) List(context.Context, query.Filter) ([]db.Applicant, error) {
	return nil, errBoom
}

func (failingDirectory) Get(context.Context, uint) (*db.Applicant, error) { return nil, errBoom }

func (failingDirectory) Stats(context.Context) (applicant.Stats, error) {
	return applicant.Stats{}, errBoom
}

func (failingDirectory) Departments(context.Context) ([]string, error) { return nil, errBoom }

func TestInternalErrorsStayGeneric(t *testing.T) {
	for _, name := range []string{"list_applicants", "applicant_stats", "list_departments", "submit_application"} {
		res := callTool(t, failingDirectory{}, name, nil)
		if !res.IsError {
			t.Fatalf("%s: expected tool error", name)
		}
		if got := resultText(t, res); got != applicant.MsgInternal {
			t.Errorf("%s: expected generic message, got %q", name, got)
		}
	}
}
