// Package mcptools exposes the applicant operations as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/common"
	"github.com/swayamsankar/intern-app/internal/db"
	"github.com/swayamsankar/intern-app/internal/query"
)

// Directory is the applicant store as the tools see it. It is served either
// by a local *applicant.Service (see Local) or by webserver.Client when
// another instance already owns the store.
type Directory interface {
	Create(ctx context.Context, in applicant.Input) (uint, error)
	List(ctx context.Context, f query.Filter) ([]db.Applicant, error)
	Get(ctx context.Context, id uint) (*db.Applicant, error)
	Stats(ctx context.Context) (applicant.Stats, error)
	Departments(ctx context.Context) ([]string, error)
}

type local struct {
	*applicant.Service
}

// Local adapts a service to Directory.
func Local(svc *applicant.Service) Directory {
	return local{svc}
}

func (l local) Stats(ctx context.Context) (applicant.Stats, error) {
	return l.Service.Stats(ctx), nil
}

// NewServer builds an MCP server with every tool registered.
func NewServer(dir Directory, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"intern-app",
		version,
		server.WithToolCapabilities(false),
	)
	s.AddTools(Tools(dir)...)
	return s
}

func Tools(dir Directory) []server.ServerTool {
	h := handlers{dir: dir}
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_applicants",
				mcp.WithDescription("List submitted applications, newest first. All filters are optional."),
				mcp.WithString("search",
					mcp.Description("Case-insensitive substring matched against name, email and department"),
				),
				mcp.WithString("position_type",
					mcp.Description("Restrict to one position type"),
					mcp.Enum("intern", "volunteer", query.All),
				),
				mcp.WithString("department",
					mcp.Description("Restrict to one department slug, e.g. web-dev"),
				),
			),
			Handler: h.listApplicants,
		},
		{
			Tool: mcp.NewTool("get_applicant",
				mcp.WithDescription("Get one application by id, including the free-text answers."),
				mcp.WithNumber("id",
					mcp.Required(),
					mcp.Description("Applicant id"),
				),
			),
			Handler: h.getApplicant,
		},
		{
			Tool: mcp.NewTool("applicant_stats",
				mcp.WithDescription("Count all applications, interns and volunteers."),
			),
			Handler: h.stats,
		},
		{
			Tool: mcp.NewTool("list_departments",
				mcp.WithDescription("List the distinct departments applicants have applied to."),
			),
			Handler: h.departments,
		},
		{
			Tool: mcp.NewTool("submit_application",
				mcp.WithDescription("Submit a new application. It is validated exactly like the public form."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Full name")),
				mcp.WithString("email", mcp.Required(), mcp.Description("Email address, unique across applications")),
				mcp.WithString("position_type",
					mcp.Required(),
					mcp.Description("Position applied for"),
					mcp.Enum("intern", "volunteer"),
				),
				mcp.WithString("department", mcp.Required(), mcp.Description("Department slug, e.g. web-dev")),
				mcp.WithString("phone", mcp.Description("Phone number")),
				mcp.WithString("experience", mcp.Description("Relevant experience")),
				mcp.WithString("motivation", mcp.Description("Why the applicant wants to join")),
				mcp.WithString("availability", mcp.Description("When the applicant can start")),
			),
			Handler: h.submitApplication,
		},
	}
}

type handlers struct {
	dir Directory
}

func (h handlers) listApplicants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := query.Filter{
		Search:       request.GetString("search", ""),
		PositionType: request.GetString("position_type", ""),
		Department:   request.GetString("department", ""),
	}
	list, err := h.dir.List(ctx, f)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list)
}

func (h handlers) getApplicant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil || id <= 0 {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}
	a, err := h.dir.Get(ctx, uint(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a)
}

func (h handlers) stats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.dir.Stats(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

func (h handlers) departments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	departments, err := h.dir.Departments(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(departments)
}

// submitApplication leaves required-field checks to the service so the
// assistant gets the same messages as the form.
func (h handlers) submitApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := applicant.Input{
		Name:         request.GetString("name", ""),
		Email:        request.GetString("email", ""),
		Phone:        request.GetString("phone", ""),
		PositionType: request.GetString("position_type", ""),
		Department:   request.GetString("department", ""),
		Experience:   request.GetString("experience", ""),
		Motivation:   request.GetString("motivation", ""),
		Availability: request.GetString("availability", ""),
	}
	id, err := h.dir.Create(ctx, in)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(submitted{Message: applicant.MsgSubmitted, ID: id})
}

type submitted struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

// toolError reports the client-safe message of err to the assistant.
func toolError(err error) *mcp.CallToolResult {
	var appErr *common.Error
	if errors.As(err, &appErr) && appErr.Code != common.CodeInternal {
		return mcp.NewToolResultError(appErr.Message)
	}
	return mcp.NewToolResultError(applicant.MsgInternal)
}
