// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// planning service.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/domain"
	"github.com/hovden/spanlane/internal/timeline"
)

// PlanService defines the app surface the MCP tools call into.
type PlanService interface {
	ListActivities(context.Context, bool) ([]domain.Activity, error)
	GetActivity(context.Context, string) (domain.Activity, error)
	CreateActivity(context.Context, app.CreateActivityInput) (domain.Activity, error)
	UpdateActivity(context.Context, app.UpdateActivityInput) (domain.Activity, error)
	SetDependencies(context.Context, string, []string) (domain.Activity, error)
	DeleteActivity(context.Context, string, app.DeleteMode) error
	RestoreActivity(context.Context, string) (domain.Activity, error)
	ComputeLayout(context.Context, timeline.RowMetrics) (timeline.Layout, error)
	EstimateTimeline(app.EstimationRequest) app.EstimationResult
}

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the plan tools.
func NewHandler(cfg Config, plan PlanService) (*Handler, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerActivityTools(mcpSrv, plan)
	registerLayoutTool(mcpSrv, plan)
	registerEstimateTool(mcpSrv, plan)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "spanlane"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerActivityTools registers the `plan.*` activity CRUD tools.
func registerActivityTools(srv *mcpserver.MCPServer, plan PlanService) {
	srv.AddTool(
		mcp.NewTool(
			"plan.list_activities",
			mcp.WithDescription("List plan activities ordered by start date."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived activities")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			activities, err := plan.ListActivities(ctx, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"activities": activities,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_activities result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"plan.create_activity",
			mcp.WithDescription("Create a new plan activity with a start/end span."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Activity name")),
			mcp.WithString("kind", mcp.Description("Activity kind"), mcp.Enum(kindValues()...)),
			mcp.WithString("status", mcp.Description("Activity status"), mcp.Enum(statusValues()...)),
			mcp.WithString("start", mcp.Required(), mcp.Description("Start date (2006-01-02 or RFC 3339)")),
			mcp.WithString("end", mcp.Required(), mcp.Description("End date (2006-01-02 or RFC 3339)")),
			mcp.WithString("assignees", mcp.Description("Comma-separated assignees")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithString("notes", mcp.Description("Markdown notes")),
			mcp.WithString("dependencies", mcp.Description("Comma-separated prerequisite activity ids")),
			mcp.WithNumber("progress", mcp.Description("Completion percentage 0-100")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			start, end, err := requireSpan(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			kind, err := domain.ParseKind(req.GetString("kind", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := domain.ParseStatus(req.GetString("status", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			activity, err := plan.CreateActivity(ctx, app.CreateActivityInput{
				Name:         name,
				Kind:         kind,
				Status:       status,
				Start:        start,
				End:          end,
				Assignees:    splitCSV(req.GetString("assignees", "")),
				Tags:         splitCSV(req.GetString("tags", "")),
				Notes:        req.GetString("notes", ""),
				Dependencies: splitCSV(req.GetString("dependencies", "")),
				Progress:     req.GetInt("progress", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(activity)
			if err != nil {
				return nil, fmt.Errorf("encode create_activity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"plan.update_activity",
			mcp.WithDescription("Update one activity's details and span."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Activity id")),
			mcp.WithString("name", mcp.Description("Activity name (unchanged when omitted)")),
			mcp.WithString("kind", mcp.Description("Activity kind"), mcp.Enum(kindValues()...)),
			mcp.WithString("status", mcp.Description("Activity status"), mcp.Enum(statusValues()...)),
			mcp.WithString("start", mcp.Description("Start date (unchanged when omitted)")),
			mcp.WithString("end", mcp.Description("End date (unchanged when omitted)")),
			mcp.WithString("assignees", mcp.Description("Comma-separated assignees")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithString("notes", mcp.Description("Markdown notes")),
			mcp.WithNumber("progress", mcp.Description("Completion percentage 0-100")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			current, err := plan.GetActivity(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			input, err := mergeUpdateInput(req, current)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			activity, err := plan.UpdateActivity(ctx, input)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(activity)
			if err != nil {
				return nil, fmt.Errorf("encode update_activity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"plan.delete_activity",
			mcp.WithDescription("Archive or hard-delete one activity."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Activity id")),
			mcp.WithString("mode", mcp.Description("archive or hard (configured default when omitted)"), mcp.Enum("archive", "hard")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			mode := app.DeleteMode(req.GetString("mode", ""))
			if err := plan.DeleteActivity(ctx, id, mode); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"id":      id,
				"deleted": true,
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_activity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"plan.restore_activity",
			mcp.WithDescription("Clear the archived marker on one activity."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Activity id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			activity, err := plan.RestoreActivity(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(activity)
			if err != nil {
				return nil, fmt.Errorf("encode restore_activity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"plan.set_dependencies",
			mcp.WithDescription("Replace one activity's prerequisite set. Unknown ids are kept and simply route no connector."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Activity id")),
			mcp.WithString("depends_on", mcp.Description("Comma-separated prerequisite activity ids (empty clears)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			activity, err := plan.SetDependencies(ctx, id, splitCSV(req.GetString("depends_on", "")))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(activity)
			if err != nil {
				return nil, fmt.Errorf("encode set_dependencies result: %w", err)
			}
			return result, nil
		},
	)
}

// registerLayoutTool registers the `plan.compute_layout` tool.
func registerLayoutTool(srv *mcpserver.MCPServer, plan PlanService) {
	srv.AddTool(
		mcp.NewTool(
			"plan.compute_layout",
			mcp.WithDescription("Run one full timeline layout pass: bounds, row packing, conflicts, month markers, and connectors."),
			mcp.WithNumber("row_height", mcp.Description("Row height in pixels (default 40)")),
			mcp.WithNumber("top_offset", mcp.Description("Chart top offset in pixels (default 60)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			metrics := timeline.RowMetrics{
				RowHeight: req.GetFloat("row_height", 40),
				TopOffset: req.GetFloat("top_offset", 60),
			}
			if metrics.RowHeight <= 0 {
				return mcp.NewToolResultError("row_height must be > 0"), nil
			}
			layout, err := plan.ComputeLayout(ctx, metrics)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(layout)
			if err != nil {
				return nil, fmt.Errorf("encode compute_layout result: %w", err)
			}
			return result, nil
		},
	)
}

// registerEstimateTool registers the `plan.estimate_timeline` tool.
func registerEstimateTool(srv *mcpserver.MCPServer, plan PlanService) {
	srv.AddTool(
		mcp.NewTool(
			"plan.estimate_timeline",
			mcp.WithDescription("Estimate migration duration and task breakdown for a workload."),
			mcp.WithNumber("vm_count", mcp.Required(), mcp.Description("Number of virtual machines")),
			mcp.WithNumber("host_count", mcp.Description("Number of hosts")),
			mcp.WithString("infrastructure", mcp.Description("Target infrastructure"), mcp.Enum("traditional", "hci_s2d", "azure_local")),
			mcp.WithBoolean("compatibility_issues", mcp.Description("Whether known compatibility issues exist")),
		),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			vmCount, err := req.RequireInt("vm_count")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			estimate := plan.EstimateTimeline(app.EstimationRequest{
				VMCount:             vmCount,
				HostCount:           req.GetInt("host_count", 0),
				Infrastructure:      app.InfrastructureType(req.GetString("infrastructure", "traditional")),
				CompatibilityIssues: req.GetBool("compatibility_issues", false),
			})
			result, err := mcp.NewToolResultJSON(estimate)
			if err != nil {
				return nil, fmt.Errorf("encode estimate_timeline result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, app.ErrInvalidDeleteMode),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSpan),
		errors.Is(err, domain.ErrInvalidProgress):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

// requireSpan parses the required start/end tool arguments.
func requireSpan(req mcp.CallToolRequest) (time.Time, time.Time, error) {
	rawStart, err := req.RequireString("start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	rawEnd, err := req.RequireString("end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := parseToolDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseToolDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// mergeUpdateInput overlays provided tool arguments onto the current activity.
func mergeUpdateInput(req mcp.CallToolRequest, current domain.Activity) (app.UpdateActivityInput, error) {
	input := app.UpdateActivityInput{
		ID:        current.ID,
		Name:      req.GetString("name", current.Name),
		Kind:      current.Kind,
		Status:    current.Status,
		Start:     current.Start,
		End:       current.End,
		Assignees: current.Assignees,
		Tags:      current.Tags,
		Notes:     req.GetString("notes", current.Notes),
		Progress:  req.GetInt("progress", current.Progress),
	}
	if raw := req.GetString("kind", ""); raw != "" {
		kind, err := domain.ParseKind(raw)
		if err != nil {
			return app.UpdateActivityInput{}, fmt.Errorf("kind: %w", err)
		}
		input.Kind = kind
	}
	if raw := req.GetString("status", ""); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return app.UpdateActivityInput{}, fmt.Errorf("status: %w", err)
		}
		input.Status = status
	}
	if raw := req.GetString("start", ""); raw != "" {
		start, err := parseToolDate(raw)
		if err != nil {
			return app.UpdateActivityInput{}, fmt.Errorf("start: %w", err)
		}
		input.Start = start
	}
	if raw := req.GetString("end", ""); raw != "" {
		end, err := parseToolDate(raw)
		if err != nil {
			return app.UpdateActivityInput{}, fmt.Errorf("end: %w", err)
		}
		input.End = end
	}
	if raw := req.GetString("assignees", ""); raw != "" {
		input.Assignees = splitCSV(raw)
	}
	if raw := req.GetString("tags", ""); raw != "" {
		input.Tags = splitCSV(raw)
	}
	return input, nil
}

// parseToolDate accepts plain dates and RFC 3339 timestamps.
func parseToolDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want 2006-01-02 or RFC 3339)", raw)
	}
	return t, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func kindValues() []string {
	kinds := domain.Kinds()
	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = string(kind)
	}
	return out
}

func statusValues() []string {
	statuses := domain.Statuses()
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
