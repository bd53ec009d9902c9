package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/domain"
	"github.com/hovden/spanlane/internal/timeline"
)

type stubPlan struct{}

func (stubPlan) ListActivities(context.Context, bool) ([]domain.Activity, error) { return nil, nil }
func (stubPlan) GetActivity(context.Context, string) (domain.Activity, error) {
	return domain.Activity{}, app.ErrNotFound
}
func (stubPlan) CreateActivity(context.Context, app.CreateActivityInput) (domain.Activity, error) {
	return domain.Activity{}, nil
}
func (stubPlan) UpdateActivity(context.Context, app.UpdateActivityInput) (domain.Activity, error) {
	return domain.Activity{}, nil
}
func (stubPlan) SetDependencies(context.Context, string, []string) (domain.Activity, error) {
	return domain.Activity{}, nil
}
func (stubPlan) DeleteActivity(context.Context, string, app.DeleteMode) error { return nil }
func (stubPlan) RestoreActivity(context.Context, string) (domain.Activity, error) {
	return domain.Activity{}, nil
}
func (stubPlan) ComputeLayout(context.Context, timeline.RowMetrics) (timeline.Layout, error) {
	return timeline.Layout{}, nil
}
func (stubPlan) EstimateTimeline(app.EstimationRequest) app.EstimationResult {
	return app.EstimationResult{}
}

// TestNewHandlerServesHealth verifies the composed mux answers health probes.
func TestNewHandlerServesHealth(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Plan: stubPlan{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != "127.0.0.1:7465" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %+v", cfg)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := server.Client().Get(server.URL + path)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
			t.Fatalf("%s status = %d body = %q", path, resp.StatusCode, body)
		}
	}
}

// TestNewHandlerRequiresPlan verifies the plan dependency is enforced.
func TestNewHandlerRequiresPlan(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error for missing plan dependency")
	}
}

// TestNormalizeServerConfig verifies endpoint defaults and collision rejection.
func TestNormalizeServerConfig(t *testing.T) {
	cfg, err := normalizeConfig(Config{HTTPBind: " 0.0.0.0:9000 ", MCPEndpoint: "tools///"})
	if err != nil {
		t.Fatalf("normalizeConfig() error = %v", err)
	}
	if cfg.HTTPBind != "0.0.0.0:9000" || cfg.MCPEndpoint != "/tools" {
		t.Fatalf("unexpected normalized config %+v", cfg)
	}
	if cfg.ServerName != "spanlane" || cfg.ServerVersion != "dev" {
		t.Fatalf("unexpected identity defaults %+v", cfg)
	}

	if _, err := normalizeConfig(Config{MCPEndpoint: "/healthz"}); err == nil {
		t.Fatal("expected health endpoint collision error")
	}
}

// TestRunShutsDownOnContextCancel verifies Run exits cleanly when cancelled.
func TestRunShutsDownOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Plan: stubPlan{}})
	}()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() after cancel error = %v", err)
	}
}
