// Package mcp exposes the measurement pipeline over the Model Context
// Protocol, so agents can register captures, build overviews, and run scans
// through typed tools.
package mcp

import (
	"context"
	"fmt"

	"autopsy/internal/artifact"
	"autopsy/internal/logging"
	"autopsy/internal/overview"
	"autopsy/internal/pass1"
	"autopsy/internal/registry"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server around a shared artifact store and registry.
type Server struct {
	MCPServer *sdkmcp.Server

	store *artifact.Store
	reg   *registry.Registry
	cache *pass1.Cache
}

// NewServer creates an MCP server with measurement pipeline tools over the
// given store and registry.
func NewServer(store *artifact.Store, reg *registry.Registry) *Server {
	s := &Server{
		store: store,
		reg:   reg,
		cache: pass1.NewCache(store, reg),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "autopsy", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "register_measurement",
		Description: "Register a measurement file. Idempotent: the same file content yields the same measurement ID.",
	}, s.handleRegisterMeasurement)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_measurements",
		Description: "List all registered measurements with their paths, labels, and formats.",
	}, s.handleListMeasurements)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "build_overview",
		Description: "Build (or reuse) the bucketed min/mean/max overview table for a measurement. Returns the artifact path and cache key.",
	}, s.handleBuildOverview)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_pass1",
		Description: "Run the first-pass anomaly scan: missing-data, flatline, and spike detection merged into ranked windows. Memoized per configuration.",
	}, s.handleRunPass1)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_result",
		Description: "Fetch a previously computed scan result by measurement ID and result key.",
	}, s.handleGetResult)
}

// --- Tool input/output types ---

type registerMeasurementInput struct {
	Path  string `json:"path" jsonschema:"path to the measurement file (CSV or MDF)"`
	Label string `json:"label,omitempty" jsonschema:"optional human-readable label"`
}

type registerMeasurementOutput struct {
	MeasurementID string `json:"measurement_id"`
	Path          string `json:"path"`
	Label         string `json:"label,omitempty"`
}

type listMeasurementsInput struct{}

type listMeasurementsOutput struct {
	Measurements []*registry.MeasurementMeta `json:"measurements"`
	Total        int                         `json:"total"`
}

type buildOverviewInput struct {
	MeasurementID string          `json:"measurement_id" jsonschema:"measurement ID from register_measurement"`
	Config        overview.Config `json:"config,omitempty" jsonschema:"overview build config; omitted fields use defaults"`
}

type buildOverviewOutput struct {
	Path     string `json:"path"`
	Key      string `json:"key"`
	CacheHit bool   `json:"cache_hit"`
}

type runPass1Input struct {
	MeasurementID string          `json:"measurement_id" jsonschema:"measurement ID from register_measurement"`
	Overview      overview.Config `json:"overview,omitempty" jsonschema:"overview build config; omitted fields use defaults"`
	Pass1         pass1.Config    `json:"pass1,omitempty" jsonschema:"detection thresholds; omitted fields use defaults"`
}

type getResultInput struct {
	MeasurementID string `json:"measurement_id" jsonschema:"measurement ID from register_measurement"`
	Key           string `json:"key" jsonschema:"result key from a prior run_pass1"`
}

// --- Tool handlers ---

func (s *Server) handleRegisterMeasurement(ctx context.Context, _ *sdkmcp.CallToolRequest, input registerMeasurementInput) (*sdkmcp.CallToolResult, registerMeasurementOutput, error) {
	if input.Path == "" {
		return nil, registerMeasurementOutput{}, fmt.Errorf("path is required")
	}
	ref, err := s.reg.Register(input.Path, input.Label)
	if err != nil {
		return nil, registerMeasurementOutput{}, fmt.Errorf("register_measurement: %w", err)
	}
	logging.New("mcp").Info("measurement registered", "id", ref.ID, "path", ref.Path)
	return nil, registerMeasurementOutput{
		MeasurementID: ref.ID,
		Path:          ref.Path,
		Label:         ref.Label,
	}, nil
}

func (s *Server) handleListMeasurements(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listMeasurementsInput) (*sdkmcp.CallToolResult, listMeasurementsOutput, error) {
	metas, err := s.reg.List()
	if err != nil {
		return nil, listMeasurementsOutput{}, fmt.Errorf("list_measurements: %w", err)
	}
	return nil, listMeasurementsOutput{Measurements: metas, Total: len(metas)}, nil
}

func (s *Server) handleBuildOverview(ctx context.Context, _ *sdkmcp.CallToolRequest, input buildOverviewInput) (*sdkmcp.CallToolResult, buildOverviewOutput, error) {
	if input.MeasurementID == "" {
		return nil, buildOverviewOutput{}, fmt.Errorf("measurement_id is required")
	}
	res, err := overview.Build(s.reg, s.store, input.MeasurementID, input.Config)
	if err != nil {
		return nil, buildOverviewOutput{}, fmt.Errorf("build_overview: %w", err)
	}
	return nil, buildOverviewOutput{
		Path:     res.Path,
		Key:      res.Key,
		CacheHit: res.CacheHit,
	}, nil
}

func (s *Server) handleRunPass1(ctx context.Context, _ *sdkmcp.CallToolRequest, input runPass1Input) (*sdkmcp.CallToolResult, *pass1.Result, error) {
	if input.MeasurementID == "" {
		return nil, nil, fmt.Errorf("measurement_id is required")
	}
	res, err := s.cache.Run(input.MeasurementID, input.Overview, input.Pass1)
	if err != nil {
		return nil, nil, fmt.Errorf("run_pass1: %w", err)
	}
	logging.New("mcp").Info("scan served",
		"id", input.MeasurementID, "key", res.Key, "cache_hit", res.CacheHit, "windows", len(res.Windows))
	return nil, res, nil
}

func (s *Server) handleGetResult(ctx context.Context, _ *sdkmcp.CallToolRequest, input getResultInput) (*sdkmcp.CallToolResult, *pass1.Result, error) {
	if input.MeasurementID == "" || input.Key == "" {
		return nil, nil, fmt.Errorf("measurement_id and key are required")
	}
	res, err := s.cache.Load(input.MeasurementID, input.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("get_result: %w", err)
	}
	return nil, res, nil
}
