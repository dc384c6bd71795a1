package mcp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jfarrand/dimsim/internal/logging"
)

// Config holds server configuration.
type Config struct {
	Name    string // server name, e.g. "dimsim"
	Version string

	// NumEvents and MaxDays are the simulation defaults applied when a tool
	// call leaves them unset.
	NumEvents int
	MaxDays   int

	// ProgressPath enables attempt recording for evaluate_schema when set.
	ProgressPath string

	Logger *slog.Logger
	Audit  *logging.AuditLogger
}

// Server wraps the MCP SDK server with the simulator tools.
type Server struct {
	server *sdk.Server
	cfg    Config
	logger *slog.Logger
}

// NewServer creates an MCP server exposing the scenario tools.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NumEvents <= 0 {
		cfg.NumEvents = 1000
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 30
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			cfg.Logger.Debug("mcp client initialized")
		},
	})

	s := &Server{server: mcpServer, cfg: cfg, logger: cfg.Logger}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "generate_scenario",
		Description: "Generate a deterministic shop scenario and event stream for a seed and difficulty, returning the trap briefing",
	}, s.handleGenerateScenario)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_description",
		Description: "Get the prose business description for a scenario (the modeling brief; traps are not named)",
	}, s.handleGetDescription)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_scaffold",
		Description: "Get a starting-point schema skeleton with open modeling decisions for a scenario",
	}, s.handleGetScaffold)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "evaluate_schema",
		Description: "Evaluate a dimensional schema submission against a scenario's event stream and return the scored report",
	}, s.handleEvaluateSchema)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "explain_schema",
		Description: "Diagnose a schema submission with concrete failing-query scenarios replayed from real events",
	}, s.handleExplainSchema)
}

// Run starts the MCP server over stdio transport. It blocks until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if s.cfg.Audit != nil {
		s.cfg.Audit.Close()
	}
	return err
}
