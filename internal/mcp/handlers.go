package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jfarrand/dimsim/internal/briefing"
	"github.com/jfarrand/dimsim/internal/describe"
	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/explain"
	"github.com/jfarrand/dimsim/internal/progress"
	"github.com/jfarrand/dimsim/internal/scaffold"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// auditTool records one tool invocation in the audit log, if enabled.
func (s *Server) auditTool(tool string, start time.Time, retErr error, params map[string]any) {
	if s.cfg.Audit == nil {
		return
	}
	entry := map[string]any{
		"tool":        tool,
		"duration_ms": time.Since(start).Milliseconds(),
		"params":      params,
	}
	if retErr != nil {
		entry["error"] = retErr.Error()
	}
	s.cfg.Audit.Log(entry)
}

// resolveConfig parses the scenario identity shared by every tool.
func resolveConfig(in ScenarioInput) (*shop.Config, error) {
	difficulty := shop.DifficultyMedium
	if in.Difficulty != "" {
		d, err := shop.ParseDifficulty(in.Difficulty)
		if err != nil {
			return nil, err
		}
		difficulty = d
	}
	cfg, err := shop.Generate(in.Seed, difficulty)
	if err != nil {
		return nil, fmt.Errorf("generating scenario: %w", err)
	}
	return cfg, nil
}

func (s *Server) simulate(cfg *shop.Config, numEvents, maxDays int) (*events.Log, error) {
	if numEvents <= 0 {
		numEvents = s.cfg.NumEvents
	}
	if maxDays <= 0 {
		maxDays = s.cfg.MaxDays
	}
	return events.NewSimulator(cfg).Simulate(numEvents, maxDays)
}

func (s *Server) handleGenerateScenario(ctx context.Context, req *sdk.CallToolRequest, args GenerateScenarioInput) (_ *sdk.CallToolResult, _ GenerateScenarioOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("generate_scenario", start, retErr, map[string]any{
			"seed": args.Seed, "difficulty": args.Difficulty,
		})
	}()

	cfg, err := resolveConfig(args.ScenarioInput)
	if err != nil {
		return nil, GenerateScenarioOutput{}, err
	}
	log, err := s.simulate(cfg, args.NumEvents, args.MaxDays)
	if err != nil {
		return nil, GenerateScenarioOutput{}, err
	}

	byKind := make(map[string]int)
	for kind, n := range log.CountByKind() {
		byKind[string(kind)] = n
	}

	out := GenerateScenarioOutput{
		Seed:          cfg.Seed,
		Difficulty:    string(cfg.Difficulty),
		ShopName:      cfg.ShopName,
		EventCount:    len(log.Events),
		DaysSimulated: log.DaysSimulated,
		Truncated:     log.Truncated,
		EventsByKind:  byKind,
		Briefing:      briefing.New(cfg).Render(cfg.ShopName, cfg.Seed, len(log.Events)),
	}
	s.logger.Info("scenario generated",
		"seed", cfg.Seed, "difficulty", cfg.Difficulty, "events", len(log.Events))
	return nil, out, nil
}

func (s *Server) handleGetDescription(ctx context.Context, req *sdk.CallToolRequest, args GetDescriptionInput) (_ *sdk.CallToolResult, _ GetDescriptionOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("get_description", start, retErr, map[string]any{
			"seed": args.Seed, "difficulty": args.Difficulty,
		})
	}()

	cfg, err := resolveConfig(args.ScenarioInput)
	if err != nil {
		return nil, GetDescriptionOutput{}, err
	}
	text, err := describe.Generate(cfg)
	if err != nil {
		return nil, GetDescriptionOutput{}, err
	}
	return nil, GetDescriptionOutput{ShopName: cfg.ShopName, Description: text}, nil
}

func (s *Server) handleGetScaffold(ctx context.Context, req *sdk.CallToolRequest, args GetScaffoldInput) (_ *sdk.CallToolResult, _ GetScaffoldOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("get_scaffold", start, retErr, map[string]any{
			"seed": args.Seed, "difficulty": args.Difficulty,
		})
	}()

	cfg, err := resolveConfig(args.ScenarioInput)
	if err != nil {
		return nil, GetScaffoldOutput{}, err
	}
	sc := scaffold.Generate(cfg)
	text, err := sc.Render()
	if err != nil {
		return nil, GetScaffoldOutput{}, err
	}
	return nil, GetScaffoldOutput{Scaffold: text, Todos: sc.Todos, Warnings: sc.Warnings}, nil
}

// grade parses a submission and evaluates it against the scenario.
func (s *Server) grade(in SubmissionInput) (*shop.Config, *events.Log, *schema.Submission, *evaluator.Report, error) {
	cfg, err := resolveConfig(in.ScenarioInput)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	sub, err := schema.Parse([]byte(in.Schema))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log, err := s.simulate(cfg, in.NumEvents, in.MaxDays)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	report, err := evaluator.Evaluate(cfg, log, sub)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return cfg, log, sub, report, nil
}

func (s *Server) handleEvaluateSchema(ctx context.Context, req *sdk.CallToolRequest, args EvaluateSchemaInput) (_ *sdk.CallToolResult, _ EvaluateSchemaOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("evaluate_schema", start, retErr, map[string]any{
			"seed": args.Seed, "difficulty": args.Difficulty,
		})
	}()

	cfg, _, sub, report, err := s.grade(args.SubmissionInput)
	if err != nil {
		return nil, EvaluateSchemaOutput{}, err
	}

	out := EvaluateSchemaOutput{
		TotalScore:    report.TotalScore,
		MaxScore:      report.MaxScore,
		Percentage:    report.Percentage(),
		WeightedScore: report.WeightedScore,
		Report:        report,
		Rendered:      report.Render(),
	}

	if s.cfg.ProgressPath != "" {
		store, err := progress.Open(s.cfg.ProgressPath)
		if err != nil {
			return nil, EvaluateSchemaOutput{}, err
		}
		defer store.Close()
		outcome, err := store.Record(ctx, cfg.Seed, cfg.Difficulty, sub.Hash(), report)
		if err != nil {
			return nil, EvaluateSchemaOutput{}, err
		}
		out.Outcome = outcome.Message()
	}

	s.logger.Info("schema evaluated",
		"seed", cfg.Seed, "score", report.TotalScore, "max", report.MaxScore)
	return nil, out, nil
}

func (s *Server) handleExplainSchema(ctx context.Context, req *sdk.CallToolRequest, args ExplainSchemaInput) (_ *sdk.CallToolResult, _ ExplainSchemaOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("explain_schema", start, retErr, map[string]any{
			"seed": args.Seed, "difficulty": args.Difficulty,
		})
	}()

	cfg, log, sub, _, err := s.grade(args.SubmissionInput)
	if err != nil {
		return nil, ExplainSchemaOutput{}, err
	}

	diagnosis, err := explain.NewAnalyzer(cfg, log).Analyze(sub)
	if err != nil {
		return nil, ExplainSchemaOutput{}, err
	}

	return nil, ExplainSchemaOutput{
		IssuesFound: diagnosis.IssuesFound,
		Scenarios:   diagnosis.Scenarios,
		Summary:     diagnosis.Summary,
		Rendered:    diagnosis.Render(),
	}, nil
}
