// Package session runs one complete challenge: generate a scenario, write
// its artifacts, and optionally grade a submission against it. The play
// command and the MCP server are both thin wrappers around this.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

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

// Options configures a session run. OutputDir is the only required field
// besides the scenario identity; everything else has a workable zero value.
type Options struct {
	Seed       int64
	Difficulty shop.Difficulty
	NumEvents  int
	MaxDays    int
	OutputDir  string

	// WithScaffold also writes the schema skeleton.
	WithScaffold bool
	// SchemaPath, when set, is a submission to evaluate and explain.
	SchemaPath string
	// ProgressPath, when set, records the attempt in the progress store.
	ProgressPath string

	Logger *slog.Logger
}

// Artifacts lists the files a session wrote.
type Artifacts struct {
	ConfigPath      string `json:"config_path"`
	EventsPath      string `json:"events_path"`
	DescriptionPath string `json:"description_path"`
	ScaffoldPath    string `json:"scaffold_path,omitempty"`
}

// Result is everything a session produced. Report, Diagnosis, and Outcome
// are nil when no schema was submitted.
type Result struct {
	Config    *shop.Config
	Log       *events.Log
	Briefing  *briefing.Briefing
	Artifacts Artifacts

	Report    *evaluator.Report
	Diagnosis *explain.Result
	Outcome   *progress.Outcome
}

// Run executes the session. Scenario generation is deterministic in
// (seed, difficulty, num events, max days); only the artifact writes and
// progress recording touch the filesystem.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.NumEvents <= 0 {
		opts.NumEvents = 1000
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("session: creating output dir: %w", err)
	}

	cfg, err := shop.Generate(opts.Seed, opts.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("session: generating shop: %w", err)
	}
	logger.Info("scenario generated",
		"seed", opts.Seed, "difficulty", opts.Difficulty, "shop", cfg.ShopName)

	log, err := events.NewSimulator(cfg).Simulate(opts.NumEvents, opts.MaxDays)
	if err != nil {
		return nil, fmt.Errorf("session: simulating events: %w", err)
	}
	logger.Info("events simulated",
		"events", len(log.Events), "days", log.DaysSimulated, "truncated", log.Truncated)

	res := &Result{
		Config:   cfg,
		Log:      log,
		Briefing: briefing.New(cfg),
	}
	if res.Artifacts, err = writeArtifacts(opts, cfg, log); err != nil {
		return nil, err
	}

	if opts.SchemaPath == "" {
		return res, nil
	}
	if err := evaluateSubmission(ctx, opts, logger, res); err != nil {
		return nil, err
	}
	return res, nil
}

func writeArtifacts(opts Options, cfg *shop.Config, log *events.Log) (Artifacts, error) {
	var a Artifacts

	a.ConfigPath = filepath.Join(opts.OutputDir, "shop_config.json")
	if err := writeJSON(a.ConfigPath, cfg); err != nil {
		return a, err
	}

	a.EventsPath = filepath.Join(opts.OutputDir, "events.json")
	if err := writeJSON(a.EventsPath, log); err != nil {
		return a, err
	}

	desc, err := describe.Generate(cfg)
	if err != nil {
		return a, fmt.Errorf("session: %w", err)
	}
	a.DescriptionPath = filepath.Join(opts.OutputDir, "description.md")
	if err := os.WriteFile(a.DescriptionPath, []byte(desc), 0o644); err != nil {
		return a, fmt.Errorf("session: writing description: %w", err)
	}

	if opts.WithScaffold {
		text, err := scaffold.Generate(cfg).Render()
		if err != nil {
			return a, fmt.Errorf("session: %w", err)
		}
		a.ScaffoldPath = filepath.Join(opts.OutputDir, "scaffold.yaml")
		if err := os.WriteFile(a.ScaffoldPath, []byte(text), 0o644); err != nil {
			return a, fmt.Errorf("session: writing scaffold: %w", err)
		}
	}
	return a, nil
}

func evaluateSubmission(ctx context.Context, opts Options, logger *slog.Logger, res *Result) error {
	sub, err := schema.ParseFile(opts.SchemaPath)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	report, err := evaluator.Evaluate(res.Config, res.Log, sub)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	res.Report = report
	logger.Info("schema evaluated",
		"score", report.TotalScore, "max", report.MaxScore,
		"violations", len(report.Violations))

	diagnosis, err := explain.NewAnalyzer(res.Config, res.Log).Analyze(sub)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	res.Diagnosis = diagnosis

	if opts.ProgressPath == "" {
		return nil
	}
	store, err := progress.Open(opts.ProgressPath)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer store.Close()

	outcome, err := store.Record(ctx, opts.Seed, opts.Difficulty, sub.Hash(), report)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	res.Outcome = &outcome
	if msg := outcome.Message(); msg != "" {
		logger.Info("attempt recorded", "outcome", msg)
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("session: writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
