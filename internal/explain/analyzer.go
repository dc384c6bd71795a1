package explain

import (
	"fmt"

	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Analyzer runs evaluation and turns the violations into scenarios.
type Analyzer struct {
	cfg *shop.Config
	log *events.Log
}

// NewAnalyzer prepares an analyzer for one shop run.
func NewAnalyzer(cfg *shop.Config, log *events.Log) *Analyzer {
	return &Analyzer{cfg: cfg, log: log}
}

// Analyze evaluates the submission and explains every violation category
// found.
func (a *Analyzer) Analyze(sub *schema.Submission) (*Result, error) {
	report, err := evaluator.Evaluate(a.cfg, a.log, sub)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}
	scenarios := Explain(a.cfg, a.log, sub, report.Violations)

	res := &Result{
		IssuesFound: len(scenarios),
		Scenarios:   scenarios,
	}
	switch res.IssuesFound {
	case 0:
		res.Summary = "No specific failure scenarios identified for this schema."
	case 1:
		res.Summary = "Found 1 scenario where your model produces incorrect answers."
	default:
		res.Summary = fmt.Sprintf("Found %d scenarios where your model produces incorrect answers.", res.IssuesFound)
	}
	return res, nil
}
