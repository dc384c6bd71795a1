// Package mcp exposes the simulator over the Model Context Protocol so an
// agent can play scenarios end to end: generate, read the description, take
// the scaffold, submit a schema, and get the diagnosis back.
package mcp

import (
	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/explain"
	"github.com/jfarrand/dimsim/internal/scaffold"
)

// ScenarioInput identifies a scenario. Every tool takes it; generation is
// deterministic, so the pair fully reproduces config and events.
type ScenarioInput struct {
	Seed       int64  `json:"seed" jsonschema:"Scenario seed"`
	Difficulty string `json:"difficulty,omitempty" jsonschema:"Difficulty tier: easy | medium | hard | adversarial (default: medium)"`
}

// GenerateScenarioInput defines the input for generate_scenario.
type GenerateScenarioInput struct {
	ScenarioInput
	NumEvents int `json:"num_events,omitempty" jsonschema:"Number of events to simulate (default from server config)"`
	MaxDays   int `json:"max_days,omitempty" jsonschema:"Maximum business days to simulate (default from server config)"`
}

// GenerateScenarioOutput defines the output for generate_scenario.
type GenerateScenarioOutput struct {
	Seed          int64          `json:"seed"`
	Difficulty    string         `json:"difficulty"`
	ShopName      string         `json:"shop_name"`
	EventCount    int            `json:"event_count"`
	DaysSimulated int            `json:"days_simulated"`
	Truncated     bool           `json:"truncated" jsonschema:"True when the day budget ran out before the requested event count"`
	EventsByKind  map[string]int `json:"events_by_kind"`
	Briefing      string         `json:"briefing" jsonschema:"Difficulty briefing naming the enabled traps"`
}

// GetDescriptionInput defines the input for get_description.
type GetDescriptionInput struct {
	ScenarioInput
}

// GetDescriptionOutput defines the output for get_description.
type GetDescriptionOutput struct {
	ShopName    string `json:"shop_name"`
	Description string `json:"description" jsonschema:"Markdown business description; does not name the traps"`
}

// GetScaffoldInput defines the input for get_scaffold.
type GetScaffoldInput struct {
	ScenarioInput
}

// GetScaffoldOutput defines the output for get_scaffold.
type GetScaffoldOutput struct {
	Scaffold string         `json:"scaffold" jsonschema:"Annotated YAML schema skeleton; a valid but deliberately imperfect submission"`
	Todos    []scaffold.Todo `json:"todos" jsonschema:"Open modeling decisions the skeleton defers"`
	Warnings []string       `json:"warnings"`
}

// SubmissionInput carries a schema document for grading.
type SubmissionInput struct {
	ScenarioInput
	NumEvents int    `json:"num_events,omitempty" jsonschema:"Number of events to simulate (default from server config)"`
	MaxDays   int    `json:"max_days,omitempty" jsonschema:"Maximum business days to simulate (default from server config)"`
	Schema    string `json:"schema" jsonschema:"Schema submission as JSON or YAML"`
}

// EvaluateSchemaInput defines the input for evaluate_schema.
type EvaluateSchemaInput struct {
	SubmissionInput
}

// EvaluateSchemaOutput defines the output for evaluate_schema.
type EvaluateSchemaOutput struct {
	TotalScore    int               `json:"total_score"`
	MaxScore      int               `json:"max_score"`
	Percentage    float64           `json:"percentage"`
	WeightedScore float64           `json:"weighted_score"`
	Report        *evaluator.Report `json:"report" jsonschema:"Full structured evaluation report"`
	Rendered      string            `json:"rendered" jsonschema:"Human-readable report text"`
	Outcome       string            `json:"outcome,omitempty" jsonschema:"Progress outcome relative to earlier attempts, when progress tracking is enabled"`
}

// ExplainSchemaInput defines the input for explain_schema.
type ExplainSchemaInput struct {
	SubmissionInput
}

// ExplainSchemaOutput defines the output for explain_schema.
type ExplainSchemaOutput struct {
	IssuesFound int                `json:"issues_found"`
	Scenarios   []explain.Scenario `json:"scenarios"`
	Summary     string             `json:"summary"`
	Rendered    string             `json:"rendered" jsonschema:"Human-readable diagnosis text"`
}
