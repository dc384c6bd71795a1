// Package evaluator scores a schema submission against the shop rules and
// the event log it was supposed to model. Scoring runs along six axes; each
// axis produces deductions (or bonuses) that reference concrete events from
// the simulated log wherever possible.
package evaluator

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks how damaging a deduction is.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityModerate:
		return 2
	default:
		return 3
	}
}

// ViolationType categorizes what kind of modeling mistake a deduction is.
type ViolationType string

const (
	ViolationGrain      ViolationType = "grain_violation"
	ViolationTemporal   ViolationType = "temporal_lie"
	ViolationSemantic   ViolationType = "semantic_mismatch"
	ViolationOverModel  ViolationType = "over_modeling"
	ViolationUnderModel ViolationType = "under_modeling"
	ViolationDataLoss   ViolationType = "data_loss"
	ViolationFanOut     ViolationType = "fan_out_risk"
)

// Deduction is one scoring hit (or, on the queryability axis, one bonus).
type Deduction struct {
	Points           int           `json:"points"`
	Reason           string        `json:"reason"`
	Severity         Severity      `json:"severity"`
	AffectedElements []string      `json:"affected_elements,omitempty"`
	Type             ViolationType `json:"violation_type,omitempty"`
	ConcreteExample  string        `json:"concrete_example,omitempty"`
	Consequence      string        `json:"consequence,omitempty"`
	FixHint          string        `json:"fix_hint,omitempty"`
}

// AxisScore is the outcome of one evaluation axis.
type AxisScore struct {
	Axis       string      `json:"axis"`
	Score      int         `json:"score"`
	MaxScore   int         `json:"max_score"`
	Deductions []Deduction `json:"deductions,omitempty"`
	Commentary string      `json:"commentary,omitempty"`
}

// Percentage is the axis score as 0-100.
func (a AxisScore) Percentage() float64 {
	if a.MaxScore == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.MaxScore) * 100
}

// WeightsVersion identifies the axis weight table. Stored scores from
// different versions are not comparable.
const WeightsVersion = "v1"

// axisWeights fixes each axis's share of the weighted total. Queryability is
// a bonus axis and carries the smallest weight.
var axisWeights = map[string]float64{
	axisEventPreservation:   0.25,
	axisGrainCorrectness:    0.20,
	axisTemporalCorrectness: 0.20,
	axisSemanticFaith:       0.15,
	axisStructuralOpt:       0.10,
	axisQueryability:        0.10,
}

// Report is a complete evaluation outcome.
type Report struct {
	WeightsVersion  string      `json:"weights_version"`
	TotalScore      int         `json:"total_score"`
	MaxScore        int         `json:"max_score"`
	WeightedScore   float64     `json:"weighted_score"` // 0-100
	AxisScores      []AxisScore `json:"axis_scores"`
	Violations      []Violation `json:"violations,omitempty"`
	FixPriority     []string    `json:"fix_priority,omitempty"`
	Critique        string      `json:"critique,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// Percentage is the unweighted total as 0-100.
func (r *Report) Percentage() float64 {
	if r.MaxScore == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.MaxScore) * 100
}

// Axis returns the named axis score, or nil.
func (r *Report) Axis(name string) *AxisScore {
	for i := range r.AxisScores {
		if r.AxisScores[i].Axis == name {
			return &r.AxisScores[i]
		}
	}
	return nil
}

// ViolationsByCategory groups the flat violation list by type, preserving
// the severity ordering within each group.
func (r *Report) ViolationsByCategory() map[ViolationType][]Violation {
	out := make(map[ViolationType][]Violation)
	for _, v := range r.Violations {
		out[v.Type] = append(out[v.Type], v)
	}
	return out
}

// Render writes the report as readable text.
func (r *Report) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	fmt.Fprintf(&b, "%s\nSCHEMA EVALUATION REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Total Score: %d/%d (%.1f%%)\n", r.TotalScore, r.MaxScore, r.Percentage())
	fmt.Fprintf(&b, "Weighted Score: %.1f/100 (weights %s)\n\n", r.WeightedScore, r.WeightsVersion)
	fmt.Fprintf(&b, "%s\nSCORES BY AXIS\n%s\n", thin, thin)

	for _, a := range r.AxisScores {
		fmt.Fprintf(&b, "\n%s: %d/%d\n", titleCase(a.Axis), a.Score, a.MaxScore)
		for _, d := range a.Deductions {
			fmt.Fprintf(&b, "  - [%s] %s (-%d)\n", strings.ToUpper(string(d.Severity)), d.Reason, d.Points)
		}
		if a.Commentary != "" {
			fmt.Fprintf(&b, "  Commentary: %s\n", a.Commentary)
		}
	}

	if len(r.Violations) > 0 {
		fmt.Fprintf(&b, "\n%s\nVIOLATIONS\n%s\n", thin, thin)
		for _, v := range r.Violations {
			fmt.Fprintf(&b, "\n[%s/%s] %s\n", v.Type, v.Severity, v.WhatWentWrong)
			if v.ConcreteExample != "" {
				fmt.Fprintf(&b, "  Example: %s\n", v.ConcreteExample)
			}
			if v.Consequence != "" {
				fmt.Fprintf(&b, "  Consequence: %s\n", v.Consequence)
			}
			if v.FixHint != "" {
				fmt.Fprintf(&b, "  Fix: %s\n", v.FixHint)
			}
		}
	}

	if r.Critique != "" {
		fmt.Fprintf(&b, "\n%s\nCRITIQUE\n%s\n%s\n", thin, thin, r.Critique)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&b, "\n%s\nRECOMMENDATIONS\n%s\n", thin, thin)
		for i, rec := range r.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

func titleCase(axis string) string {
	words := strings.Split(axis, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Violation is a single actionable finding pulled out of the axis
// deductions, sorted by severity then impact.
type Violation struct {
	Type            ViolationType `json:"violation_type"`
	WhatWentWrong   string        `json:"what_went_wrong"`
	ConcreteExample string        `json:"concrete_example,omitempty"`
	Consequence     string        `json:"consequence,omitempty"`
	FixHint         string        `json:"fix_hint,omitempty"`
	AffectedTables  []string      `json:"affected_tables,omitempty"`
	Severity        Severity      `json:"severity"`
	PointsDeducted  int           `json:"points_deducted"`
	Axis            string        `json:"axis"`
}

// axisDefaultViolation maps an axis to the violation type used when a
// deduction does not carry its own.
var axisDefaultViolation = map[string]ViolationType{
	axisGrainCorrectness:    ViolationGrain,
	axisTemporalCorrectness: ViolationTemporal,
	axisSemanticFaith:       ViolationSemantic,
	axisStructuralOpt:       ViolationOverModel,
	axisEventPreservation:   ViolationDataLoss,
	axisQueryability:        ViolationUnderModel,
}

// collectViolations flattens axis deductions into the sorted violation list.
// Queryability bonuses are not violations and are skipped.
func collectViolations(scores []AxisScore) []Violation {
	var out []Violation
	for _, a := range scores {
		if a.Axis == axisQueryability {
			continue
		}
		for _, d := range a.Deductions {
			vt := d.Type
			if vt == "" {
				vt = axisDefaultViolation[a.Axis]
			}
			out = append(out, Violation{
				Type:            vt,
				WhatWentWrong:   d.Reason,
				ConcreteExample: d.ConcreteExample,
				Consequence:     d.Consequence,
				FixHint:         d.FixHint,
				AffectedTables:  d.AffectedElements,
				Severity:        d.Severity,
				PointsDeducted:  d.Points,
				Axis:            a.Axis,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if severityRank(out[i].Severity) != severityRank(out[j].Severity) {
			return severityRank(out[i].Severity) < severityRank(out[j].Severity)
		}
		return out[i].PointsDeducted > out[j].PointsDeducted
	})
	return out
}

// fixPriority builds the ordered fix list: first occurrence of each
// violation type, most severe first, capped at five.
func fixPriority(violations []Violation) []string {
	var out []string
	seen := make(map[ViolationType]bool)
	for _, v := range violations {
		if seen[v.Type] || v.FixHint == "" {
			continue
		}
		seen[v.Type] = true

		impact := ""
		switch v.Severity {
		case SeverityCritical:
			impact = " (breaks queries)"
		case SeverityMajor:
			impact = " (significant data issues)"
		}
		tables := "schema"
		if len(v.AffectedTables) > 0 {
			n := min(2, len(v.AffectedTables))
			tables = strings.Join(v.AffectedTables[:n], ", ")
		}
		out = append(out, fmt.Sprintf("%s [%s]%s", v.FixHint, tables, impact))
		if len(out) == 5 {
			break
		}
	}
	return out
}
