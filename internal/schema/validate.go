package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidSubmission wraps every structural validation failure.
var ErrInvalidSubmission = errors.New("invalid schema submission")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubmission, fmt.Sprintf(format, args...))
}

// Validate checks structural well-formedness: required fields, enum values,
// and that every cross-table reference resolves. Errors name the offending
// table and field; modeling quality is the evaluator's job, not this one's.
func (s *Submission) Validate() error {
	if len(s.FactTables) == 0 {
		return invalidf("at least one fact table is required")
	}

	factNames := make(map[string]bool)
	for i, f := range s.FactTables {
		if f.Name == "" {
			return invalidf("fact_tables[%d]: name is required", i)
		}
		if factNames[f.Name] {
			return invalidf("fact table %q declared twice", f.Name)
		}
		factNames[f.Name] = true

		if len(f.GrainColumns) == 0 {
			return invalidf("fact table %q: at least one grain column is required", f.Name)
		}
		for j, gc := range f.GrainColumns {
			if gc.Name == "" {
				return invalidf("fact table %q: grain_columns[%d]: name is required", f.Name, j)
			}
		}
		for _, m := range f.Measures {
			if m.Name == "" {
				return invalidf("fact table %q: measure name is required", f.Name)
			}
			if !validAggregation(m.Aggregation) {
				return invalidf("fact table %q: measure %q: unknown aggregation %q", f.Name, m.Name, m.Aggregation)
			}
		}
	}

	dimNames := make(map[string]bool)
	for i, d := range s.DimensionTables {
		if d.Name == "" {
			return invalidf("dimension_tables[%d]: name is required", i)
		}
		if dimNames[d.Name] {
			return invalidf("dimension table %q declared twice", d.Name)
		}
		dimNames[d.Name] = true

		if len(d.NaturalKey) == 0 {
			return invalidf("dimension %q: at least one natural key column is required", d.Name)
		}
		if d.SurrogateKey == "" {
			return invalidf("dimension %q: surrogate_key is required", d.Name)
		}
		if !validSCDType(d.SCDStrategy) {
			return invalidf("dimension %q: unknown scd_strategy %q", d.Name, d.SCDStrategy)
		}
	}
	for _, d := range s.DimensionTables {
		if d.ParentDimension != "" && !dimNames[d.ParentDimension] {
			return invalidf("dimension %q: parent_dimension %q does not exist", d.Name, d.ParentDimension)
		}
	}

	for i, r := range s.Relationships {
		if !factNames[r.FactTable] {
			return invalidf("relationships[%d]: fact table %q does not exist", i, r.FactTable)
		}
		if !dimNames[r.DimensionTable] {
			return invalidf("relationships[%d]: dimension table %q does not exist", i, r.DimensionTable)
		}
		if r.FactColumn == "" || r.DimensionColumn == "" {
			return invalidf("relationships[%d] (%s -> %s): fact_column and dimension_column are required",
				i, r.FactTable, r.DimensionTable)
		}
		switch r.Cardinality {
		case "", "many-to-one", "many-to-many":
		default:
			return invalidf("relationships[%d] (%s -> %s): unknown cardinality %q",
				i, r.FactTable, r.DimensionTable, r.Cardinality)
		}
		if r.RolePlaying && r.RoleName == "" {
			return invalidf("relationships[%d] (%s -> %s): role-playing relationship needs a role_name",
				i, r.FactTable, r.DimensionTable)
		}
	}

	for i, b := range s.BridgeTables {
		if b.Name == "" {
			return invalidf("bridge_tables[%d]: name is required", i)
		}
		if !factNames[b.FactTable] {
			return invalidf("bridge table %q: fact table %q does not exist", b.Name, b.FactTable)
		}
		if !dimNames[b.DimensionTable] {
			return invalidf("bridge table %q: dimension table %q does not exist", b.Name, b.DimensionTable)
		}
		if b.GroupKey == "" {
			return invalidf("bridge table %q: group_key is required", b.Name)
		}
	}

	return nil
}
