// Package schema defines the dimensional-model submission format: the fact
// tables, dimensions, relationships, and bridges a player proposes for a
// simulated shop's event stream.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SCDType is a slowly-changing-dimension strategy.
type SCDType string

const (
	SCDType0 SCDType = "type_0" // fixed, no changes tracked
	SCDType1 SCDType = "type_1" // overwrite, current value only
	SCDType2 SCDType = "type_2" // add row, full history
	SCDType3 SCDType = "type_3" // add column, previous + current
	SCDType4 SCDType = "type_4" // mini-dimension for rapid changers
	SCDType6 SCDType = "type_6" // hybrid of 1, 2, and 3
	SCDNone  SCDType = "none"
)

func validSCDType(t SCDType) bool {
	switch t {
	case SCDType0, SCDType1, SCDType2, SCDType3, SCDType4, SCDType6, SCDNone:
		return true
	}
	return false
}

// TracksHistory reports whether the strategy keeps prior attribute values.
func (t SCDType) TracksHistory() bool {
	switch t {
	case SCDType2, SCDType3, SCDType4, SCDType6:
		return true
	}
	return false
}

// Aggregation is how a measure rolls up.
type Aggregation string

const (
	AggSum           Aggregation = "sum"
	AggCount         Aggregation = "count"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggAvg           Aggregation = "avg"
	AggDistinctCount Aggregation = "distinct_count"
)

func validAggregation(a Aggregation) bool {
	switch a {
	case AggSum, AggCount, AggMin, AggMax, AggAvg, AggDistinctCount:
		return true
	}
	return false
}

// Measure is a numeric fact column.
type Measure struct {
	Name        string      `json:"name" yaml:"name"`
	DataType    string      `json:"data_type" yaml:"data_type"`
	Aggregation Aggregation `json:"aggregation" yaml:"aggregation"`
	Nullable    bool        `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// GrainColumn is one column of a fact table's declared grain.
type GrainColumn struct {
	Name                string `json:"name" yaml:"name"`
	ReferencesDimension string `json:"references_dimension,omitempty" yaml:"references_dimension,omitempty"`
	// Degenerate marks a dimension carried directly on the fact, such as a
	// transaction number.
	Degenerate bool `json:"is_degenerate,omitempty" yaml:"is_degenerate,omitempty"`
}

// FactTable declares a fact with its grain, measures, and dimension keys.
type FactTable struct {
	Name             string        `json:"name" yaml:"name"`
	GrainDescription string        `json:"grain_description" yaml:"grain_description"`
	GrainColumns     []GrainColumn `json:"grain_columns" yaml:"grain_columns"`
	Measures         []Measure     `json:"measures" yaml:"measures"`
	DimensionKeys    []string      `json:"dimension_keys" yaml:"dimension_keys"`
}

// DimensionAttribute is one attribute column of a dimension.
type DimensionAttribute struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"data_type" yaml:"data_type"`
	// SCDTracked marks attributes whose changes the SCD strategy applies to.
	SCDTracked bool `json:"scd_tracked,omitempty" yaml:"scd_tracked,omitempty"`
}

// DimensionTable declares a dimension with its keys and SCD strategy.
type DimensionTable struct {
	Name         string               `json:"name" yaml:"name"`
	NaturalKey   []string             `json:"natural_key" yaml:"natural_key"`
	SurrogateKey string               `json:"surrogate_key" yaml:"surrogate_key"`
	SCDStrategy  SCDType              `json:"scd_strategy" yaml:"scd_strategy"`
	Attributes   []DimensionAttribute `json:"attributes" yaml:"attributes"`
	// ParentDimension snowflakes this dimension off another.
	ParentDimension string `json:"parent_dimension,omitempty" yaml:"parent_dimension,omitempty"`
}

// Relationship joins a fact to a dimension.
type Relationship struct {
	FactTable       string `json:"fact_table" yaml:"fact_table"`
	DimensionTable  string `json:"dimension_table" yaml:"dimension_table"`
	FactColumn      string `json:"fact_column" yaml:"fact_column"`
	DimensionColumn string `json:"dimension_column" yaml:"dimension_column"`
	Cardinality     string `json:"cardinality,omitempty" yaml:"cardinality,omitempty"` // "many-to-one" or "many-to-many"
	RolePlaying     bool   `json:"is_role_playing,omitempty" yaml:"is_role_playing,omitempty"`
	RoleName        string `json:"role_name,omitempty" yaml:"role_name,omitempty"`
}

// BridgeTable resolves a many-to-many between a fact and a dimension.
type BridgeTable struct {
	Name           string `json:"name" yaml:"name"`
	FactTable      string `json:"fact_table" yaml:"fact_table"`
	DimensionTable string `json:"dimension_table" yaml:"dimension_table"`
	GroupKey       string `json:"group_key" yaml:"group_key"`
	// WeightingFactorColumn allocates measures across group members.
	WeightingFactorColumn string `json:"weighting_factor_column,omitempty" yaml:"weighting_factor_column,omitempty"`
}

// Submission is a complete dimensional model proposed for evaluation.
type Submission struct {
	FactTables      []FactTable      `json:"fact_tables" yaml:"fact_tables"`
	DimensionTables []DimensionTable `json:"dimension_tables" yaml:"dimension_tables"`
	Relationships   []Relationship   `json:"relationships" yaml:"relationships"`
	BridgeTables    []BridgeTable    `json:"bridge_tables,omitempty" yaml:"bridge_tables,omitempty"`
}

// FactTable returns the named fact table, or nil.
func (s *Submission) FactTable(name string) *FactTable {
	for i := range s.FactTables {
		if s.FactTables[i].Name == name {
			return &s.FactTables[i]
		}
	}
	return nil
}

// DimensionTable returns the named dimension table, or nil.
func (s *Submission) DimensionTable(name string) *DimensionTable {
	for i := range s.DimensionTables {
		if s.DimensionTables[i].Name == name {
			return &s.DimensionTables[i]
		}
	}
	return nil
}

// RelationshipsForFact returns the relationships hanging off a fact table.
func (s *Submission) RelationshipsForFact(factName string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.FactTable == factName {
			out = append(out, r)
		}
	}
	return out
}

// DimensionsForFact returns the dimensions joined to a fact table, in
// declaration order.
func (s *Submission) DimensionsForFact(factName string) []*DimensionTable {
	joined := make(map[string]bool)
	for _, r := range s.RelationshipsForFact(factName) {
		joined[r.DimensionTable] = true
	}
	var out []*DimensionTable
	for i := range s.DimensionTables {
		if joined[s.DimensionTables[i].Name] {
			out = append(out, &s.DimensionTables[i])
		}
	}
	return out
}

// HasGrainColumn reports whether the fact declares the named grain column,
// matched case-insensitively.
func (f *FactTable) HasGrainColumn(name string) bool {
	for _, gc := range f.GrainColumns {
		if strings.EqualFold(gc.Name, name) {
			return true
		}
	}
	return false
}

// Hash returns a stable fingerprint of the submission, used to recognize
// resubmissions of the same model.
func (s *Submission) Hash() string {
	raw, err := json.Marshal(s)
	if err != nil {
		// Submission is plain data; marshaling cannot fail.
		panic(fmt.Sprintf("schema: hashing submission: %v", err))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}
