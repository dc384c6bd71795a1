package schema

import (
	"errors"
	"strings"
	"testing"
)

func validSubmission() *Submission {
	return &Submission{
		FactTables: []FactTable{{
			Name:             "fact_sales",
			GrainDescription: "one row per line item per transaction",
			GrainColumns: []GrainColumn{
				{Name: "transaction_id", Degenerate: true},
				{Name: "line_number"},
			},
			Measures: []Measure{
				{Name: "quantity", DataType: "int", Aggregation: AggSum},
				{Name: "net_amount_cents", DataType: "int", Aggregation: AggSum},
			},
			DimensionKeys: []string{"product_key", "store_key", "date_key"},
		}},
		DimensionTables: []DimensionTable{
			{
				Name:         "dim_product",
				NaturalKey:   []string{"sku"},
				SurrogateKey: "product_key",
				SCDStrategy:  SCDType2,
				Attributes: []DimensionAttribute{
					{Name: "name", DataType: "string"},
					{Name: "category", DataType: "string", SCDTracked: true},
				},
			},
			{
				Name:         "dim_store",
				NaturalKey:   []string{"store_id"},
				SurrogateKey: "store_key",
				SCDStrategy:  SCDType1,
				Attributes:   []DimensionAttribute{{Name: "store_name", DataType: "string"}},
			},
			{
				Name:         "dim_date",
				NaturalKey:   []string{"date"},
				SurrogateKey: "date_key",
				SCDStrategy:  SCDNone,
				Attributes:   []DimensionAttribute{{Name: "date", DataType: "date"}},
			},
		},
		Relationships: []Relationship{
			{FactTable: "fact_sales", DimensionTable: "dim_product", FactColumn: "product_key", DimensionColumn: "product_key"},
			{FactTable: "fact_sales", DimensionTable: "dim_store", FactColumn: "store_key", DimensionColumn: "store_key"},
			{FactTable: "fact_sales", DimensionTable: "dim_date", FactColumn: "date_key", DimensionColumn: "date_key"},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validSubmission().Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Submission)
		wantSub string
	}{
		{"no fact tables", func(s *Submission) { s.FactTables = nil }, "at least one fact table"},
		{"empty grain", func(s *Submission) { s.FactTables[0].GrainColumns = nil }, "grain column"},
		{"unnamed grain column", func(s *Submission) { s.FactTables[0].GrainColumns[0].Name = "" }, "grain_columns[0]"},
		{"bad aggregation", func(s *Submission) { s.FactTables[0].Measures[0].Aggregation = "total" }, `unknown aggregation "total"`},
		{"no natural key", func(s *Submission) { s.DimensionTables[0].NaturalKey = nil }, "natural key"},
		{"no surrogate key", func(s *Submission) { s.DimensionTables[0].SurrogateKey = "" }, "surrogate_key"},
		{"bad scd", func(s *Submission) { s.DimensionTables[0].SCDStrategy = "type_9" }, `unknown scd_strategy "type_9"`},
		{"dangling parent", func(s *Submission) { s.DimensionTables[0].ParentDimension = "dim_brand" }, `parent_dimension "dim_brand"`},
		{"dangling relationship fact", func(s *Submission) { s.Relationships[0].FactTable = "fact_orders" }, `fact table "fact_orders"`},
		{"dangling relationship dim", func(s *Submission) { s.Relationships[0].DimensionTable = "dim_promo" }, `dimension table "dim_promo"`},
		{"bad cardinality", func(s *Submission) { s.Relationships[0].Cardinality = "one-to-one" }, "cardinality"},
		{"role playing without name", func(s *Submission) { s.Relationships[2].RolePlaying = true }, "role_name"},
		{"duplicate fact", func(s *Submission) { s.FactTables = append(s.FactTables, s.FactTables[0]) }, "declared twice"},
		{"bridge dangling dim", func(s *Submission) {
			s.BridgeTables = []BridgeTable{{Name: "bridge_household", FactTable: "fact_sales", DimensionTable: "dim_household", GroupKey: "household_group_key"}}
		}, `dimension table "dim_household"`},
		{"bridge missing group key", func(s *Submission) {
			s.BridgeTables = []BridgeTable{{Name: "bridge_promo", FactTable: "fact_sales", DimensionTable: "dim_product"}}
		}, "group_key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(sub)
			err := sub.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidSubmission) {
				t.Errorf("error not wrapped in ErrInvalidSubmission: %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

const jsonSubmission = `{
  "fact_tables": [{
    "name": "fact_sales",
    "grain_description": "one row per line item",
    "grain_columns": [{"name": "transaction_id", "is_degenerate": true}, {"name": "line_number"}],
    "measures": [{"name": "quantity", "data_type": "int", "aggregation": "sum"}],
    "dimension_keys": ["product_key"]
  }],
  "dimension_tables": [{
    "name": "dim_product",
    "natural_key": ["sku"],
    "surrogate_key": "product_key",
    "scd_strategy": "type_2",
    "attributes": [{"name": "category", "data_type": "string", "scd_tracked": true}]
  }],
  "relationships": [{
    "fact_table": "fact_sales",
    "dimension_table": "dim_product",
    "fact_column": "product_key",
    "dimension_column": "product_key"
  }]
}`

const yamlSubmission = `
fact_tables:
  - name: fact_sales
    grain_description: one row per line item
    grain_columns:
      - name: transaction_id
        is_degenerate: true
      - name: line_number
    measures:
      - name: quantity
        data_type: int
        aggregation: sum
    dimension_keys: [product_key]
dimension_tables:
  - name: dim_product
    natural_key: [sku]
    surrogate_key: product_key
    scd_strategy: type_2
    attributes:
      - name: category
        data_type: string
        scd_tracked: true
relationships:
  - fact_table: fact_sales
    dimension_table: dim_product
    fact_column: product_key
    dimension_column: product_key
`

func TestParseJSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := Parse([]byte(jsonSubmission))
	if err != nil {
		t.Fatalf("parse JSON: %v", err)
	}
	fromYAML, err := Parse([]byte(yamlSubmission))
	if err != nil {
		t.Fatalf("parse YAML: %v", err)
	}
	if fromJSON.Hash() != fromYAML.Hash() {
		t.Error("JSON and YAML forms of the same schema hash differently")
	}
	if f := fromYAML.FactTable("fact_sales"); f == nil || !f.GrainColumns[0].Degenerate {
		t.Error("YAML decode lost grain column detail")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{"fact_tables": []}`)); err == nil {
		t.Error("expected empty schema to fail validation")
	}
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("expected malformed input to fail")
	}
}

func TestHashDistinguishesModels(t *testing.T) {
	a := validSubmission()
	b := validSubmission()
	if a.Hash() != b.Hash() {
		t.Error("identical submissions hash differently")
	}
	b.DimensionTables[0].SCDStrategy = SCDType1
	if a.Hash() == b.Hash() {
		t.Error("different submissions share a hash")
	}
}

func TestLookupHelpers(t *testing.T) {
	s := validSubmission()
	if s.FactTable("fact_orders") != nil {
		t.Error("lookup of missing fact should be nil")
	}
	dims := s.DimensionsForFact("fact_sales")
	if len(dims) != 3 {
		t.Fatalf("expected 3 joined dimensions, got %d", len(dims))
	}
	if !s.FactTables[0].HasGrainColumn("TRANSACTION_ID") {
		t.Error("grain lookup should be case-insensitive")
	}
}
