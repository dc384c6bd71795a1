package mcp

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"
)

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(Config{Name: "dimsim", Version: "test"})

	if s.cfg.Logger == nil {
		t.Error("nil logger was not defaulted")
	}
	if s.cfg.NumEvents != 1000 {
		t.Errorf("NumEvents = %d, want 1000", s.cfg.NumEvents)
	}
	if s.cfg.MaxDays != 30 {
		t.Errorf("MaxDays = %d, want 30", s.cfg.MaxDays)
	}
	if s.server == nil {
		t.Fatal("underlying MCP server not constructed")
	}
}

// The jsonschema library treats the whole struct tag as the field
// description and rejects tags that look like key=value pairs; AddTool
// turns that rejection into a panic during registration.
func TestSchemaTagsArePlainDescriptions(t *testing.T) {
	keyValue := regexp.MustCompile(`^[^ \t\n]*=`)

	var checkFields func(t *testing.T, typ reflect.Type)
	checkFields = func(t *testing.T, typ reflect.Type) {
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				checkFields(t, field.Type)
				continue
			}
			tag, ok := field.Tag.Lookup("jsonschema")
			if !ok {
				continue
			}
			if keyValue.MatchString(tag) {
				t.Errorf("%s.%s: jsonschema tag %q uses key=value syntax", typ.Name(), field.Name, tag)
			}
		}
	}

	for _, v := range []any{
		GenerateScenarioInput{}, GenerateScenarioOutput{},
		GetDescriptionInput{}, GetDescriptionOutput{},
		GetScaffoldInput{}, GetScaffoldOutput{},
		EvaluateSchemaInput{}, EvaluateSchemaOutput{},
		ExplainSchemaInput{}, ExplainSchemaOutput{},
	} {
		checkFields(t, reflect.TypeOf(v))
	}
}

func TestAuditToolNilSafe(t *testing.T) {
	s := testServer(t)

	// Must not panic when no audit logger is configured.
	s.auditTool("generate_scenario", time.Now(), nil, map[string]any{"seed": int64(1)})
	s.auditTool("evaluate_schema", time.Now(), errors.New("boom"), nil)
}
