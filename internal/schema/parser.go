package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a submission from JSON or YAML bytes and validates it.
// JSON is detected by a leading brace; everything else goes through YAML.
func Parse(data []byte) (*Submission, error) {
	var sub Submission

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("schema: parsing JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("schema: parsing YAML: %w", err)
		}
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ParseFile reads and parses a submission file. The extension picks the
// decoder; .yaml and .yml force YAML, anything else is sniffed by Parse.
func ParseFile(path string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var sub Submission
		if err := yaml.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("schema: parsing %s: %w", path, err)
		}
		if err := sub.Validate(); err != nil {
			return nil, err
		}
		return &sub, nil
	default:
		return Parse(data)
	}
}
