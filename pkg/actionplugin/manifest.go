package actionplugin

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

var (
	idRegex     = regexp.MustCompile(`^[a-z0-9-]+$`)
	semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// ManifestSchema is the JSON Schema an action plugin manifest must
// satisfy, trimmed from the teacher's ManifestSchema down to the
// fields an out-of-process Action loader actually needs.
const ManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "version", "main", "actions"],
  "properties": {
    "id": {"type": "string", "pattern": "^[a-z0-9-]+$"},
    "version": {"type": "string", "pattern": "^\\d+\\.\\d+\\.\\d+$"},
    "main": {"type": "string", "minLength": 1},
    "actions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "schema": {"type": "object"}
        }
      }
    }
  }
}`

// ActionDescriptor names one Action an action plugin exposes, and
// carries the optional JSON Schema its params must satisfy.
type ActionDescriptor struct {
	Name   string                 `json:"name"`
	Schema map[string]interface{} `json:"schema,omitempty"`
}

// Manifest describes an out-of-process action plugin: where its
// executable lives and which action names it provides.
type Manifest struct {
	ID      string             `json:"id"`
	Version string             `json:"version"`
	Main    string             `json:"main"`
	Actions []ActionDescriptor `json:"actions"`
}

var schemaLoader = gojsonschema.NewStringLoader(ManifestSchema)

// LoadManifest reads and validates a manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest validates and decodes manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msg string
		for i, e := range result.Errors() {
			if i > 0 {
				msg += "; "
			}
			msg += e.String()
		}
		return nil, fmt.Errorf("manifest schema violations: %s", msg)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if !idRegex.MatchString(manifest.ID) {
		return nil, fmt.Errorf("invalid plugin id: %s", manifest.ID)
	}
	if !semverRegex.MatchString(manifest.Version) {
		return nil, fmt.Errorf("invalid version: %s (want semver X.Y.Z)", manifest.Version)
	}
	seen := make(map[string]bool, len(manifest.Actions))
	for _, a := range manifest.Actions {
		if a.Name == "" {
			return nil, fmt.Errorf("action descriptor missing name")
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate action name: %s", a.Name)
		}
		seen[a.Name] = true
	}

	return &manifest, nil
}
