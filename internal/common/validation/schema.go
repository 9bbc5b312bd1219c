package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins all errors into one line for logs and error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema for one inbound payload type.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string { return s.name }

// ValidateBytes checks a raw JSON document. Malformed JSON is reported as a
// single root-level error.
func (s *Schema) ValidateBytes(doc []byte) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "MALFORMED_JSON",
		}}}
	}
	return toResult(result)
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// SubmitResults is posted by the scraping worker once a job finishes.
var SubmitResults = MustCompile("submit-results", `{
  "type": "object",
  "required": ["secret", "query", "results"],
  "properties": {
    "secret": {"type": "string", "minLength": 1},
    "query": {"type": "string", "minLength": 1, "maxLength": 200},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "url": {"type": ["string", "null"]}
        }
      }
    }
  }
}`)

// AdminCommand is the body of every admin endpoint.
var AdminCommand = MustCompile("admin-command", `{
  "type": "object",
  "required": ["code"],
  "properties": {
    "code": {"type": "string", "minLength": 1},
    "query": {"type": ["string", "null"]},
    "theme": {"type": "string", "minLength": 1, "maxLength": 40},
    "message": {"type": "string", "maxLength": 280}
  }
}`)

// Heartbeat is sent periodically by each open browser tab.
var Heartbeat = MustCompile("heartbeat", `{
  "type": "object",
  "required": ["visitorId"],
  "properties": {
    "visitorId": {"type": "string", "minLength": 1, "maxLength": 64}
  }
}`)
