// pkg/ruleset/ruleset.go
package ruleset

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed default.json
var defaultRuleset []byte

const rulesetSchema = `{
  "type": "object",
  "required": ["version", "accessoryTerms", "queryStopwords", "patternStopwords", "pattern", "outlier"],
  "properties": {
    "version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "lastUpdated": {"type": "string"},
    "accessoryTerms": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
    "componentTerms": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "queryStopwords": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "patternStopwords": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "compatibilityPhrases": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "refurbishedTerms": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "pattern": {
      "type": "object",
      "required": ["minCandidates", "quorumMin", "quorumRatio"],
      "properties": {
        "minCandidates": {"type": "integer", "minimum": 1},
        "quorumMin": {"type": "integer", "minimum": 1},
        "quorumRatio": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "outlier": {
      "type": "object",
      "required": ["strategy", "minCandidates"],
      "properties": {
        "strategy": {"type": "string", "enum": ["median", "gap"]},
        "minCandidates": {"type": "integer", "minimum": 1},
        "medianRatio": {"type": "number", "minimum": 0, "maximum": 1},
        "gapMultiplier": {"type": "number", "minimum": 1},
        "gapFloor": {"type": "number", "minimum": 0}
      }
    },
    "scoring": {
      "type": "object",
      "properties": {
        "word": {"type": "integer"},
        "number": {"type": "integer"},
        "phrase": {"type": "integer"},
        "compatibility": {"type": "integer"}
      }
    }
  }
}`

// Default returns a fresh copy of the built-in ruleset.
func Default() *Ruleset {
	rs, err := Parse(defaultRuleset)
	if err != nil {
		panic(fmt.Sprintf("embedded ruleset is invalid: %v", err))
	}
	return rs
}

func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates raw JSON against the ruleset schema before decoding it.
func Parse(data []byte) (*Ruleset, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var rs Ruleset
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(rulesetSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("ruleset schema check failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid ruleset: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func Save(path string, rs *Ruleset) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}
	if err := Validate(data); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// AddTerm appends a lower-cased term to the named list. It reports false when
// the term is already present.
func (r *Ruleset) AddTerm(list, term string) (bool, error) {
	terms, ok := r.Terms(list)
	if !ok {
		return false, fmt.Errorf("unknown list %q", list)
	}
	term = strings.ToLower(term)
	for _, t := range *terms {
		if t == term {
			return false, nil
		}
	}
	*terms = append(*terms, term)
	return true, nil
}

func (r *Ruleset) RemoveTerm(list, term string) (bool, error) {
	terms, ok := r.Terms(list)
	if !ok {
		return false, fmt.Errorf("unknown list %q", list)
	}
	term = strings.ToLower(term)
	for i, t := range *terms {
		if t == term {
			*terms = append((*terms)[:i], (*terms)[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// BumpVersion increments the patch component of a semantic version.
func (r *Ruleset) BumpVersion() error {
	var major, minor, patch int
	if _, err := fmt.Sscanf(r.Version, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return fmt.Errorf("unparseable version %q: %w", r.Version, err)
	}
	r.Version = fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
	return nil
}
