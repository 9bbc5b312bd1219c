// internal/relevance/rules.go
package relevance

import (
	"errors"
	"fmt"
	"strings"

	"price-finder/pkg/ruleset"

	"github.com/cloudflare/ahocorasick"
)

var ErrNilRuleset = errors.New("ruleset cannot be nil")

// Rules is the compiled, read-only form of a ruleset. A single Rules value is
// shared by every pipeline run; nothing in it is mutated after Compile.
type Rules struct {
	Version string

	accessory        *ahocorasick.Matcher
	component        *ahocorasick.Matcher
	refurbished      *ahocorasick.Matcher
	queryStopwords   map[string]struct{}
	patternStopwords map[string]struct{}
	compatibility    []string

	pattern ruleset.PatternParams
	outlier ruleset.OutlierParams
	scoring ruleset.ScoringWeights
}

func Compile(rs *ruleset.Ruleset) (*Rules, error) {
	if rs == nil {
		return nil, ErrNilRuleset
	}
	switch rs.Outlier.Strategy {
	case ruleset.OutlierMedian, ruleset.OutlierGap:
	default:
		return nil, fmt.Errorf("unknown outlier strategy %q", rs.Outlier.Strategy)
	}

	return &Rules{
		Version:          rs.Version,
		accessory:        newMatcher(rs.AccessoryTerms),
		component:        newMatcher(rs.ComponentTerms),
		refurbished:      newMatcher(rs.RefurbishedTerms),
		queryStopwords:   toSet(rs.QueryStopwords),
		patternStopwords: toSet(rs.PatternStopwords),
		compatibility:    lowerAll(rs.CompatibilityPhrases),
		pattern:          rs.Pattern,
		outlier:          rs.Outlier,
		scoring:          rs.Scoring,
	}, nil
}

// MustCompile is Compile for rulesets known to be valid, such as ruleset.Default().
func MustCompile(rs *ruleset.Ruleset) *Rules {
	r, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return r
}

// newMatcher returns nil for an empty vocabulary; matches treats nil as "never".
func newMatcher(terms []string) *ahocorasick.Matcher {
	terms = lowerAll(terms)
	if len(terms) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(terms)
}

func matches(m *ahocorasick.Matcher, lower string) bool {
	return m != nil && m.Contains([]byte(lower))
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range lowerAll(words) {
		set[w] = struct{}{}
	}
	return set
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
