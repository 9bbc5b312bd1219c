// pkg/ruleset/schema.go
package ruleset

// Ruleset is the single versioned vocabulary and tuning object consumed by the
// relevance pipeline. It is read-only once loaded.
type Ruleset struct {
	Version              string         `json:"version"`
	LastUpdated          string         `json:"lastUpdated"`
	AccessoryTerms       []string       `json:"accessoryTerms"`
	ComponentTerms       []string       `json:"componentTerms,omitempty"`
	QueryStopwords       []string       `json:"queryStopwords"`
	PatternStopwords     []string       `json:"patternStopwords"`
	CompatibilityPhrases []string       `json:"compatibilityPhrases"`
	RefurbishedTerms     []string       `json:"refurbishedTerms"`
	Pattern              PatternParams  `json:"pattern"`
	Outlier              OutlierParams  `json:"outlier"`
	Scoring              ScoringWeights `json:"scoring"`
}

type PatternParams struct {
	MinCandidates int     `json:"minCandidates"`
	QuorumMin     int     `json:"quorumMin"`
	QuorumRatio   float64 `json:"quorumRatio"`
}

// OutlierParams selects between the median-relative floor and the sorted-gap
// detector. Only the fields of the chosen strategy are consulted.
type OutlierParams struct {
	Strategy      string  `json:"strategy"`
	MinCandidates int     `json:"minCandidates"`
	MedianRatio   float64 `json:"medianRatio"`
	GapMultiplier float64 `json:"gapMultiplier"`
	GapFloor      float64 `json:"gapFloor"`
}

type ScoringWeights struct {
	Word          int `json:"word"`
	Number        int `json:"number"`
	Phrase        int `json:"phrase"`
	Compatibility int `json:"compatibility"`
}

const (
	OutlierMedian = "median"
	OutlierGap    = "gap"
)

// List names accepted by the ruleset tool.
const (
	ListAccessory     = "accessory"
	ListComponent     = "component"
	ListQueryStop     = "query-stopword"
	ListPatternStop   = "pattern-stopword"
	ListCompatibility = "compatibility"
	ListRefurbished   = "refurbished"
)

// Terms returns a pointer to the named term list so callers can edit it in place.
func (r *Ruleset) Terms(list string) (*[]string, bool) {
	switch list {
	case ListAccessory:
		return &r.AccessoryTerms, true
	case ListComponent:
		return &r.ComponentTerms, true
	case ListQueryStop:
		return &r.QueryStopwords, true
	case ListPatternStop:
		return &r.PatternStopwords, true
	case ListCompatibility:
		return &r.CompatibilityPhrases, true
	case ListRefurbished:
		return &r.RefurbishedTerms, true
	}
	return nil, false
}
