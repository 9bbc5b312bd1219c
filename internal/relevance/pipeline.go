// internal/relevance/pipeline.go
package relevance

// StageReport records how many candidates entered and left one filter stage.
type StageReport struct {
	Stage Stage `json:"stage"`
	In    int   `json:"in"`
	Out   int   `json:"out"`
}

// Dropped is the number of candidates the stage removed.
func (s StageReport) Dropped() int { return s.In - s.Out }

type Report struct {
	Query      string        `json:"query"`
	Intent     Intent        `json:"intent"`
	Raw        int           `json:"raw"`
	Normalized int           `json:"normalized"`
	Stages     []StageReport `json:"stages"`
	Output     int           `json:"output"`
}

// Pipeline runs one filtering pass per call. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	rules       *Rules
	rankByScore bool
}

type Option func(*Pipeline)

// WithScoreRanking makes the relevance score the primary ranking key.
func WithScoreRanking(enabled bool) Option {
	return func(p *Pipeline) { p.rankByScore = enabled }
}

func NewPipeline(rules *Rules, opts ...Option) *Pipeline {
	p := &Pipeline{rules: rules}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Rules() *Rules { return p.rules }

// ProcessListings turns raw listings into the ranked result set for query.
// An empty result is a valid answer, not a failure.
func (p *Pipeline) ProcessListings(raw []RawListing, query string) []Candidate {
	out, _ := p.Run(raw, query)
	return out
}

// Run is ProcessListings plus a per-stage report.
func (p *Pipeline) Run(raw []RawListing, query string) ([]Candidate, Report) {
	q := p.rules.ParseQuery(query)
	intent := p.rules.Classify(query)

	candidates := NormalizeAll(raw)
	report := Report{
		Query:      query,
		Intent:     intent,
		Raw:        len(raw),
		Normalized: len(candidates),
	}

	for _, stage := range StagesFor(intent) {
		in := len(candidates)
		candidates = p.rules.apply(stage, candidates, q)
		report.Stages = append(report.Stages, StageReport{Stage: stage, In: in, Out: len(candidates)})
	}

	if p.rankByScore {
		for i := range candidates {
			candidates[i].Score = p.rules.Score(candidates[i].Title, q)
		}
	}
	candidates = Rank(candidates, p.rankByScore)
	report.Output = len(candidates)
	return candidates, report
}
