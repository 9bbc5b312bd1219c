// internal/relevance/stage.go
package relevance

type Stage string

const (
	StageTopic         Stage = "topic"
	StagePattern       Stage = "pattern"
	StageCompatibility Stage = "compatibility"
	StageOutlier       Stage = "outlier"
)

var stagePlan = map[Intent][]Stage{
	IntentMainProduct: {StageTopic, StagePattern, StageCompatibility, StageOutlier},
	IntentAccessory:   {StageTopic},
}

// StagesFor returns the ordered filter stages run for an intent. The returned
// slice is a copy.
func StagesFor(intent Intent) []Stage {
	plan := stagePlan[intent]
	out := make([]Stage, len(plan))
	copy(out, plan)
	return out
}

func (r *Rules) apply(stage Stage, in []Candidate, q Query) []Candidate {
	switch stage {
	case StageTopic:
		return FilterByTopic(in, q)
	case StagePattern:
		return r.FilterByPattern(in, q)
	case StageCompatibility:
		return r.FilterCompatibility(in)
	case StageOutlier:
		return r.FilterOutliers(in)
	}
	return in
}
