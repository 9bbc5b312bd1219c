package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	rs := Default()

	assert.NotEmpty(t, rs.Version)
	assert.Contains(t, rs.AccessoryTerms, "case")
	assert.Contains(t, rs.AccessoryTerms, "headset")
	assert.Contains(t, rs.ComponentTerms, "graphics card")
	assert.Contains(t, rs.ComponentTerms, "ssd")
	assert.Equal(t, 5, rs.Pattern.MinCandidates)
	assert.Equal(t, OutlierMedian, rs.Outlier.Strategy)
	assert.InDelta(t, 0.2, rs.Outlier.MedianRatio, 1e-9)

	// each call hands out an independent copy
	rs.AccessoryTerms[0] = "mutated"
	assert.NotEqual(t, "mutated", Default().AccessoryTerms[0])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing version", `{"accessoryTerms":["case"],"queryStopwords":[],"patternStopwords":[],"pattern":{"minCandidates":5,"quorumMin":2,"quorumRatio":0.2},"outlier":{"strategy":"median","minCandidates":5}}`},
		{"bad strategy", `{"version":"1.0.0","accessoryTerms":["case"],"queryStopwords":[],"patternStopwords":[],"pattern":{"minCandidates":5,"quorumMin":2,"quorumRatio":0.2},"outlier":{"strategy":"mean","minCandidates":5}}`},
		{"empty vocabulary", `{"version":"1.0.0","accessoryTerms":[],"queryStopwords":[],"patternStopwords":[],"pattern":{"minCandidates":5,"quorumMin":2,"quorumRatio":0.2},"outlier":{"strategy":"median","minCandidates":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleset.json")
	rs := Default()

	added, err := rs.AddTerm(ListAccessory, "Lanyard")
	require.NoError(t, err)
	assert.True(t, added)
	require.NoError(t, rs.BumpVersion())
	require.NoError(t, Save(path, rs))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, loaded.AccessoryTerms, "lanyard")
	assert.Equal(t, rs.Version, loaded.Version)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestTermEditing(t *testing.T) {
	rs := Default()

	added, err := rs.AddTerm(ListAccessory, "case")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := rs.RemoveTerm(ListCompatibility, "fits ")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NotContains(t, rs.CompatibilityPhrases, "fits ")

	_, err = rs.AddTerm("colours", "teal")
	assert.Error(t, err)
}

func TestBumpVersion(t *testing.T) {
	rs := &Ruleset{Version: "1.4.9"}
	require.NoError(t, rs.BumpVersion())
	assert.Equal(t, "1.4.10", rs.Version)

	rs.Version = "latest"
	assert.Error(t, rs.BumpVersion())
}
