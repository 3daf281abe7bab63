package scenario

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/wildfire-cascade/internal/domain"
)

func recordedScenario(t *testing.T) *Scenario {
	t.Helper()
	in := Input{
		BBox: "-121.8,39.5,-121,40.1",
		Fires: []domain.FirePoint{
			{ID: "fire_a", Latitude: 39.79, Longitude: -121.44, Confidence: 90},
			{ID: "fire_b", Latitude: 39.76, Longitude: -121.50, Confidence: 60},
		},
		Assets: []domain.Asset{
			{ID: "osm_node_101", Category: domain.CategoryPowerSubstation, Latitude: 39.80, Longitude: -121.40},
			{ID: "osm_way_202", Category: domain.CategoryHospital, Latitude: 39.752, Longitude: -121.577},
		},
		Wind:         domain.WindVector{FromDegrees: 90, SpeedKmh: 40},
		HorizonHours: 24,
		Weights:      domain.DefaultScoreWeights(),
	}
	out, err := domain.Aggregate(in.Fires, in.Assets, in.Wind, in.HorizonHours, in.Weights, domain.DefaultCascadeRules())
	require.NoError(t, err)
	return &Scenario{
		Name:       "test-run",
		RecordedAt: time.Date(2018, 11, 8, 15, 10, 0, 0, time.UTC),
		Input:      in,
		Output:     out,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	st := NewStore(t.TempDir())
	recorded := recordedScenario(t)
	require.NoError(t, st.Save(recorded))

	loaded, err := st.Load("test-run")
	require.NoError(t, err)
	assert.Equal(t, recorded.Name, loaded.Name)
	assert.Equal(t, recorded.Input, loaded.Input)
	assert.Equal(t, recorded.Output, loaded.Output)

	names, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"test-run"}, names)
}

func TestStore_LoadUnknownName(t *testing.T) {
	st := NewStore(t.TempDir())

	_, err := st.Load("no-such-scenario")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsPathLikeNames(t *testing.T) {
	st := NewStore(t.TempDir())

	for _, name := range []string{"../etc/passwd", "a/b", "", "name.json"} {
		_, err := st.Load(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
	assert.Error(t, st.Save(&Scenario{Name: "../escape"}))
}

func TestStore_ListMissingDirIsEmpty(t *testing.T) {
	st := NewStore(t.TempDir() + "/nonexistent")

	names, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestVerify_RecordedRunReplaysExactly(t *testing.T) {
	// A scenario recorded and replayed by the same binary must reproduce
	// every float bit for bit, not merely within tolerance.
	recorded := recordedScenario(t)

	replayed, err := recorded.Replay(domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.Equal(t, recorded.Output, replayed)

	res, err := Verify(recorded, domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Empty(t, res.Divergences)
	assert.Equal(t, len(recorded.Output), res.Results)
}

func TestVerify_LastBitDriftFailsVerification(t *testing.T) {
	// Reproducibility is bit-for-bit: a recording whose score is off by a
	// single ulp, as happens when the fixture was generated by a different
	// math library, must fail verification rather than slide under a
	// tolerance.
	recorded := recordedScenario(t)
	recorded.Output[0].Score = math.Nextafter(recorded.Output[0].Score, 1)

	res, err := Verify(recorded, domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.False(t, res.Match)
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, "score", res.Divergences[0].Field)
}

func TestVerify_ReportsTamperedScore(t *testing.T) {
	recorded := recordedScenario(t)
	recorded.Output[0].Score += 0.05

	res, err := Verify(recorded, domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.False(t, res.Match)
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, "score", res.Divergences[0].Field)
	assert.Equal(t, recorded.Output[0].AssetID, res.Divergences[0].AssetID)
}

func TestVerify_ReportsLengthMismatch(t *testing.T) {
	recorded := recordedScenario(t)
	recorded.Output = recorded.Output[:1]

	res, err := Verify(recorded, domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.False(t, res.Match)
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, "len(output)", res.Divergences[0].Field)
}

func TestVerify_InvalidInputSurfacesError(t *testing.T) {
	recorded := recordedScenario(t)
	recorded.Input.HorizonHours = 0

	_, err := Verify(recorded, domain.DefaultCascadeRules())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShippedCampFireScenarioVerifies(t *testing.T) {
	st := NewStore("../../data/scenarios")

	s, err := st.Load("camp-fire-2018")
	require.NoError(t, err)
	require.Len(t, s.Output, 4)

	res, err := Verify(s, domain.DefaultCascadeRules())
	require.NoError(t, err)
	assert.True(t, res.Match, "divergences: %+v", res.Divergences)

	// The committed fixture must marshal to the same bytes the engine
	// produces today; regenerate with cmd/genscenario when the model
	// changes.
	replayed, err := s.Replay(domain.DefaultCascadeRules())
	require.NoError(t, err)
	recordedJSON, err := json.Marshal(s.Output)
	require.NoError(t, err)
	replayedJSON, err := json.Marshal(replayed)
	require.NoError(t, err)
	assert.Equal(t, string(recordedJSON), string(replayedJSON))

	// The recorded ranking: substation, road, water plant, hospital, with
	// card gating visible at each tier.
	assert.Equal(t, "osm_node_101", replayed[0].AssetID)
	assert.Greater(t, replayed[0].Score, 0.7)
	assert.Len(t, replayed[0].CascadeCards, 2)
	assert.Equal(t, "osm_way_303", replayed[1].AssetID)
	assert.Len(t, replayed[1].CascadeCards, 2)
	assert.Equal(t, "osm_node_404", replayed[2].AssetID)
	assert.Len(t, replayed[2].CascadeCards, 1)
	assert.Equal(t, "osm_way_202", replayed[3].AssetID)
	assert.Len(t, replayed[3].CascadeCards, 1)
}
