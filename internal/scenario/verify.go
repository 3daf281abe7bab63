package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/emberline/wildfire-cascade/internal/domain"
)

// FieldDivergence is one mismatch between a recorded and a replayed value.
type FieldDivergence struct {
	AssetID  string `json:"asset_id"`
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

// VerifyResult reports whether a replay reproduced the recording.
type VerifyResult struct {
	Scenario    string            `json:"scenario"`
	Match       bool              `json:"match"`
	Results     int               `json:"results"`
	Divergences []FieldDivergence `json:"divergences,omitempty"`
}

// Verify replays the scenario and byte-compares the marshaled replayed
// output against the marshaled recording. Match means the replay is
// reproducible down to the last bit of every float; when it is not, the
// per-field divergences narrow down where the drift came from.
func Verify(s *Scenario, rules domain.CascadeRules) (*VerifyResult, error) {
	replayed, err := s.Replay(rules)
	if err != nil {
		return nil, err
	}

	recordedJSON, err := json.Marshal(s.Output)
	if err != nil {
		return nil, fmt.Errorf("marshal recorded output: %w", err)
	}
	replayedJSON, err := json.Marshal(replayed)
	if err != nil {
		return nil, fmt.Errorf("marshal replayed output: %w", err)
	}

	res := &VerifyResult{
		Scenario: s.Name,
		Results:  len(s.Output),
		Match:    bytes.Equal(recordedJSON, replayedJSON),
	}
	if res.Match {
		return res, nil
	}

	if len(replayed) != len(s.Output) {
		res.Divergences = append(res.Divergences, FieldDivergence{
			Field:    "len(output)",
			Expected: len(s.Output),
			Actual:   len(replayed),
		})
		return res, nil
	}
	for i := range s.Output {
		res.Divergences = append(res.Divergences, compareResults(s.Output[i], replayed[i])...)
	}
	return res, nil
}

func compareResults(recorded, replayed domain.RiskResult) []FieldDivergence {
	var divs []FieldDivergence
	add := func(field string, expected, actual any) {
		divs = append(divs, FieldDivergence{
			AssetID:  recorded.AssetID,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if recorded.AssetID != replayed.AssetID {
		add("asset_id", recorded.AssetID, replayed.AssetID)
	}
	if recorded.ContributingFireID != replayed.ContributingFireID {
		add("contributing_fire_id", recorded.ContributingFireID, replayed.ContributingFireID)
	}
	if recorded.Score != replayed.Score {
		add("score", recorded.Score, replayed.Score)
	}
	if recorded.DistanceKm != replayed.DistanceKm {
		add("distance_km", recorded.DistanceKm, replayed.DistanceKm)
	}
	if recorded.WindAlignmentFactor != replayed.WindAlignmentFactor {
		add("wind_alignment_factor", recorded.WindAlignmentFactor, replayed.WindAlignmentFactor)
	}
	if len(recorded.CascadeCards) != len(replayed.CascadeCards) {
		add("len(cascade_cards)", len(recorded.CascadeCards), len(replayed.CascadeCards))
	}
	return divs
}
