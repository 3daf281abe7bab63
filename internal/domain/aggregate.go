package domain

import (
	"fmt"
	"sort"
)

// Aggregate scores every asset against every fire and returns one RiskResult
// per asset, sorted descending by score (stable, so ties keep asset input
// order). For each asset the maximum-scoring fire wins; ties go to the
// smaller distance, then to the earlier fire index.
//
// An empty fire list is not an error: every asset scores 0 with no cards.
// Any malformed fire, asset, or parameter fails the whole call before any
// result is produced; partial results are never returned.
func Aggregate(fires []FirePoint, assets []Asset, wind WindVector, horizonHours int, weights ScoreWeights, rules CascadeRules) ([]RiskResult, error) {
	// 360 and 0 name the same compass direction; collapse to one
	// representation so both spellings produce identical results.
	if wind.FromDegrees == 360 {
		wind.FromDegrees = 0
	}
	if err := validateInputs(fires, assets, wind, horizonHours); err != nil {
		return nil, err
	}

	results := make([]RiskResult, 0, len(assets))
	for _, asset := range assets {
		result, err := scoreAsset(asset, fires, wind, horizonHours, weights, rules)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// scoreAsset finds the worst contributing fire for one asset and attaches
// the cascade cards its score unlocks.
func scoreAsset(asset Asset, fires []FirePoint, wind WindVector, horizonHours int, weights ScoreWeights, rules CascadeRules) (RiskResult, error) {
	result := RiskResult{
		AssetID:      asset.ID,
		CascadeCards: make([]CascadeCard, 0),
	}
	if len(fires) == 0 {
		return result, nil
	}

	assetCoord := Coordinate{Lat: asset.Latitude, Lon: asset.Longitude}
	found := false

	for _, fire := range fires {
		fireCoord := Coordinate{Lat: fire.Latitude, Lon: fire.Longitude}

		dist, err := DistanceKm(fireCoord, assetCoord)
		if err != nil {
			return RiskResult{}, fmt.Errorf("fire %q to asset %q: %w", fire.ID, asset.ID, err)
		}
		bearing, err := BearingDegrees(fireCoord, assetCoord)
		if err != nil {
			return RiskResult{}, fmt.Errorf("fire %q to asset %q: %w", fire.ID, asset.ID, err)
		}

		alignment := AlignmentFactor(bearing, wind.FromDegrees)
		score, err := Score(dist, fire.Confidence, alignment, horizonHours, weights)
		if err != nil {
			return RiskResult{}, fmt.Errorf("fire %q: %w", fire.ID, err)
		}

		// Strict comparisons keep the earliest fire on a full tie.
		better := score > result.Score ||
			(score == result.Score && dist < result.DistanceKm)
		if !found || better {
			found = true
			result.Score = score
			result.ContributingFireID = fire.ID
			result.DistanceKm = dist
			result.WindAlignmentFactor = alignment
		}
	}

	result.CascadeCards = rules.CardsFor(asset.Category, result.Score)
	return result, nil
}

// validateInputs fails fast on the first malformed record, in input order:
// request parameters, then fires, then assets.
func validateInputs(fires []FirePoint, assets []Asset, wind WindVector, horizonHours int) error {
	if wind.FromDegrees < 0 || wind.FromDegrees > 360 {
		return fmt.Errorf("%w: wind direction %v outside [0, 360]", ErrInvalidInput, wind.FromDegrees)
	}
	if horizonHours <= 0 || horizonHours > MaxHorizonHours {
		return fmt.Errorf("%w: horizon %d hours outside [1, %d]", ErrInvalidInput, horizonHours, MaxHorizonHours)
	}
	for _, fire := range fires {
		if err := (Coordinate{Lat: fire.Latitude, Lon: fire.Longitude}).Validate(); err != nil {
			return fmt.Errorf("fire %q: %w", fire.ID, err)
		}
		if fire.Confidence < 0 || fire.Confidence > 100 {
			return fmt.Errorf("%w: fire %q confidence %v outside [0, 100]", ErrInvalidInput, fire.ID, fire.Confidence)
		}
	}
	for _, asset := range assets {
		if err := (Coordinate{Lat: asset.Latitude, Lon: asset.Longitude}).Validate(); err != nil {
			return fmt.Errorf("asset %q: %w", asset.ID, err)
		}
	}
	return nil
}
