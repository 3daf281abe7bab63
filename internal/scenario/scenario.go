// Package scenario records and replays risk assessments. A scenario
// freezes the inputs of one historical event (fires, assets, wind) together
// with the scores the engine produced, so the same computation can be
// demonstrated and verified offline, without any upstream API.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emberline/wildfire-cascade/internal/domain"
)

// ErrNotFound reports a scenario name with no file behind it.
var ErrNotFound = errors.New("scenario not found")

// Input is everything the scoring engine consumed.
type Input struct {
	BBox         string              `json:"bbox"`
	Fires        []domain.FirePoint  `json:"fires"`
	Assets       []domain.Asset      `json:"assets"`
	Wind         domain.WindVector   `json:"wind"`
	HorizonHours int                 `json:"horizon_hours"`
	Weights      domain.ScoreWeights `json:"weights"`
}

// Scenario is one recorded assessment. Output holds the scores produced at
// record time; Replay recomputes them from Input alone.
type Scenario struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	RecordedAt  time.Time           `json:"recorded_at"`
	Input       Input               `json:"input"`
	Output      []domain.RiskResult `json:"output"`
}

// Replay reruns the scoring engine over the recorded inputs. Cascade card
// templates come from the running build, not the recording; the numeric
// fields are what replay guarantees.
func (s *Scenario) Replay(rules domain.CascadeRules) ([]domain.RiskResult, error) {
	return domain.Aggregate(s.Input.Fires, s.Input.Assets, s.Input.Wind, s.Input.HorizonHours, s.Input.Weights, rules)
}

// Store loads scenarios from a directory of <name>.json files.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns the names of every scenario in the directory, without the
// .json extension.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

// Load reads one scenario by name. Names are plain identifiers; anything
// that looks like a path is rejected.
func (st *Store) Load(name string) (*Scenario, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(st.dir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read scenario %q: %w", name, err)
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", name, err)
	}
	return &s, nil
}

// Save writes the scenario as <name>.json, creating the directory if
// needed.
func (st *Store) Save(s *Scenario) error {
	if !validName(s.Name) {
		return fmt.Errorf("invalid scenario name %q", s.Name)
	}
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("create scenario dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize scenario %q: %w", s.Name, err)
	}
	path := filepath.Join(st.dir, s.Name+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write scenario %q: %w", s.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write scenario %q: %w", s.Name, err)
	}
	return nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
