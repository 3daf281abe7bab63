package domain

// CascadeMinScore is the score below which no cascade cards attach. A
// low-risk asset still appears in the results, just without consequence
// cards cluttering the map.
const CascadeMinScore = 0.3

// CardTemplate is one cascade consequence for an asset category. MinScore
// lets the more alarming cards stay hidden until the risk justifies them;
// zero means the card attaches at the global CascadeMinScore threshold.
type CardTemplate struct {
	Title       string
	Description string
	Severity    string
	MinScore    float64
}

// CascadeRules maps asset categories to their downstream consequence cards.
// Built once at startup and passed by reference; never mutated afterwards.
type CascadeRules struct {
	templates map[AssetCategory][]CardTemplate
}

// NewCascadeRules copies the given template table into an immutable rule set.
func NewCascadeRules(templates map[AssetCategory][]CardTemplate) CascadeRules {
	copied := make(map[AssetCategory][]CardTemplate, len(templates))
	for cat, cards := range templates {
		copied[cat] = append([]CardTemplate(nil), cards...)
	}
	return CascadeRules{templates: copied}
}

// CardsFor returns the cards unlocked by the given score for a category,
// in template order. Unknown categories yield an empty slice, never an
// error, so new asset types degrade gracefully.
func (r CascadeRules) CardsFor(category AssetCategory, score float64) []CascadeCard {
	cards := make([]CascadeCard, 0)
	if score < CascadeMinScore {
		return cards
	}
	for _, t := range r.templates[category] {
		if score < t.MinScore {
			continue
		}
		cards = append(cards, CascadeCard{
			Title:       t.Title,
			Description: t.Description,
			Severity:    t.Severity,
		})
	}
	return cards
}

// DefaultCascadeRules returns the demo consequence table.
func DefaultCascadeRules() CascadeRules {
	return NewCascadeRules(map[AssetCategory][]CardTemplate{
		CategoryPowerSubstation: {
			{
				Title:       "Downstream outage",
				Description: "Losing this substation de-energizes the local distribution network, including hospitals and water plants on its feeders.",
				Severity:    SeverityCritical,
			},
			{
				Title:       "Water pressure loss",
				Description: "Pumping stations on the affected feeders lose pressure within hours without backup generation.",
				Severity:    SeveritySevere,
				MinScore:    0.5,
			},
		},
		CategoryPowerLine: {
			{
				Title:       "Transmission interruption",
				Description: "A de-energized or damaged line cuts supply to every substation downstream of the break.",
				Severity:    SeveritySevere,
			},
		},
		CategoryHospital: {
			{
				Title:       "Service interruption",
				Description: "Emergency intake diverts to neighboring facilities, adding transport time for critical patients.",
				Severity:    SeveritySevere,
			},
			{
				Title:       "Evacuation burden",
				Description: "Full evacuation of inpatients requires ambulance capacity the region cannot spare during an active fire.",
				Severity:    SeverityCritical,
				MinScore:    0.5,
			},
		},
		CategoryWaterTreatment: {
			{
				Title:       "Potable water disruption",
				Description: "Treatment outage triggers boil-water notices for the service area within a day.",
				Severity:    SeveritySevere,
			},
			{
				Title:       "Firefighting supply reduced",
				Description: "Hydrant pressure depends on this plant; losing it constrains structure defense in the same area.",
				Severity:    SeverityCritical,
				MinScore:    0.6,
			},
		},
		CategoryRoadSegment: {
			{
				Title:       "Evacuation route compromised",
				Description: "Closure removes an egress route and funnels evacuation traffic onto remaining corridors.",
				Severity:    SeverityCritical,
			},
			{
				Title:       "Detour congestion",
				Description: "Diverted traffic slows emergency vehicle response along the detour corridors.",
				Severity:    SeverityModerate,
			},
		},
	})
}
