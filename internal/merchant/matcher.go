package merchant

import (
	"sort"

	"fjacquet/ledger-rules/internal/logging"
)

// Group collects the normalized payee variations seen for one canonical
// merchant name.
type Group struct {
	CanonicalName string
	Variations    map[string]struct{}
}

// AddVariation records a payee variation, normalized.
func (g *Group) AddVariation(payee string) {
	g.Variations[Normalize(payee)] = struct{}{}
}

// Suggestion is a scored canonical-name candidate for a payee.
type Suggestion struct {
	CanonicalName string
	Score         float64
}

// Matcher groups payee variations by canonical merchant name and suggests
// existing groups for new payees. Groups are keyed by the normalized
// canonical name.
type Matcher struct {
	groups map[string]*Group
	logger logging.Logger
}

// NewMatcher creates an empty matcher.
func NewMatcher(logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Matcher{
		groups: make(map[string]*Group),
		logger: logger,
	}
}

// AddVariation records a payee variation under the canonical name, creating
// the group on first use.
func (m *Matcher) AddVariation(canonicalName, payee string) {
	key := Normalize(canonicalName)
	group, ok := m.groups[key]
	if !ok {
		group = &Group{
			CanonicalName: canonicalName,
			Variations:    make(map[string]struct{}),
		}
		m.groups[key] = group
	}
	group.AddVariation(payee)
}

// FindCanonical returns the canonical name whose group contains the
// normalized payee as an exact variation.
func (m *Matcher) FindCanonical(payee string) (string, bool) {
	normalized := Normalize(payee)
	for _, group := range m.groups {
		if _, ok := group.Variations[normalized]; ok {
			return group.CanonicalName, true
		}
	}
	return "", false
}

// Groups returns all groups sorted by canonical name.
func (m *Matcher) Groups() []*Group {
	groups := make([]*Group, 0, len(m.groups))
	for _, group := range m.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CanonicalName < groups[j].CanonicalName
	})
	return groups
}

// SuggestMatches returns the canonical names with any stored variation
// scoring at least threshold against the normalized payee, best first. Each
// canonical appears at most once, scored by its best variation.
func (m *Matcher) SuggestMatches(payee string, threshold float64) []Suggestion {
	normalized := Normalize(payee)

	var suggestions []Suggestion
	for _, group := range m.groups {
		best := 0.0
		for variation := range group.Variations {
			if score := Similarity(normalized, variation); score > best {
				best = score
			}
		}
		if best >= threshold {
			suggestions = append(suggestions, Suggestion{
				CanonicalName: group.CanonicalName,
				Score:         best,
			})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].CanonicalName < suggestions[j].CanonicalName
	})

	m.logger.Debug("Merchant suggestions computed",
		logging.Field{Key: "payee", Value: payee},
		logging.Field{Key: "candidates", Value: len(suggestions)})

	return suggestions
}
