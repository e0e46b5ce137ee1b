package character

import (
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// CreationTally counts creation dots per budget bucket.
type CreationTally struct {
	Attributes  map[string]int
	Abilities   map[string]int
	Backgrounds int
	Spheres     int
}

// AvailableFreebiePoints is the freebie balance: base points plus capped
// flaw bonuses, minus merit costs and points spent on traits. It can be
// negative after merits are taken during creation.
func (s *Sheet) AvailableFreebiePoints() int {
	c := s.rules.Creation()
	return c.FreebiePoints + s.flawBonus() - s.meritCost() - s.freebieSpent
}

// AvailableExperiencePoints is awarded experience not yet spent.
func (s *Sheet) AvailableExperiencePoints() int {
	return s.experienceTotal - s.experienceSpent
}

// AffinitySphereCap is the rating every other sphere is capped at: the
// affinity sphere's rating, or 0 while no affinity sphere is chosen.
func (s *Sheet) AffinitySphereCap() int {
	if s.affinity == "" {
		return 0
	}
	return s.spheres[s.affinity]
}

// CreationDotsSpent counts creation dots: attribute dots above the base
// of 1 and ability dots per category, background dots (doubled for
// double-cost backgrounds) and sphere dots.
func (s *Sheet) CreationDotsSpent() CreationTally {
	t := CreationTally{Attributes: map[string]int{}, Abilities: map[string]int{}}
	for _, cat := range s.rules.Categories(ruleset.AxisAttribute) {
		t.Attributes[cat] = 0
	}
	for _, cat := range s.rules.Categories(ruleset.AxisAbility) {
		t.Abilities[cat] = 0
	}
	for name, rating := range s.attributes {
		if cat, ok := s.rules.CategoryOf(trait.Attribute(name)); ok {
			t.Attributes[cat] += rating - typeDefault(trait.KindAttribute)
		}
	}
	for name, rating := range s.abilities {
		if cat, ok := s.rules.CategoryOf(trait.Ability(name)); ok {
			t.Abilities[cat] += rating
		}
	}
	for name, rating := range s.backgrounds {
		t.Backgrounds += rating * s.backgroundWeight(name)
	}
	for _, rating := range s.spheres {
		t.Spheres += rating
	}
	return t
}

// CreationDotsRemaining is each bucket's budget minus its spend. Categories
// without a priority have no budget. Negative values mean overspend.
func (s *Sheet) CreationDotsRemaining() CreationTally {
	spent := s.CreationDotsSpent()
	c := s.rules.Creation()
	out := CreationTally{
		Attributes:  map[string]int{},
		Abilities:   map[string]int{},
		Backgrounds: c.Backgrounds - spent.Backgrounds,
		Spheres:     c.Spheres - spent.Spheres,
	}
	for cat, n := range spent.Attributes {
		out.Attributes[cat] = s.rules.Budget(ruleset.AxisAttribute, s.Priority(ruleset.AxisAttribute, cat)) - n
	}
	for cat, n := range spent.Abilities {
		out.Abilities[cat] = s.rules.Budget(ruleset.AxisAbility, s.Priority(ruleset.AxisAbility, cat)) - n
	}
	return out
}

func (s *Sheet) flawBonus() int {
	total := 0
	for _, points := range s.flaws {
		total += points
	}
	return min(total, s.rules.Creation().MaxFlawPoints)
}

func (s *Sheet) meritCost() int {
	total := 0
	for _, points := range s.merits {
		total += points
	}
	return total
}

func (s *Sheet) backgroundWeight(name string) int {
	if b, ok := s.rules.Background(name); ok && b.DoubleCost {
		return 2
	}
	return 1
}
