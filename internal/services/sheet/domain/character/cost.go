package character

import "github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"

// FreebieCost prices raising ref from oldRating to newRating with freebie
// points. Decreases cost nothing.
func (s *Sheet) FreebieCost(ref trait.Ref, oldRating, newRating int) int {
	total := 0
	for r := oldRating; r < newRating; r++ {
		total += s.freebieStep(ref, r)
	}
	return total
}

// ExperienceCost prices raising ref from oldRating to newRating with
// experience, as the sum of the single-dot prices. Decreases cost nothing.
func (s *Sheet) ExperienceCost(ref trait.Ref, oldRating, newRating int) int {
	total := 0
	for r := oldRating; r < newRating; r++ {
		total += s.experienceStep(ref, r)
	}
	return total
}

// CostToIncreaseByOne prices one dot above current in the active regime.
// Creation dots are budgeted rather than priced and cost 0 here.
func (s *Sheet) CostToIncreaseByOne(ref trait.Ref, current int) int {
	resolved, ok := s.rules.Resolve(ref)
	if !ok {
		return 0
	}
	switch s.regime {
	case RegimeFreebie:
		return s.freebieStep(resolved, current)
	case RegimeExperience:
		return s.experienceStep(resolved, current)
	}
	return 0
}

func (s *Sheet) freebieStep(ref trait.Ref, current int) int {
	costs := s.rules.FreebieCosts()
	switch ref.Kind {
	case trait.KindAttribute:
		return costs.Attribute
	case trait.KindAbility:
		return costs.Ability
	case trait.KindBackground:
		return costs.Background * s.backgroundWeight(ref.Name)
	case trait.KindSphere:
		return costs.Sphere
	case trait.KindArete:
		return costs.Arete
	case trait.KindWillpower:
		return costs.Willpower
	case trait.KindQuintessence:
		if (current+1)%costs.QuintessenceDotsPerPoint == 0 {
			return 1
		}
		return 0
	}
	return 0
}

// experienceStep multiplies the rating held before the new dot.
func (s *Sheet) experienceStep(ref trait.Ref, current int) int {
	costs := s.rules.ExperienceCosts()
	switch ref.Kind {
	case trait.KindAttribute:
		return current * costs.Attribute
	case trait.KindAbility:
		if current == 0 {
			return costs.NewAbility
		}
		return current * costs.Ability
	case trait.KindSphere:
		if current == 0 {
			return costs.NewSphere
		}
		if ref.Name == s.affinity {
			return current * costs.AffinitySphere
		}
		return current * costs.OtherSphere
	case trait.KindBackground:
		return current * costs.Background
	case trait.KindArete:
		return current * costs.Arete
	case trait.KindWillpower:
		return current * costs.Willpower
	}
	return 0
}
