package character

import (
	"maps"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// FloorFor returns the lowest rating ref may be set to: its freebie
// baseline, else its creation baseline, else the type default.
func (s *Sheet) FloorFor(ref trait.Ref) int {
	resolved, ok := s.rules.Resolve(ref)
	if !ok {
		return 0
	}
	return s.floor(resolved)
}

func (s *Sheet) floor(ref trait.Ref) int {
	key := ref.Key()
	if v, ok := s.freebieBaseline[key]; ok {
		return v
	}
	if v, ok := s.creationBaseline[key]; ok {
		return v
	}
	return typeDefault(ref.Kind)
}

// Baseline returns a copy of the floors recorded when regime closed, or nil
// if that regime has not closed.
func (s *Sheet) Baseline(regime Regime) map[string]int {
	switch regime {
	case RegimeCreation:
		return maps.Clone(s.creationBaseline)
	case RegimeFreebie:
		return maps.Clone(s.freebieBaseline)
	}
	return nil
}

// snapshotBaseline records every rated trait as the floor for the closing
// regime. Abilities and backgrounds at 0 are omitted; their floor is 0 anyway.
func (s *Sheet) snapshotBaseline(closing Regime) {
	b := map[string]int{}
	for name, v := range s.attributes {
		b[trait.Attribute(name).Key()] = v
	}
	for name, v := range s.abilities {
		b[trait.Ability(name).Key()] = v
	}
	for name, v := range s.spheres {
		b[trait.Sphere(name).Key()] = v
	}
	for name, v := range s.backgrounds {
		b[trait.Background(name).Key()] = v
	}
	b[trait.Arete.Key()] = s.arete
	b[trait.Willpower.Key()] = s.willpower
	b[trait.Quintessence.Key()] = s.quintessence

	switch closing {
	case RegimeCreation:
		s.creationBaseline = b
	case RegimeFreebie:
		s.freebieBaseline = b
	}
}

// typeDefault is the floor of a trait no baseline mentions. Attributes start
// at one dot; Arete and Willpower can never be bought down to zero.
func typeDefault(kind trait.Kind) int {
	switch kind {
	case trait.KindAttribute, trait.KindArete, trait.KindWillpower:
		return 1
	}
	return 0
}
