package character

import (
	"slices"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// CanIncreaseSphere reports whether sphere may be rated to: within its cap
// (the affinity rating, or Arete for the affinity sphere itself), within the
// absolute maximum and not forbidden to the character's group.
func (s *Sheet) CanIncreaseSphere(sphere string, to int) bool {
	ref, ok := s.rules.Resolve(trait.Sphere(sphere))
	if !ok {
		return false
	}
	if to > s.rules.Max(trait.KindSphere) {
		return false
	}
	if to > 0 && s.sphereForbidden(ref.Name) {
		return false
	}
	return to <= s.sphereCap(ref.Name)
}

// AffinityOptions lists the spheres the character's group may choose.
func (s *Sheet) AffinityOptions() []string {
	options := s.rules.AffinityOptions(s.profile.Faction, s.profile.Group)
	return slices.DeleteFunc(options, s.sphereForbidden)
}

// sphereCap is the highest rating sphere may hold right now.
func (s *Sheet) sphereCap(sphere string) int {
	if sphere == s.affinity {
		return s.arete
	}
	if s.affinity == "" {
		return 0
	}
	return min(s.spheres[s.affinity], s.arete)
}

func (s *Sheet) sphereForbidden(sphere string) bool {
	return slices.Contains(s.rules.ForbiddenSpheres(s.profile.Faction, s.profile.Group), sphere)
}

// recapFor returns the sphere reductions that keep every cap intact once the
// affinity sphere is affinity rated affinityRating and Arete is arete.
func (s *Sheet) recapFor(affinity string, affinityRating, arete int) []Adjustment {
	var out []Adjustment
	if affinity == "" {
		return nil
	}
	affinityRating = min(affinityRating, arete)
	if cur := s.spheres[affinity]; cur > affinityRating {
		out = append(out, Adjustment{Kind: AdjustmentRecapped, Trait: trait.Sphere(affinity), From: cur, To: affinityRating})
	}
	for _, name := range s.rules.Spheres() {
		if name == affinity {
			continue
		}
		if cur := s.spheres[name]; cur > affinityRating {
			out = append(out, Adjustment{Kind: AdjustmentRecapped, Trait: trait.Sphere(name), From: cur, To: affinityRating})
		}
	}
	return out
}

// firstFloorBreach returns the first forced change that would cross a floor.
func (s *Sheet) firstFloorBreach(forced []Adjustment) (Adjustment, int, bool) {
	for _, adj := range forced {
		if floor := s.floor(adj.Trait); adj.To < floor {
			return adj, floor, true
		}
	}
	return Adjustment{}, 0, false
}

// SelectAffinity sets the affinity sphere and lowers every other sphere to
// the new affinity rating. The lowered dots are not refunded; they are
// reported as recap adjustments. An empty name clears the choice, which is
// only allowed during creation.
func (s *Sheet) SelectAffinity(sphere string) Decision {
	if sphere == "" {
		if s.regime != RegimeCreation {
			return reject(CodeRegimeLocked, map[string]string{"regime": string(s.regime)},
				"affinity sphere cannot be cleared during %s", s.regime)
		}
		s.affinity = ""
		return Decision{}
	}

	ref, ok := s.rules.Resolve(trait.Sphere(sphere))
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": sphere}, "unknown sphere %q", sphere)
	}
	meta := map[string]string{"sphere": ref.Name, "group": s.groupLabel()}
	if !slices.Contains(s.AffinityOptions(), ref.Name) {
		if s.sphereForbidden(ref.Name) {
			return reject(CodeSphereForbidden, meta, "%s is forbidden to %s", ref.Name, s.groupLabel())
		}
		return reject(CodeAffinityNotAllowed, meta, "%s is not an affinity sphere for %s", ref.Name, s.groupLabel())
	}
	if ref.Name == s.affinity {
		return Decision{Trait: ref}
	}

	forced := s.recapFor(ref.Name, s.spheres[ref.Name], s.arete)
	if adj, floor, breach := s.firstFloorBreach(forced); breach {
		return rejectTrait(ref, s.spheres[ref.Name], CodeBelowFloor,
			map[string]string{"trait": adj.Trait.Name, "floor": itoa(floor)},
			"switching affinity would lower %s below its floor of %d", adj.Trait.Name, floor)
	}

	s.affinity = ref.Name
	s.applyForced(forced)
	return Decision{Trait: ref, From: s.spheres[ref.Name], To: s.spheres[ref.Name], Adjustments: forced}
}

func (s *Sheet) applyForced(forced []Adjustment) {
	for _, adj := range forced {
		s.setRating(adj.Trait, adj.To)
	}
}

// checkSpheresFor reports the first rated sphere or affinity choice that p's
// group would not allow.
func (s *Sheet) checkSpheresFor(p Profile) Decision {
	prev := s.profile
	s.profile = p
	defer func() { s.profile = prev }()

	for _, name := range s.rules.Spheres() {
		if s.spheres[name] > 0 && s.sphereForbidden(name) {
			return rejectTrait(trait.Sphere(name), s.spheres[name], CodeSphereForbidden,
				map[string]string{"sphere": name, "group": s.groupLabel()},
				"%s is forbidden to %s", name, s.groupLabel())
		}
	}
	if s.affinity != "" && !slices.Contains(s.AffinityOptions(), s.affinity) {
		meta := map[string]string{"sphere": s.affinity, "group": s.groupLabel()}
		if s.sphereForbidden(s.affinity) {
			return reject(CodeSphereForbidden, meta, "%s is forbidden to %s", s.affinity, s.groupLabel())
		}
		return reject(CodeAffinityNotAllowed, meta, "%s is not an affinity sphere for %s", s.affinity, s.groupLabel())
	}
	return Decision{}
}

func (s *Sheet) groupLabel() string {
	if s.profile.Group != "" {
		return s.profile.Group
	}
	if s.profile.Faction != "" {
		return s.profile.Faction
	}
	return "this character"
}
