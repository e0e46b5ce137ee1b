package character

import (
	"slices"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// ChangeRequest asks for one trait to be set to Rating. Override is the
// storyteller bypass: the change skips the budget check and is not charged.
// Floors, maximums and sphere caps still apply.
type ChangeRequest struct {
	Trait    trait.Ref
	Rating   int
	Override bool
}

// RequestChange validates, prices and applies a rating change. The returned
// decision carries the applied rating, the points charged and any clamps or
// forced sphere reductions.
func (s *Sheet) RequestChange(req ChangeRequest) Decision {
	d, forced := s.plan(req)
	if !d.Accepted() {
		return d
	}
	s.commit(d, forced)
	return d
}

// Preview runs the same checks as RequestChange without changing the sheet.
func (s *Sheet) Preview(req ChangeRequest) Decision {
	d, _ := s.plan(req)
	return d
}

func (s *Sheet) plan(req ChangeRequest) (Decision, []Adjustment) {
	ref, ok := s.rules.Resolve(req.Trait)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": req.Trait.String()},
			"unknown trait %q", req.Trait.Key()), nil
	}
	from := s.rating(ref)
	to := req.Rating
	label := ref.String()
	raising := to > from

	if to < 0 {
		return rejectTrait(ref, from, CodeInvalidValue, map[string]string{"field": label, "value": itoa(to)},
			"%s cannot be negative", label), nil
	}
	if maximum := s.rules.Max(ref.Kind); to > maximum {
		return rejectTrait(ref, from, CodeAboveMaximum, map[string]string{"trait": label, "maximum": itoa(maximum)},
			"%s cannot exceed %d", label, maximum), nil
	}
	if limit, capped := s.stageLimit(ref); capped && raising && to > limit && !req.Override {
		return rejectTrait(ref, from, CodeAboveMaximum, map[string]string{"trait": label, "maximum": itoa(limit)},
			"%s cannot exceed %d during %s", label, limit, s.regime), nil
	}
	if raising {
		if d, blocked := s.eligibility(ref, from); blocked {
			return d, nil
		}
	}

	var adjustments []Adjustment
	if ref.Kind == trait.KindSphere && raising {
		if limit := max(s.sphereCap(ref.Name), from); to > limit {
			adjustments = append(adjustments, Adjustment{Kind: AdjustmentClamped, Trait: ref, From: to, To: limit})
			to = limit
		}
	}

	if floor := s.floor(ref); to < floor {
		return rejectTrait(ref, from, CodeBelowFloor, map[string]string{"trait": label, "floor": itoa(floor)},
			"%s cannot go below %d", label, floor), nil
	}

	forced := s.cascade(ref, to)
	if adj, floor, breach := s.firstFloorBreach(forced); breach {
		return rejectTrait(ref, from, CodeBelowFloor, map[string]string{"trait": adj.Trait.String(), "floor": itoa(floor)},
			"lowering %s would push %s below %d", label, adj.Trait, floor), nil
	}

	d := Decision{Trait: ref, From: from, To: to, Adjustments: append(adjustments, forced...)}
	if s.regime == RegimeCreation || req.Override || !raising {
		return d, forced
	}
	if s.regime == RegimeExperience && ref.Kind == trait.KindQuintessence {
		return rejectTrait(ref, from, CodeNotPurchasable, map[string]string{"trait": label, "regime": string(s.regime)},
			"%s cannot be bought with experience", label), nil
	}
	cost, available := s.price(ref, from, to)
	if cost > available || available < 0 {
		return rejectTrait(ref, from, CodeInsufficientPoints,
			map[string]string{"trait": label, "cost": itoa(cost), "available": itoa(available)},
			"%s costs %d but only %d points are available", label, cost, available), nil
	}
	d.Cost = cost
	return d, forced
}

// price returns the cost of from→to in the active regime and the balance it
// is checked against.
func (s *Sheet) price(ref trait.Ref, from, to int) (int, int) {
	if s.regime == RegimeExperience {
		return s.ExperienceCost(ref, from, to), s.AvailableExperiencePoints()
	}
	return s.FreebieCost(ref, from, to), s.AvailableFreebiePoints()
}

// stageLimit returns the creation caps: abilities while in creation, Arete
// until experience.
func (s *Sheet) stageLimit(ref trait.Ref) (int, bool) {
	c := s.rules.Creation()
	switch {
	case ref.Kind == trait.KindAbility && s.regime == RegimeCreation:
		return c.AbilityMax, true
	case ref.Kind == trait.KindArete && s.regime != RegimeExperience:
		return c.AreteMax, true
	}
	return 0, false
}

// eligibility applies affiliation restrictions to increases.
func (s *Sheet) eligibility(ref trait.Ref, from int) (Decision, bool) {
	switch ref.Kind {
	case trait.KindSphere:
		if s.sphereForbidden(ref.Name) {
			return rejectTrait(ref, from, CodeSphereForbidden, map[string]string{"sphere": ref.Name, "group": s.groupLabel()},
				"%s is forbidden to %s", ref.Name, s.groupLabel()), true
		}
	case trait.KindBackground:
		if b, _ := s.rules.Background(ref.Name); b.TechnocracyOnly && !s.rules.IsTechnocracy(s.profile.Faction) {
			return rejectTrait(ref, from, CodeBackgroundNotAllowed, map[string]string{"trait": ref.Name},
				"%s is only available to the Technocracy", ref.Name), true
		}
	}
	return Decision{}, false
}

// cascade returns the sphere reductions a decrease of the affinity sphere or
// of Arete forces on the other spheres.
func (s *Sheet) cascade(ref trait.Ref, to int) []Adjustment {
	var forced []Adjustment
	switch {
	case ref.Kind == trait.KindSphere && ref.Name == s.affinity && to < s.spheres[ref.Name]:
		forced = s.recapFor(s.affinity, to, s.arete)
	case ref.Kind == trait.KindArete && to < s.arete:
		forced = s.recapFor(s.affinity, s.spheres[s.affinity], to)
	}
	// The requested trait itself is never reported as forced.
	return slices.DeleteFunc(forced, func(adj Adjustment) bool { return adj.Trait == ref })
}

func (s *Sheet) commit(d Decision, forced []Adjustment) {
	s.setRating(d.Trait, d.To)
	s.applyForced(forced)
	switch s.regime {
	case RegimeFreebie:
		s.freebieSpent += d.Cost
	case RegimeExperience:
		s.experienceSpent += d.Cost
		if d.To > d.From {
			s.experienceLog = append(s.experienceLog, ExperienceEntry{
				Kind: ExperienceSpend, Trait: d.Trait.Key(), From: d.From, To: d.To, Points: d.Cost,
			})
		}
	}
}
