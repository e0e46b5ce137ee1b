package character

import (
	"maps"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
)

// SetPriority assigns tier p to one attribute or ability category. A tier
// already held by another category on the same axis is rejected with
// DUPLICATE_PRIORITY and the holder keeps it; PriorityUnset clears the
// category. Priorities only move during creation.
func (s *Sheet) SetPriority(axis ruleset.Axis, category string, p ruleset.Priority) Decision {
	if s.regime != RegimeCreation {
		return reject(CodeRegimeLocked, map[string]string{"regime": string(s.regime)},
			"priorities are fixed once creation closes")
	}
	name, ok := s.resolveCategory(axis, category)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": category},
			"unknown %s category %q", axis, category)
	}
	if _, valid := ruleset.ParsePriority(string(p)); !valid {
		return reject(CodeInvalidValue, map[string]string{"field": "priority", "value": string(p)},
			"unknown priority %q", p)
	}

	tiers := s.priorities[axis]
	if p != ruleset.PriorityUnset {
		for holder, held := range tiers {
			if held == p && holder != name {
				return reject(CodeDuplicatePriority,
					map[string]string{"category": name, "priority": string(p), "holder": holder},
					"%s is already %s", holder, p)
			}
		}
	}
	if p == ruleset.PriorityUnset {
		delete(tiers, name)
	} else {
		tiers[name] = p
	}
	return Decision{}
}

// Priorities returns a copy of the category tiers assigned on axis.
func (s *Sheet) Priorities(axis ruleset.Axis) map[string]ruleset.Priority {
	return maps.Clone(s.priorities[axis])
}

func (s *Sheet) resolveCategory(axis ruleset.Axis, category string) (string, bool) {
	for _, name := range s.rules.Categories(axis) {
		if strings.EqualFold(name, strings.TrimSpace(category)) {
			return name, true
		}
	}
	return "", false
}
