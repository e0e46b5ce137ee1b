package character

import (
	"fmt"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
)

// ReasonCode identifies one unmet condition for closing a regime.
type ReasonCode string

const (
	ReasonAttributesRemaining  ReasonCode = "ATTRIBUTES_REMAINING"
	ReasonAttributesOverspent  ReasonCode = "ATTRIBUTES_OVERSPENT"
	ReasonAbilitiesRemaining   ReasonCode = "ABILITIES_REMAINING"
	ReasonAbilitiesOverspent   ReasonCode = "ABILITIES_OVERSPENT"
	ReasonBackgroundsRemaining ReasonCode = "BACKGROUNDS_REMAINING"
	ReasonBackgroundsOverspent ReasonCode = "BACKGROUNDS_OVERSPENT"
	ReasonSpheresRemaining     ReasonCode = "SPHERES_REMAINING"
	ReasonSpheresOverspent     ReasonCode = "SPHERES_OVERSPENT"
	ReasonPriorityMissing      ReasonCode = "PRIORITY_MISSING"
	ReasonAffinityMissing      ReasonCode = "AFFINITY_SPHERE_MISSING"
	ReasonMeritsOverspent      ReasonCode = "MERITS_OVERSPENT"
	ReasonFreebiesRemaining    ReasonCode = "FREEBIE_POINTS_REMAINING"
	ReasonFreebiesOverspent    ReasonCode = "FREEBIE_POINTS_OVERSPENT"
	ReasonRegimeTerminal       ReasonCode = "REGIME_TERMINAL"
)

// Reason is one unmet condition. Amount is the unspent (positive) or
// overspent (positive) quantity where one applies.
type Reason struct {
	Code     ReasonCode
	Category string
	Amount   int
	Message  string
}

// CanAdvance lists what prevents closing the current regime, in a stable
// order: attribute categories, ability categories, backgrounds, spheres,
// then the affinity sphere. An empty list means Advance will succeed.
func (s *Sheet) CanAdvance() []Reason {
	switch s.regime {
	case RegimeCreation:
		return s.creationReasons()
	case RegimeFreebie:
		switch available := s.AvailableFreebiePoints(); {
		case available > 0:
			return []Reason{{
				Code: ReasonFreebiesRemaining, Amount: available,
				Message: fmt.Sprintf("Freebie Points: %d remaining", available),
			}}
		case available < 0:
			return []Reason{{
				Code: ReasonFreebiesOverspent, Amount: -available,
				Message: fmt.Sprintf("Freebie Points: overspent by %d", -available),
			}}
		}
		return nil
	}
	return []Reason{{Code: ReasonRegimeTerminal, Message: "Experience is the final stage"}}
}

func (s *Sheet) creationReasons() []Reason {
	var reasons []Reason
	remaining := s.CreationDotsRemaining()

	// An unset priority has a zero budget, so it only blocks once dots are spent.
	for _, cat := range s.rules.Categories(ruleset.AxisAttribute) {
		if s.Priority(ruleset.AxisAttribute, cat) == ruleset.PriorityUnset {
			if remaining.Attributes[cat] != 0 {
				reasons = append(reasons, priorityMissing(cat, cat+" Attributes"))
			}
			continue
		}
		reasons = appendBudgetReason(reasons, cat, cat+" Attributes", remaining.Attributes[cat],
			ReasonAttributesRemaining, ReasonAttributesOverspent)
	}
	for _, cat := range s.rules.Categories(ruleset.AxisAbility) {
		if s.Priority(ruleset.AxisAbility, cat) == ruleset.PriorityUnset {
			if remaining.Abilities[cat] != 0 {
				reasons = append(reasons, priorityMissing(cat, cat))
			}
			continue
		}
		reasons = appendBudgetReason(reasons, cat, cat, remaining.Abilities[cat],
			ReasonAbilitiesRemaining, ReasonAbilitiesOverspent)
	}
	reasons = appendBudgetReason(reasons, "Backgrounds", "Backgrounds", remaining.Backgrounds,
		ReasonBackgroundsRemaining, ReasonBackgroundsOverspent)
	reasons = appendBudgetReason(reasons, "Spheres", "Spheres", remaining.Spheres,
		ReasonSpheresRemaining, ReasonSpheresOverspent)

	if s.affinity == "" {
		reasons = append(reasons, Reason{Code: ReasonAffinityMissing, Message: "No Affinity Sphere selected"})
	}
	if available := s.AvailableFreebiePoints(); available < 0 {
		reasons = append(reasons, Reason{
			Code: ReasonMeritsOverspent, Amount: -available,
			Message: fmt.Sprintf("Merits: %d points over the freebie budget", -available),
		})
	}
	return reasons
}

func priorityMissing(category, label string) Reason {
	return Reason{
		Code: ReasonPriorityMissing, Category: category,
		Message: fmt.Sprintf("%s: no priority assigned", label),
	}
}

func appendBudgetReason(reasons []Reason, category, label string, remaining int, under, over ReasonCode) []Reason {
	switch {
	case remaining > 0:
		return append(reasons, Reason{
			Code: under, Category: category, Amount: remaining,
			Message: fmt.Sprintf("%s: %s remaining", label, dots(remaining)),
		})
	case remaining < 0:
		return append(reasons, Reason{
			Code: over, Category: category, Amount: -remaining,
			Message: fmt.Sprintf("%s: %s over budget", label, dots(-remaining)),
		})
	}
	return reasons
}

func dots(n int) string {
	if n == 1 {
		return "1 dot"
	}
	return fmt.Sprintf("%d dots", n)
}

// Advance closes the current regime: it records the baseline for the closing
// regime and moves to the next one in a single step. It is rejected with
// INVALID_TRANSITION, carrying the CanAdvance reasons, when conditions are unmet.
func (s *Sheet) Advance() Decision {
	reasons := s.CanAdvance()
	next, ok := s.regime.Next()
	if len(reasons) > 0 || !ok {
		messages := make([]string, 0, len(reasons))
		for _, r := range reasons {
			messages = append(messages, r.Message)
		}
		d := reject(CodeInvalidTransition,
			map[string]string{"regime": string(s.regime), "reasons": strings.Join(messages, "; ")},
			"cannot leave %s: %s", s.regime, strings.Join(messages, "; "))
		d.Reasons = reasons
		return d
	}

	closing := s.regime
	s.snapshotBaseline(closing)
	s.regime = next
	return Decision{}
}
