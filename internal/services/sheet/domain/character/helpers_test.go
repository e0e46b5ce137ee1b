package character

import (
	"testing"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func testRules(t *testing.T) *ruleset.Ruleset {
	t.Helper()
	rs, err := ruleset.Default()
	if err != nil {
		t.Fatalf("load ruleset: %v", err)
	}
	return rs
}

func mustAccept(t *testing.T, d Decision) Decision {
	t.Helper()
	if !d.Accepted() {
		t.Fatalf("rejected: %s (%s)", d.Rejection.Code, d.Rejection.Message)
	}
	return d
}

func mustReject(t *testing.T, d Decision, want Code) *Rejection {
	t.Helper()
	if d.Accepted() {
		t.Fatalf("accepted %s %d -> %d, want %s", d.Trait, d.From, d.To, want)
	}
	if d.Rejection.Code != want {
		t.Fatalf("code = %s, want %s (%s)", d.Rejection.Code, want, d.Rejection.Message)
	}
	return d.Rejection
}

func set(t *testing.T, s *Sheet, ref trait.Ref, rating int) Decision {
	t.Helper()
	return mustAccept(t, s.RequestChange(ChangeRequest{Trait: ref, Rating: rating}))
}

// spendCreation spends every creation budget exactly and selects Forces as
// the affinity sphere, leaving the sheet ready to advance.
func spendCreation(t *testing.T, s *Sheet) {
	t.Helper()
	for cat, p := range map[string]ruleset.Priority{
		"Physical": ruleset.PriorityPrimary, "Social": ruleset.PrioritySecondary, "Mental": ruleset.PriorityTertiary,
	} {
		mustAccept(t, s.SetPriority(ruleset.AxisAttribute, cat, p))
	}
	for cat, p := range map[string]ruleset.Priority{
		"Talents": ruleset.PriorityPrimary, "Skills": ruleset.PrioritySecondary, "Knowledges": ruleset.PriorityTertiary,
	} {
		mustAccept(t, s.SetPriority(ruleset.AxisAbility, cat, p))
	}

	ratings := []struct {
		ref    trait.Ref
		rating int
	}{
		{trait.Attribute("Strength"), 4}, {trait.Attribute("Dexterity"), 3}, {trait.Attribute("Stamina"), 3},
		{trait.Attribute("Charisma"), 3}, {trait.Attribute("Manipulation"), 2}, {trait.Attribute("Appearance"), 3},
		{trait.Attribute("Perception"), 2}, {trait.Attribute("Intelligence"), 2}, {trait.Attribute("Wits"), 2},
		{trait.Ability("Alertness"), 3}, {trait.Ability("Athletics"), 3}, {trait.Ability("Awareness"), 3},
		{trait.Ability("Brawl"), 3}, {trait.Ability("Empathy"), 1},
		{trait.Ability("Crafts"), 3}, {trait.Ability("Drive"), 3}, {trait.Ability("Etiquette"), 3},
		{trait.Ability("Academics"), 3}, {trait.Ability("Computer"), 2},
		{trait.Background("Avatar"), 3}, {trait.Background("Allies"), 2}, {trait.Background("Contacts"), 2},
		{trait.Arete, 3},
	}
	for _, r := range ratings {
		set(t, s, r.ref, r.rating)
	}
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 3)
	set(t, s, trait.Sphere("Matter"), 3)
}

// freebieSheet returns a sheet that has just entered the freebie regime with
// all 15 freebie points available.
func freebieSheet(t *testing.T) *Sheet {
	t.Helper()
	s := New(testRules(t))
	spendCreation(t, s)
	if reasons := s.CanAdvance(); len(reasons) > 0 {
		t.Fatalf("creation not complete: %+v", reasons)
	}
	mustAccept(t, s.Advance())
	return s
}

// experienceSheet spends the freebie points on Life, Entropy and Willpower
// and enters the experience regime.
func experienceSheet(t *testing.T) *Sheet {
	t.Helper()
	s := freebieSheet(t)
	set(t, s, trait.Sphere("Life"), 1)
	set(t, s, trait.Sphere("Entropy"), 1)
	set(t, s, trait.Willpower, 6)
	mustAccept(t, s.Advance())
	return s
}
