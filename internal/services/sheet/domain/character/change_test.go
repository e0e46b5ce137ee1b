package character

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func TestNewSheetDefaults(t *testing.T) {
	s := New(testRules(t))

	if got := s.Regime(); got != RegimeCreation {
		t.Fatalf("regime = %s, want %s", got, RegimeCreation)
	}
	if got := s.Rating(trait.Attribute("Strength")); got != 1 {
		t.Fatalf("Strength = %d, want 1", got)
	}
	if got := s.Rating(trait.Ability("Alertness")); got != 0 {
		t.Fatalf("Alertness = %d, want 0", got)
	}
	if got := s.Rating(trait.Arete); got != 1 {
		t.Fatalf("Arete = %d, want 1", got)
	}
	if got, current := s.Rating(trait.Willpower), s.WillpowerCurrent(); got != 5 || current != 5 {
		t.Fatalf("Willpower = %d/%d, want 5/5", current, got)
	}
	if got := s.AvailableFreebiePoints(); got != 15 {
		t.Fatalf("freebie points = %d, want 15", got)
	}
	if got := s.AffinitySphereCap(); got != 0 {
		t.Fatalf("affinity cap = %d, want 0", got)
	}
}

func TestChangeBelowAttributeFloor(t *testing.T) {
	s := New(testRules(t))

	rej := mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Attribute("Strength"), Rating: 0}), CodeBelowFloor)
	if rej.Metadata["floor"] != "1" {
		t.Fatalf("floor = %q, want %q", rej.Metadata["floor"], "1")
	}
	if got := s.Rating(trait.Attribute("Strength")); got != 1 {
		t.Fatalf("Strength = %d, want 1", got)
	}
}

func TestCreationDotsRemaining(t *testing.T) {
	s := New(testRules(t))
	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "Physical", ruleset.PriorityPrimary))

	set(t, s, trait.Attribute("Strength"), 4)
	set(t, s, trait.Attribute("Dexterity"), 2)
	set(t, s, trait.Attribute("Stamina"), 2)

	if got := s.CreationDotsSpent().Attributes["Physical"]; got != 5 {
		t.Fatalf("Physical spent = %d, want 5", got)
	}
	if got := s.CreationDotsRemaining().Attributes["Physical"]; got != 2 {
		t.Fatalf("Physical remaining = %d, want 2", got)
	}
	if got := s.AvailableFreebiePoints(); got != 15 {
		t.Fatalf("creation dots must not touch freebie points, got %d", got)
	}
}

func TestCreationOverspendIsReported(t *testing.T) {
	s := New(testRules(t))
	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "Mental", ruleset.PriorityTertiary))
	set(t, s, trait.Attribute("Wits"), 5)
	set(t, s, trait.Attribute("Strength"), 2)

	if got := s.CreationDotsRemaining().Attributes["Mental"]; got != -1 {
		t.Fatalf("Mental remaining = %d, want -1", got)
	}
	reasons := s.CanAdvance()
	if reasons[0].Code != ReasonPriorityMissing || reasons[0].Category != "Physical" {
		t.Fatalf("first reason = %+v", reasons[0])
	}
	found := false
	for _, r := range reasons {
		if r.Code == ReasonAttributesOverspent && r.Category == "Mental" && r.Amount == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing Mental overspend in %+v", reasons)
	}
}

func TestDoubleCostBackgroundCountsTwice(t *testing.T) {
	s := New(testRules(t))
	set(t, s, trait.Background("Sanctum"), 2)
	set(t, s, trait.Background("Allies"), 1)

	if got := s.CreationDotsSpent().Backgrounds; got != 5 {
		t.Fatalf("background dots = %d, want 5", got)
	}
}

func TestFreebieSpherePurchase(t *testing.T) {
	s := freebieSheet(t)

	d := set(t, s, trait.Sphere("Life"), 1)
	if d.Cost != 7 {
		t.Fatalf("cost = %d, want 7", d.Cost)
	}
	if got := s.AvailableFreebiePoints(); got != 8 {
		t.Fatalf("freebie points = %d, want 8", got)
	}
	if got := s.FreebiePointsSpent(); got != 7 {
		t.Fatalf("spent = %d, want 7", got)
	}
}

func TestFreebieInsufficientPoints(t *testing.T) {
	s := freebieSheet(t)
	set(t, s, trait.Attribute("Charisma"), 5)

	rej := mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Attribute("Wits"), Rating: 4}), CodeInsufficientPoints)
	if rej.Metadata["cost"] != "10" || rej.Metadata["available"] != "5" {
		t.Fatalf("metadata = %v", rej.Metadata)
	}
	if got := s.Rating(trait.Attribute("Wits")); got != 2 {
		t.Fatalf("Wits = %d, want 2", got)
	}
	if got := s.AvailableFreebiePoints(); got != 5 {
		t.Fatalf("freebie points = %d, want 5", got)
	}
}

func TestOverrideSkipsCostButNotFloor(t *testing.T) {
	s := freebieSheet(t)

	d := mustAccept(t, s.RequestChange(ChangeRequest{Trait: trait.Attribute("Wits"), Rating: 5, Override: true}))
	if d.Cost != 0 {
		t.Fatalf("override cost = %d, want 0", d.Cost)
	}
	if got := s.AvailableFreebiePoints(); got != 15 {
		t.Fatalf("freebie points = %d, want 15", got)
	}
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Attribute("Strength"), Rating: 3, Override: true}), CodeBelowFloor)
}

func TestExperienceSphereCosts(t *testing.T) {
	s := experienceSheet(t)
	mustAccept(t, s.AwardExperience(100, "first story"))

	life := trait.Sphere("Life")
	if d := set(t, s, life, 2); d.Cost != 8 {
		t.Fatalf("Life 1->2 cost = %d, want 8", d.Cost)
	}
	if got := s.CostToIncreaseByOne(life, 2); got != 16 {
		t.Fatalf("Life 2->3 = %d, want 16", got)
	}
	if got := s.ExperienceCost(life, 2, 4); got != 40 {
		t.Fatalf("Life 2->4 = %d, want 40", got)
	}

	if d := set(t, s, trait.Arete, 4); d.Cost != 24 {
		t.Fatalf("Arete 3->4 cost = %d, want 24", d.Cost)
	}
	if d := set(t, s, trait.Sphere("Forces"), 4); d.Cost != 21 {
		t.Fatalf("Forces 3->4 cost = %d, want 21", d.Cost)
	}
	if d := set(t, s, life, 4); d.Cost != 40 {
		t.Fatalf("Life 2->4 cost = %d, want 40", d.Cost)
	}
	if got := s.AvailableExperiencePoints(); got != 100-8-24-21-40 {
		t.Fatalf("experience = %d, want %d", got, 100-8-24-21-40)
	}

	var spends int
	for _, e := range s.ExperienceLog() {
		if e.Kind == ExperienceSpend {
			spends += e.Points
		}
	}
	if spends != s.ExperienceSpent() {
		t.Fatalf("log spends = %d, spent = %d", spends, s.ExperienceSpent())
	}
}

func TestExperienceNewTraitCosts(t *testing.T) {
	s := experienceSheet(t)
	mustAccept(t, s.AwardExperience(20, ""))

	if d := set(t, s, trait.Ability("Occult"), 1); d.Cost != 3 {
		t.Fatalf("new ability = %d, want 3", d.Cost)
	}
	if d := set(t, s, trait.Sphere("Mind"), 1); d.Cost != 10 {
		t.Fatalf("new sphere = %d, want 10", d.Cost)
	}
	rej := mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Attribute("Strength"), Rating: 5}), CodeInsufficientPoints)
	if rej.Metadata["cost"] != "16" {
		t.Fatalf("Strength 4->5 cost = %s, want 16", rej.Metadata["cost"])
	}
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Quintessence, Rating: 1}), CodeNotPurchasable)
}

func TestQuintessenceFreebieThreshold(t *testing.T) {
	s := freebieSheet(t)
	q := trait.Quintessence

	if got := s.FreebieCost(q, 0, 3); got != 0 {
		t.Fatalf("0->3 = %d, want 0", got)
	}
	if got := s.FreebieCost(q, 0, 4); got != 1 {
		t.Fatalf("0->4 = %d, want 1", got)
	}
	if got := s.FreebieCost(q, 3, 8); got != 2 {
		t.Fatalf("3->8 = %d, want 2", got)
	}
	if d := set(t, s, q, 4); d.Cost != 1 {
		t.Fatalf("cost = %d, want 1", d.Cost)
	}
}

func TestDecreasesCostNothing(t *testing.T) {
	s := freebieSheet(t)
	set(t, s, trait.Attribute("Wits"), 3)

	d := set(t, s, trait.Attribute("Wits"), 2)
	if d.Cost != 0 {
		t.Fatalf("decrease cost = %d, want 0", d.Cost)
	}
	if got := s.AvailableFreebiePoints(); got != 10 {
		t.Fatalf("decreases are not refunded: available = %d, want 10", got)
	}
}

func TestAbilityCreationCap(t *testing.T) {
	s := New(testRules(t))
	alertness := trait.Ability("Alertness")

	rej := mustReject(t, s.RequestChange(ChangeRequest{Trait: alertness, Rating: 4}), CodeAboveMaximum)
	if rej.Metadata["maximum"] != "3" {
		t.Fatalf("maximum = %q, want 3", rej.Metadata["maximum"])
	}
	mustAccept(t, s.RequestChange(ChangeRequest{Trait: alertness, Rating: 4, Override: true}))
	mustReject(t, s.RequestChange(ChangeRequest{Trait: alertness, Rating: 6, Override: true}), CodeAboveMaximum)
}

func TestUnknownAndInvalidTraits(t *testing.T) {
	s := New(testRules(t))

	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Ability("Basket Weaving"), Rating: 1}), CodeUnknownTrait)
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Ref{Kind: "luck"}, Rating: 1}), CodeUnknownTrait)
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Ability("Alertness"), Rating: -1}), CodeInvalidValue)

	d := set(t, s, trait.Ability("streetwise"), 2)
	if d.Trait != trait.Ability("Streetwise") {
		t.Fatalf("trait = %v, want canonical Streetwise", d.Trait)
	}
}

func TestTechnocracyBackground(t *testing.T) {
	s := New(testRules(t))
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Background("Requisitions"), Rating: 1}), CodeBackgroundNotAllowed)

	mustAccept(t, s.SetProfile(Profile{Faction: "Technocratic Union", Group: "Iteration X"}))
	set(t, s, trait.Background("Requisitions"), 1)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	s := freebieSheet(t)
	before := s.Snapshot()

	d := mustAccept(t, s.Preview(ChangeRequest{Trait: trait.Sphere("Life"), Rating: 2}))
	if d.Cost != 14 {
		t.Fatalf("preview cost = %d, want 14", d.Cost)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("preview mutated sheet (-before +after):\n%s", diff)
	}
}

func TestWillpowerPool(t *testing.T) {
	s := New(testRules(t))

	set(t, s, trait.Willpower, 7)
	if got := s.WillpowerCurrent(); got != 7 {
		t.Fatalf("full pool should follow max: current = %d, want 7", got)
	}
	mustAccept(t, s.SetWillpowerCurrent(4))
	set(t, s, trait.Willpower, 8)
	if got := s.WillpowerCurrent(); got != 4 {
		t.Fatalf("spent pool should stay: current = %d, want 4", got)
	}
	set(t, s, trait.Willpower, 3)
	if got := s.WillpowerCurrent(); got != 3 {
		t.Fatalf("current = %d, want clamp to 3", got)
	}
	mustReject(t, s.SetWillpowerCurrent(4), CodeInvalidValue)
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Willpower, Rating: 0}), CodeBelowFloor)
}
