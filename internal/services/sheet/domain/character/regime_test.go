package character

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func TestAdvanceRejectedWithReasons(t *testing.T) {
	s := New(testRules(t))
	spendCreation(t, s)
	// Give back the Mental dots and drop the affinity choice.
	set(t, s, trait.Attribute("Perception"), 1)
	set(t, s, trait.Attribute("Intelligence"), 1)
	set(t, s, trait.Attribute("Wits"), 1)
	mustAccept(t, s.SelectAffinity(""))

	got := s.CanAdvance()
	want := []Reason{
		{Code: ReasonAttributesRemaining, Category: "Mental", Amount: 3, Message: "Mental Attributes: 3 dots remaining"},
		{Code: ReasonAffinityMissing, Message: "No Affinity Sphere selected"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}

	d := s.Advance()
	rej := mustReject(t, d, CodeInvalidTransition)
	if diff := cmp.Diff(want, d.Reasons); diff != "" {
		t.Fatalf("decision reasons mismatch (-want +got):\n%s", diff)
	}
	if rej.Metadata["regime"] != string(RegimeCreation) {
		t.Fatalf("regime metadata = %q", rej.Metadata["regime"])
	}
	if s.Regime() != RegimeCreation || s.Baseline(RegimeCreation) != nil {
		t.Fatalf("rejected advance changed state: regime %s", s.Regime())
	}
}

func TestCreationGatingConditions(t *testing.T) {
	breakers := map[string]func(t *testing.T, s *Sheet){
		"attributes": func(t *testing.T, s *Sheet) { set(t, s, trait.Attribute("Strength"), 3) },
		"abilities":  func(t *testing.T, s *Sheet) { set(t, s, trait.Ability("Academics"), 2) },
		"backgrounds": func(t *testing.T, s *Sheet) {
			set(t, s, trait.Background("Allies"), 3)
		},
		"spheres":  func(t *testing.T, s *Sheet) { set(t, s, trait.Sphere("Matter"), 2) },
		"affinity": func(t *testing.T, s *Sheet) { mustAccept(t, s.SelectAffinity("")) },
		"priority": func(t *testing.T, s *Sheet) {
			mustAccept(t, s.SetPriority(ruleset.AxisAbility, "Skills", ruleset.PriorityUnset))
		},
	}
	for name, breakIt := range breakers {
		t.Run(name, func(t *testing.T) {
			s := New(testRules(t))
			spendCreation(t, s)
			breakIt(t, s)
			if len(s.CanAdvance()) == 0 {
				t.Fatal("expected unmet conditions")
			}
			mustReject(t, s.Advance(), CodeInvalidTransition)
		})
	}

	s := New(testRules(t))
	spendCreation(t, s)
	mustAccept(t, s.Advance())
	if s.Regime() != RegimeFreebie {
		t.Fatalf("regime = %s, want %s", s.Regime(), RegimeFreebie)
	}
}

func TestUnsetPrioritiesWithoutSpentDotsDoNotBlock(t *testing.T) {
	s := New(testRules(t))
	for _, r := range []struct {
		ref    trait.Ref
		rating int
	}{
		{trait.Background("Avatar"), 3}, {trait.Background("Allies"), 2}, {trait.Background("Contacts"), 2},
		{trait.Arete, 3},
	} {
		set(t, s, r.ref, r.rating)
	}
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 3)
	set(t, s, trait.Sphere("Matter"), 3)

	if got := s.CanAdvance(); len(got) != 0 {
		t.Fatalf("reasons = %+v, want none", got)
	}
	mustAccept(t, s.Advance())
	if s.Regime() != RegimeFreebie {
		t.Fatalf("regime = %s, want %s", s.Regime(), RegimeFreebie)
	}

	// Dots spent in a category without a priority still block.
	u := New(testRules(t))
	set(t, u, trait.Ability("Academics"), 1)
	var missing []string
	for _, r := range u.CanAdvance() {
		if r.Code == ReasonPriorityMissing {
			missing = append(missing, r.Category)
		}
	}
	if diff := cmp.Diff([]string{"Knowledges"}, missing); diff != "" {
		t.Fatalf("missing priorities mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvanceRecordsBaseline(t *testing.T) {
	s := freebieSheet(t)

	b := s.Baseline(RegimeCreation)
	for key, want := range map[string]int{
		"attribute:Strength": 4, "ability:Alertness": 3, "sphere:Forces": 3,
		"background:Avatar": 3, "arete": 3, "willpower": 5, "quintessence": 0,
	} {
		if got, ok := b[key]; !ok || got != want {
			t.Fatalf("baseline[%s] = %d (%v), want %d", key, got, ok, want)
		}
	}
	if s.Baseline(RegimeFreebie) != nil {
		t.Fatal("freebie baseline recorded early")
	}
	if got := s.FloorFor(trait.Attribute("strength")); got != 4 {
		t.Fatalf("Strength floor = %d, want 4", got)
	}
}

func TestFreebieGating(t *testing.T) {
	s := freebieSheet(t)

	got := s.CanAdvance()
	want := []Reason{{Code: ReasonFreebiesRemaining, Amount: 15, Message: "Freebie Points: 15 remaining"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}

	set(t, s, trait.Willpower, 10)
	mustAccept(t, s.AddMerit("True Faith", true))
	mustAccept(t, s.AddMerit("Acute Senses (All)", true))
	mustAccept(t, s.AddMerit("Ambidextrous", true))
	// 15 - 11 merit points - 5 willpower
	if got := s.AvailableFreebiePoints(); got != -1 {
		t.Fatalf("available = %d, want -1", got)
	}
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Quintessence, Rating: 1}), CodeInsufficientPoints)
	reasons := s.CanAdvance()
	if len(reasons) != 1 || reasons[0].Code != ReasonFreebiesOverspent || reasons[0].Amount != 1 {
		t.Fatalf("reasons = %+v", reasons)
	}
	mustReject(t, s.Advance(), CodeInvalidTransition)
}

func TestExperienceIsTerminal(t *testing.T) {
	s := experienceSheet(t)

	if s.Baseline(RegimeFreebie) == nil {
		t.Fatal("freebie baseline missing")
	}
	if got := s.FloorFor(trait.Willpower); got != 6 {
		t.Fatalf("Willpower floor = %d, want 6", got)
	}
	reasons := s.CanAdvance()
	if len(reasons) != 1 || reasons[0].Code != ReasonRegimeTerminal {
		t.Fatalf("reasons = %+v", reasons)
	}
	mustReject(t, s.Advance(), CodeInvalidTransition)
	if s.Regime() != RegimeExperience {
		t.Fatalf("regime = %s", s.Regime())
	}
}

func TestPriorities(t *testing.T) {
	s := New(testRules(t))

	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "physical", ruleset.PriorityPrimary))
	rej := mustReject(t, s.SetPriority(ruleset.AxisAttribute, "Social", ruleset.PriorityPrimary), CodeDuplicatePriority)
	if rej.Metadata["holder"] != "Physical" {
		t.Fatalf("holder = %q, want Physical", rej.Metadata["holder"])
	}
	if got := s.Priority(ruleset.AxisAttribute, "Physical"); got != ruleset.PriorityPrimary {
		t.Fatalf("Physical = %q, want primary", got)
	}
	if got := s.Priority(ruleset.AxisAttribute, "Social"); got != ruleset.PriorityUnset {
		t.Fatalf("Social = %q, want unset", got)
	}

	// Axes are independent.
	mustAccept(t, s.SetPriority(ruleset.AxisAbility, "Talents", ruleset.PriorityPrimary))
	// Re-assigning the holder's own tier is a no-op.
	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "Physical", ruleset.PriorityPrimary))
	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "Physical", ruleset.PriorityUnset))
	mustAccept(t, s.SetPriority(ruleset.AxisAttribute, "Social", ruleset.PriorityPrimary))

	mustReject(t, s.SetPriority(ruleset.AxisAttribute, "Spiritual", ruleset.PriorityPrimary), CodeUnknownTrait)
	mustReject(t, s.SetPriority(ruleset.AxisAttribute, "Mental", "quaternary"), CodeInvalidValue)

	want := map[string]ruleset.Priority{"Social": ruleset.PriorityPrimary}
	if diff := cmp.Diff(want, s.Priorities(ruleset.AxisAttribute), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("priorities mismatch (-want +got):\n%s", diff)
	}

	f := freebieSheet(t)
	mustReject(t, f.SetPriority(ruleset.AxisAttribute, "Physical", ruleset.PriorityTertiary), CodeRegimeLocked)
}
