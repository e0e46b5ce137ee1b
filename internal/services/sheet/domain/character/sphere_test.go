package character

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func TestSphereClampedToAffinity(t *testing.T) {
	s := New(testRules(t))
	life := trait.Sphere("Life")

	d := set(t, s, life, 2)
	if d.To != 0 || len(d.Adjustments) != 1 || d.Adjustments[0].Kind != AdjustmentClamped {
		t.Fatalf("without affinity: %+v", d)
	}

	set(t, s, trait.Arete, 2)
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 2)

	d = set(t, s, life, 5)
	want := []Adjustment{{Kind: AdjustmentClamped, Trait: life, From: 5, To: 2}}
	if diff := cmp.Diff(want, d.Adjustments); diff != "" {
		t.Fatalf("adjustments mismatch (-want +got):\n%s", diff)
	}
	if got := s.Rating(life); got != 2 {
		t.Fatalf("Life = %d, want 2", got)
	}
	if d.Adjustments[0].Code() != CodeConstraintViolation {
		t.Fatalf("code = %s", d.Adjustments[0].Code())
	}

	d = set(t, s, trait.Sphere("Forces"), 3)
	if d.To != 2 {
		t.Fatalf("affinity sphere must stop at Arete: to = %d", d.To)
	}
}

func TestClampHappensBeforePricing(t *testing.T) {
	s := freebieSheet(t)

	rej := mustReject(t, s.Preview(ChangeRequest{Trait: trait.Sphere("Life"), Rating: 5}), CodeInsufficientPoints)
	if rej.Metadata["cost"] != "21" {
		t.Fatalf("cost = %s, want 21 for the clamped 0->3", rej.Metadata["cost"])
	}

	d := set(t, s, trait.Sphere("Life"), 2)
	if d.To != 2 || d.Cost != 14 {
		t.Fatalf("to = %d cost = %d, want 2 and 14", d.To, d.Cost)
	}
}

func TestCanIncreaseSphere(t *testing.T) {
	s := New(testRules(t))
	set(t, s, trait.Arete, 3)
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 2)

	tests := []struct {
		sphere string
		to     int
		want   bool
	}{
		{"Forces", 3, true},
		{"Forces", 4, false},
		{"Life", 2, true},
		{"Life", 3, false},
		{"Time", 0, true},
		{"Nothing", 1, false},
	}
	for _, tt := range tests {
		if got := s.CanIncreaseSphere(tt.sphere, tt.to); got != tt.want {
			t.Fatalf("CanIncreaseSphere(%s, %d) = %v, want %v", tt.sphere, tt.to, got, tt.want)
		}
	}
}

func TestAffinitySwitchRecapsSpheres(t *testing.T) {
	s := New(testRules(t))
	set(t, s, trait.Arete, 3)
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 3)
	set(t, s, trait.Sphere("Life"), 3)
	set(t, s, trait.Sphere("Mind"), 1)

	d := mustAccept(t, s.SelectAffinity("Mind"))
	want := []Adjustment{
		{Kind: AdjustmentRecapped, Trait: trait.Sphere("Forces"), From: 3, To: 1},
		{Kind: AdjustmentRecapped, Trait: trait.Sphere("Life"), From: 3, To: 1},
	}
	if diff := cmp.Diff(want, d.Adjustments); diff != "" {
		t.Fatalf("adjustments mismatch (-want +got):\n%s", diff)
	}
	if got := s.AffinitySphere(); got != "Mind" {
		t.Fatalf("affinity = %q, want Mind", got)
	}
	for name, want := range map[string]int{"Forces": 1, "Life": 1, "Mind": 1} {
		if got := s.Rating(trait.Sphere(name)); got != want {
			t.Fatalf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestAffinitySwitchBlockedByFloor(t *testing.T) {
	s := freebieSheet(t)

	rej := mustReject(t, s.SelectAffinity("Life"), CodeBelowFloor)
	if rej.Metadata["trait"] != "Forces" || rej.Metadata["floor"] != "3" {
		t.Fatalf("metadata = %v", rej.Metadata)
	}
	if s.AffinitySphere() != "Forces" {
		t.Fatalf("affinity changed to %q", s.AffinitySphere())
	}
	mustReject(t, s.SelectAffinity(""), CodeRegimeLocked)
}

func TestLoweringAffinityCascades(t *testing.T) {
	s := New(testRules(t))
	set(t, s, trait.Arete, 3)
	mustAccept(t, s.SelectAffinity("Forces"))
	set(t, s, trait.Sphere("Forces"), 3)
	set(t, s, trait.Sphere("Matter"), 3)
	set(t, s, trait.Sphere("Prime"), 1)

	d := set(t, s, trait.Sphere("Forces"), 2)
	want := []Adjustment{{Kind: AdjustmentRecapped, Trait: trait.Sphere("Matter"), From: 3, To: 2}}
	if diff := cmp.Diff(want, d.Adjustments); diff != "" {
		t.Fatalf("affinity cascade (-want +got):\n%s", diff)
	}

	d = set(t, s, trait.Arete, 1)
	want = []Adjustment{
		{Kind: AdjustmentRecapped, Trait: trait.Sphere("Forces"), From: 2, To: 1},
		{Kind: AdjustmentRecapped, Trait: trait.Sphere("Matter"), From: 2, To: 1},
	}
	if diff := cmp.Diff(want, d.Adjustments); diff != "" {
		t.Fatalf("arete cascade (-want +got):\n%s", diff)
	}
	if got := s.Rating(trait.Sphere("Prime")); got != 1 {
		t.Fatalf("Prime = %d, want 1", got)
	}
}

func TestLoweringAreteBlockedByFloor(t *testing.T) {
	s := experienceSheet(t)
	mustAccept(t, s.AwardExperience(30, ""))
	set(t, s, trait.Arete, 4)

	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Arete, Rating: 2}), CodeBelowFloor)
	set(t, s, trait.Arete, 3)
}

func TestGroupRestrictions(t *testing.T) {
	s := New(testRules(t))
	mustAccept(t, s.SetProfile(Profile{Faction: "traditions", Group: "Order of Hermes"}))

	if got := s.AffinityOptions(); !slices.Equal(got, []string{"Forces"}) {
		t.Fatalf("options = %v, want [Forces]", got)
	}
	mustReject(t, s.SelectAffinity("Mind"), CodeAffinityNotAllowed)

	mustAccept(t, s.SetProfile(Profile{Faction: "Disparates", Group: "Ahl-i-Batin"}))
	mustReject(t, s.SelectAffinity("Entropy"), CodeSphereForbidden)
	set(t, s, trait.Arete, 2)
	mustAccept(t, s.SelectAffinity("Mind"))
	set(t, s, trait.Sphere("Mind"), 2)
	mustReject(t, s.RequestChange(ChangeRequest{Trait: trait.Sphere("Entropy"), Rating: 1}), CodeSphereForbidden)
	if s.CanIncreaseSphere("Entropy", 1) {
		t.Fatal("Entropy must be forbidden")
	}
}

func TestProfileChangeKeepsSphereRestrictions(t *testing.T) {
	s := New(testRules(t))
	set(t, s, trait.Arete, 3)
	mustAccept(t, s.SelectAffinity("Entropy"))
	set(t, s, trait.Sphere("Entropy"), 3)

	rej := mustReject(t, s.SetProfile(Profile{Faction: "Disparates", Group: "Ahl-i-Batin"}), CodeSphereForbidden)
	if rej.Metadata["sphere"] != "Entropy" || rej.Metadata["group"] != "Ahl-i-Batin" {
		t.Fatalf("metadata = %v", rej.Metadata)
	}
	if got := s.Profile(); got.Faction != "" || got.Group != "" {
		t.Fatalf("profile = %+v, want unchanged", got)
	}

	// An unrated affinity the new group does not offer is rejected too.
	f := New(testRules(t))
	mustAccept(t, f.SelectAffinity("Forces"))
	mustReject(t, f.SetProfile(Profile{Faction: "Disparates", Group: "Ahl-i-Batin"}), CodeAffinityNotAllowed)
	mustAccept(t, f.SetProfile(Profile{Faction: "Traditions", Group: "Verbena"}))
	if got := f.Profile().Group; got != "Verbena" {
		t.Fatalf("group = %q, want Verbena", got)
	}
	mustAccept(t, f.SetProfile(Profile{Name: "Ada"}))
}

func TestTechnocracySphereNames(t *testing.T) {
	s := New(testRules(t))
	mustAccept(t, s.SetProfile(Profile{Faction: "Technocratic Union", Group: "Void Engineers"}))

	if got := s.Rules().SphereLabel("Spirit", s.Profile().Faction); got != "Dimensional Science" {
		t.Fatalf("label = %q", got)
	}
	mustAccept(t, s.SelectAffinity("Dimensional Science"))
	if got := s.AffinitySphere(); got != "Spirit" {
		t.Fatalf("affinity = %q, want Spirit", got)
	}
}
