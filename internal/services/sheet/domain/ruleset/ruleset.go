// Package ruleset holds the static game content a character sheet is built
// against: trait catalogs, creation budgets, cost tables and affiliations.
//
// A Ruleset is loaded once, validated and then only read. Every accessor
// returns copies so callers cannot mutate shared content.
package ruleset

import (
	"slices"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// Priority is the creation tier assigned to an attribute or ability category.
type Priority string

const (
	PriorityUnset     Priority = ""
	PriorityPrimary   Priority = "primary"
	PrioritySecondary Priority = "secondary"
	PriorityTertiary  Priority = "tertiary"
)

// Priorities lists the assignable tiers in rank order.
var Priorities = []Priority{PriorityPrimary, PrioritySecondary, PriorityTertiary}

// ParsePriority accepts a tier name in any case; "" and "unset" clear.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityPrimary, PrioritySecondary, PriorityTertiary:
		return p, true
	case PriorityUnset, "unset", "none":
		return PriorityUnset, true
	}
	return PriorityUnset, false
}

// Axis is one of the two prioritized trait families.
type Axis string

const (
	AxisAttribute Axis = "attribute"
	AxisAbility   Axis = "ability"
)

// Category is a named group of attributes or abilities.
type Category struct {
	Name      string   `yaml:"name"`
	Traits    []string `yaml:"traits"`
	Secondary []string `yaml:"secondary"`
}

// Sphere is one of the nine Spheres of magick.
type Sphere struct {
	Name            string `yaml:"name"`
	TechnocracyName string `yaml:"technocracy_name"`
}

// Background is a background catalog entry.
type Background struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	DoubleCost      bool   `yaml:"double_cost"`
	TechnocracyOnly bool   `yaml:"technocracy_only"`
}

// Faction is a top-level affiliation such as the Traditions.
type Faction struct {
	Name        string  `yaml:"name"`
	Technocracy bool    `yaml:"technocracy"`
	Groups      []Group `yaml:"groups"`
}

// Group is a Tradition, Convention or Disparate craft.
type Group struct {
	Name             string   `yaml:"name"`
	AltName          string   `yaml:"alt_name"`
	Description      string   `yaml:"description"`
	AnyAffinity      bool     `yaml:"any_affinity"`
	AffinitySpheres  []string `yaml:"affinity_spheres"`
	ForbiddenSpheres []string `yaml:"forbidden_spheres"`
}

// Entry is a named descriptive catalog item (essences, archetypes).
type Entry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Quality is a merit or flaw with its point value.
type Quality struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Points      int    `yaml:"points"`
	Description string `yaml:"description"`
}

// TierBudget is the dot allotment per priority tier.
type TierBudget struct {
	Primary   int `yaml:"primary"`
	Secondary int `yaml:"secondary"`
	Tertiary  int `yaml:"tertiary"`
}

// For returns the allotment for p; an unset priority has no budget.
func (b TierBudget) For(p Priority) int {
	switch p {
	case PriorityPrimary:
		return b.Primary
	case PrioritySecondary:
		return b.Secondary
	case PriorityTertiary:
		return b.Tertiary
	}
	return 0
}

// CreationRules are the budgets and caps of the creation stage.
type CreationRules struct {
	Attributes        TierBudget `yaml:"attributes"`
	Abilities         TierBudget `yaml:"abilities"`
	AbilityMax        int        `yaml:"ability_max"`
	Backgrounds       int        `yaml:"backgrounds"`
	Spheres           int        `yaml:"spheres"`
	AreteStarting     int        `yaml:"arete_starting"`
	AreteMax          int        `yaml:"arete_max"`
	WillpowerStarting int        `yaml:"willpower_starting"`
	FreebiePoints     int        `yaml:"freebie_points"`
	MaxFlawPoints     int        `yaml:"max_flaw_points"`
}

// Limits are the absolute maximum ratings per trait family.
type Limits struct {
	Attribute    int `yaml:"attribute"`
	Ability      int `yaml:"ability"`
	Sphere       int `yaml:"sphere"`
	Background   int `yaml:"background"`
	Arete        int `yaml:"arete"`
	Willpower    int `yaml:"willpower"`
	Quintessence int `yaml:"quintessence"`
	Paradox      int `yaml:"paradox"`
}

// FreebieCosts is the flat per-dot freebie price list.
type FreebieCosts struct {
	Attribute                int `yaml:"attribute"`
	Ability                  int `yaml:"ability"`
	Background               int `yaml:"background"`
	Sphere                   int `yaml:"sphere"`
	Arete                    int `yaml:"arete"`
	Willpower                int `yaml:"willpower"`
	QuintessenceDotsPerPoint int `yaml:"quintessence_dots_per_point"`
}

// ExperienceCosts holds the experience prices. Multipliers apply to the
// rating before the purchased dot.
type ExperienceCosts struct {
	NewAbility     int `yaml:"new_ability"`
	NewSphere      int `yaml:"new_sphere"`
	AffinitySphere int `yaml:"affinity_sphere"`
	OtherSphere    int `yaml:"other_sphere"`
	Arete          int `yaml:"arete"`
	Attribute      int `yaml:"attribute"`
	Ability        int `yaml:"ability"`
	Background     int `yaml:"background"`
	Willpower      int `yaml:"willpower"`
}

// Document is the serialized form of a ruleset bundle.
type Document struct {
	Version      string          `yaml:"version"`
	Attributes   []Category      `yaml:"attributes"`
	Abilities    []Category      `yaml:"abilities"`
	Spheres      []Sphere        `yaml:"spheres"`
	Backgrounds  []Background    `yaml:"backgrounds"`
	Affiliations []Faction       `yaml:"affiliations"`
	Essences     []Entry         `yaml:"essences"`
	Archetypes   []Entry         `yaml:"archetypes"`
	Merits       []Quality       `yaml:"merits"`
	Flaws        []Quality       `yaml:"flaws"`
	Creation     CreationRules   `yaml:"creation"`
	Limits       Limits          `yaml:"limits"`
	FreebieCosts FreebieCosts    `yaml:"freebie_costs"`
	Experience   ExperienceCosts `yaml:"experience_costs"`
}

// Ruleset is a validated, read-only Document with lookup indexes.
type Ruleset struct {
	doc Document

	attributeCategory map[string]string
	abilityCategory   map[string]string
	canonical         map[trait.Kind]map[string]string
	backgrounds       map[string]Background
	spheres           map[string]Sphere
	merits            map[string]Quality
	flaws             map[string]Quality
	factions          map[string]Faction
}

// Version identifies the content bundle.
func (r *Ruleset) Version() string { return r.doc.Version }

// Creation returns the creation-stage budgets and caps.
func (r *Ruleset) Creation() CreationRules { return r.doc.Creation }

// Limits returns the absolute rating caps.
func (r *Ruleset) Limits() Limits { return r.doc.Limits }

// FreebieCosts returns the freebie price list.
func (r *Ruleset) FreebieCosts() FreebieCosts { return r.doc.FreebieCosts }

// ExperienceCosts returns the experience price list.
func (r *Ruleset) ExperienceCosts() ExperienceCosts { return r.doc.Experience }

// Document returns a deep copy of the underlying document.
func (r *Ruleset) Document() Document {
	doc := r.doc
	doc.Attributes = cloneCategories(doc.Attributes)
	doc.Abilities = cloneCategories(doc.Abilities)
	doc.Spheres = slices.Clone(doc.Spheres)
	doc.Backgrounds = slices.Clone(doc.Backgrounds)
	doc.Affiliations = r.Factions()
	doc.Essences = slices.Clone(doc.Essences)
	doc.Archetypes = slices.Clone(doc.Archetypes)
	doc.Merits = slices.Clone(doc.Merits)
	doc.Flaws = slices.Clone(doc.Flaws)
	return doc
}

// Categories returns the category names of an axis in ruleset order.
func (r *Ruleset) Categories(axis Axis) []string {
	cats := r.categories(axis)
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

// HasCategory reports whether name is a category of axis.
func (r *Ruleset) HasCategory(axis Axis, name string) bool {
	return slices.Contains(r.Categories(axis), name)
}

// TraitsIn returns the traits of one category, primary list first.
func (r *Ruleset) TraitsIn(axis Axis, category string) []string {
	for _, c := range r.categories(axis) {
		if c.Name == category {
			return append(slices.Clone(c.Traits), c.Secondary...)
		}
	}
	return nil
}

// CategoryOf returns the category of an attribute or ability ref.
func (r *Ruleset) CategoryOf(ref trait.Ref) (string, bool) {
	var cat string
	var ok bool
	switch ref.Kind {
	case trait.KindAttribute:
		cat, ok = r.attributeCategory[ref.Name]
	case trait.KindAbility:
		cat, ok = r.abilityCategory[ref.Name]
	}
	return cat, ok
}

// Attributes returns every attribute name in catalog order.
func (r *Ruleset) Attributes() []string {
	var out []string
	for _, c := range r.doc.Attributes {
		out = append(out, c.Traits...)
	}
	return out
}

// Spheres returns the sphere names in catalog order.
func (r *Ruleset) Spheres() []string {
	out := make([]string, 0, len(r.doc.Spheres))
	for _, s := range r.doc.Spheres {
		out = append(out, s.Name)
	}
	return out
}

// SphereLabel returns the name a faction uses for a sphere.
func (r *Ruleset) SphereLabel(sphere, faction string) string {
	s, ok := r.spheres[sphere]
	if ok && s.TechnocracyName != "" && r.IsTechnocracy(faction) {
		return s.TechnocracyName
	}
	return sphere
}

// Background looks up a background by canonical name.
func (r *Ruleset) Background(name string) (Background, bool) {
	b, ok := r.backgrounds[name]
	return b, ok
}

// Backgrounds returns the background catalog.
func (r *Ruleset) Backgrounds() []Background { return slices.Clone(r.doc.Backgrounds) }

// Merit looks up a merit by name.
func (r *Ruleset) Merit(name string) (Quality, bool) {
	q, ok := r.merits[name]
	return q, ok
}

// Flaw looks up a flaw by name.
func (r *Ruleset) Flaw(name string) (Quality, bool) {
	q, ok := r.flaws[name]
	return q, ok
}

// Merits returns the merit catalog.
func (r *Ruleset) Merits() []Quality { return slices.Clone(r.doc.Merits) }

// Flaws returns the flaw catalog.
func (r *Ruleset) Flaws() []Quality { return slices.Clone(r.doc.Flaws) }

// Essences returns the Avatar essence catalog.
func (r *Ruleset) Essences() []Entry { return slices.Clone(r.doc.Essences) }

// Archetypes returns the nature and demeanor catalog.
func (r *Ruleset) Archetypes() []Entry { return slices.Clone(r.doc.Archetypes) }

// Factions returns the affiliation tree.
func (r *Ruleset) Factions() []Faction {
	out := make([]Faction, 0, len(r.doc.Affiliations))
	for _, f := range r.doc.Affiliations {
		f.Groups = slices.Clone(f.Groups)
		out = append(out, f)
	}
	return out
}

// IsTechnocracy reports whether faction is flagged as the Technocratic Union.
func (r *Ruleset) IsTechnocracy(faction string) bool {
	return r.factions[faction].Technocracy
}

// Group looks up a group within a faction.
func (r *Ruleset) Group(faction, group string) (Group, bool) {
	f, ok := r.factions[faction]
	if !ok {
		return Group{}, false
	}
	for _, g := range f.Groups {
		if g.Name == group {
			return g, true
		}
	}
	return Group{}, false
}

// AffinityOptions lists the spheres a member of group may choose as their
// affinity. Unknown or empty affiliations may choose any sphere.
func (r *Ruleset) AffinityOptions(faction, group string) []string {
	g, ok := r.Group(faction, group)
	if !ok || g.AnyAffinity {
		return r.Spheres()
	}
	return slices.Clone(g.AffinitySpheres)
}

// ForbiddenSpheres lists the spheres members of group may never learn.
func (r *Ruleset) ForbiddenSpheres(faction, group string) []string {
	g, _ := r.Group(faction, group)
	return slices.Clone(g.ForbiddenSpheres)
}

// Max returns the absolute maximum rating for a trait kind.
func (r *Ruleset) Max(kind trait.Kind) int {
	l := r.doc.Limits
	switch kind {
	case trait.KindAttribute:
		return l.Attribute
	case trait.KindAbility:
		return l.Ability
	case trait.KindSphere:
		return l.Sphere
	case trait.KindBackground:
		return l.Background
	case trait.KindArete:
		return l.Arete
	case trait.KindWillpower:
		return l.Willpower
	case trait.KindQuintessence:
		return l.Quintessence
	}
	return 0
}

// Budget returns the creation allotment of axis at tier p.
func (r *Ruleset) Budget(axis Axis, p Priority) int {
	if axis == AxisAbility {
		return r.doc.Creation.Abilities.For(p)
	}
	return r.doc.Creation.Attributes.For(p)
}

// Resolve validates ref against the catalogs and returns it with the
// canonical spelling of its name. Matching is case-insensitive.
func (r *Ruleset) Resolve(ref trait.Ref) (trait.Ref, bool) {
	if err := ref.Validate(); err != nil {
		return trait.Ref{}, false
	}
	if !ref.Kind.Named() {
		return ref, true
	}
	name, ok := r.canonical[ref.Kind][strings.ToLower(strings.TrimSpace(ref.Name))]
	if !ok {
		return trait.Ref{}, false
	}
	return trait.Ref{Kind: ref.Kind, Name: name}, true
}

func (r *Ruleset) categories(axis Axis) []Category {
	if axis == AxisAbility {
		return r.doc.Abilities
	}
	if axis == AxisAttribute {
		return r.doc.Attributes
	}
	return nil
}

func cloneCategories(in []Category) []Category {
	out := make([]Category, 0, len(in))
	for _, c := range in {
		c.Traits = slices.Clone(c.Traits)
		c.Secondary = slices.Clone(c.Secondary)
		out = append(out, c)
	}
	return out
}
