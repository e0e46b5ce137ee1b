package ruleset

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
	"gopkg.in/yaml.v3"
)

//go:embed content/m20.yaml
var contentFS embed.FS

const defaultContentPath = "content/m20.yaml"

var loadDefault = sync.OnceValues(func() (*Ruleset, error) {
	data, err := contentFS.ReadFile(defaultContentPath)
	if err != nil {
		return nil, fmt.Errorf("read embedded ruleset: %w", err)
	}
	return Load(bytes.NewReader(data))
})

// Default returns the embedded M20 ruleset. The result is shared.
func Default() (*Ruleset, error) {
	return loadDefault()
}

// LoadFile reads and validates a ruleset bundle from disk.
func LoadFile(path string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ruleset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a ruleset bundle. Unknown fields are rejected.
func Load(r io.Reader) (*Ruleset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}
	return New(doc)
}

// New validates doc and builds a Ruleset from it.
func New(doc Document) (*Ruleset, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	rs := &Ruleset{
		attributeCategory: map[string]string{},
		abilityCategory:   map[string]string{},
		canonical:         map[trait.Kind]map[string]string{},
		backgrounds:       map[string]Background{},
		spheres:           map[string]Sphere{},
		merits:            map[string]Quality{},
		flaws:             map[string]Quality{},
		factions:          map[string]Faction{},
	}
	rs.doc = doc
	rs.doc = rs.Document()

	for _, kind := range []trait.Kind{trait.KindAttribute, trait.KindAbility, trait.KindSphere, trait.KindBackground} {
		rs.canonical[kind] = map[string]string{}
	}
	for _, c := range rs.doc.Attributes {
		for _, name := range c.Traits {
			rs.attributeCategory[name] = c.Name
			rs.canonical[trait.KindAttribute][strings.ToLower(name)] = name
		}
	}
	for _, c := range rs.doc.Abilities {
		for _, name := range slices.Concat(c.Traits, c.Secondary) {
			rs.abilityCategory[name] = c.Name
			rs.canonical[trait.KindAbility][strings.ToLower(name)] = name
		}
	}
	for _, s := range rs.doc.Spheres {
		rs.spheres[s.Name] = s
		rs.canonical[trait.KindSphere][strings.ToLower(s.Name)] = s.Name
		if s.TechnocracyName != "" {
			rs.canonical[trait.KindSphere][strings.ToLower(s.TechnocracyName)] = s.Name
		}
	}
	for _, b := range rs.doc.Backgrounds {
		rs.backgrounds[b.Name] = b
		rs.canonical[trait.KindBackground][strings.ToLower(b.Name)] = b.Name
	}
	for _, q := range rs.doc.Merits {
		rs.merits[q.Name] = q
	}
	for _, q := range rs.doc.Flaws {
		rs.flaws[q.Name] = q
	}
	for _, f := range rs.doc.Affiliations {
		rs.factions[f.Name] = f
	}
	return rs, nil
}

// Validate reports every structural problem in doc at once.
func Validate(doc Document) error {
	v := &validator{}

	if strings.TrimSpace(doc.Version) == "" {
		v.addf("version is required")
	}
	v.categories("attributes", doc.Attributes)
	v.categories("abilities", doc.Abilities)

	spheres := map[string]bool{}
	if len(doc.Spheres) == 0 {
		v.addf("at least one sphere is required")
	}
	for _, s := range doc.Spheres {
		v.uniqueName("sphere", s.Name, spheres)
	}

	backgrounds := map[string]bool{}
	for _, b := range doc.Backgrounds {
		v.uniqueName("background", b.Name, backgrounds)
	}

	factions := map[string]bool{}
	for _, f := range doc.Affiliations {
		v.uniqueName("faction", f.Name, factions)
		groups := map[string]bool{}
		for _, g := range f.Groups {
			v.uniqueName("group in "+f.Name, g.Name, groups)
			if !g.AnyAffinity && len(g.AffinitySpheres) == 0 {
				v.addf("group %s: affinity spheres are required", g.Name)
			}
			for _, s := range g.AffinitySpheres {
				if !spheres[s] {
					v.addf("group %s: unknown affinity sphere %q", g.Name, s)
				}
			}
			for _, s := range g.ForbiddenSpheres {
				if !spheres[s] {
					v.addf("group %s: unknown forbidden sphere %q", g.Name, s)
				}
				for _, a := range g.AffinitySpheres {
					if a == s {
						v.addf("group %s: sphere %q is both affinity and forbidden", g.Name, s)
					}
				}
			}
		}
	}

	for label, list := range map[string][]Quality{"merit": doc.Merits, "flaw": doc.Flaws} {
		seen := map[string]bool{}
		for _, q := range list {
			v.uniqueName(label, q.Name, seen)
			if q.Points <= 0 {
				v.addf("%s %s: points must be positive", label, q.Name)
			}
		}
	}

	c := doc.Creation
	l := doc.Limits
	v.positive("limits", map[string]int{
		"attribute": l.Attribute, "ability": l.Ability, "sphere": l.Sphere, "background": l.Background,
		"arete": l.Arete, "willpower": l.Willpower, "quintessence": l.Quintessence, "paradox": l.Paradox,
	})
	v.nonNegative("creation", map[string]int{
		"attributes.primary": c.Attributes.Primary, "attributes.secondary": c.Attributes.Secondary,
		"attributes.tertiary": c.Attributes.Tertiary, "abilities.primary": c.Abilities.Primary,
		"abilities.secondary": c.Abilities.Secondary, "abilities.tertiary": c.Abilities.Tertiary,
		"backgrounds": c.Backgrounds, "spheres": c.Spheres, "freebie_points": c.FreebiePoints,
		"max_flaw_points": c.MaxFlawPoints,
	})
	if c.AbilityMax <= 0 || c.AbilityMax > l.Ability {
		v.addf("creation.ability_max must be between 1 and %d", l.Ability)
	}
	if c.AreteStarting < 1 || c.AreteStarting > c.AreteMax || c.AreteMax > l.Arete {
		v.addf("creation: need 1 <= arete_starting <= arete_max <= %d", l.Arete)
	}
	if c.WillpowerStarting < 1 || c.WillpowerStarting > l.Willpower {
		v.addf("creation.willpower_starting must be between 1 and %d", l.Willpower)
	}

	f := doc.FreebieCosts
	v.positive("freebie_costs", map[string]int{
		"attribute": f.Attribute, "ability": f.Ability, "background": f.Background, "sphere": f.Sphere,
		"arete": f.Arete, "willpower": f.Willpower, "quintessence_dots_per_point": f.QuintessenceDotsPerPoint,
	})
	x := doc.Experience
	v.positive("experience_costs", map[string]int{
		"new_ability": x.NewAbility, "new_sphere": x.NewSphere, "affinity_sphere": x.AffinitySphere,
		"other_sphere": x.OtherSphere, "arete": x.Arete, "attribute": x.Attribute, "ability": x.Ability,
		"background": x.Background, "willpower": x.Willpower,
	})

	return v.err()
}

type validator struct {
	problems []error
}

func (v *validator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid ruleset: %w", errors.Join(v.problems...))
}

func (v *validator) uniqueName(label, name string, seen map[string]bool) {
	if strings.TrimSpace(name) == "" {
		v.addf("%s name is required", label)
		return
	}
	if seen[name] {
		v.addf("duplicate %s %q", label, name)
	}
	seen[name] = true
}

func (v *validator) categories(axis string, cats []Category) {
	if len(cats) != 3 {
		v.addf("%s: exactly 3 categories are required, got %d", axis, len(cats))
	}
	names := map[string]bool{}
	traits := map[string]bool{}
	for _, c := range cats {
		v.uniqueName(axis+" category", c.Name, names)
		if len(c.Traits) == 0 {
			v.addf("%s category %s: traits are required", axis, c.Name)
		}
		for _, t := range slices.Concat(c.Traits, c.Secondary) {
			v.uniqueName(axis+" trait", t, traits)
		}
	}
}

func (v *validator) positive(section string, values map[string]int) {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if values[key] <= 0 {
			v.addf("%s.%s must be positive", section, key)
		}
	}
}

func (v *validator) nonNegative(section string, values map[string]int) {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if values[key] < 0 {
			v.addf("%s.%s must not be negative", section, key)
		}
	}
}
