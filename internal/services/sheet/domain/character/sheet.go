// Package character is the character-sheet rules engine.
//
// A Sheet owns one character's trait ledger and applies every change through
// guarded commands: sphere requests are clamped to their caps, ratings may
// never drop below the floor recorded when an earlier stage closed, and
// freebie or experience purchases are priced and checked against the
// remaining budget before anything is written. Commands return a Decision
// value; they never panic on bad input.
//
// A Sheet is not safe for concurrent use. Hosts serialize edits per character.
package character

import (
	"maps"
	"slices"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// Regime is the allocation stage a sheet is in.
type Regime string

const (
	RegimeCreation   Regime = "creation"
	RegimeFreebie    Regime = "freebie"
	RegimeExperience Regime = "experience"
)

// Valid reports whether r is a known regime.
func (r Regime) Valid() bool {
	switch r {
	case RegimeCreation, RegimeFreebie, RegimeExperience:
		return true
	}
	return false
}

// Next returns the regime that follows r. Experience is terminal.
func (r Regime) Next() (Regime, bool) {
	switch r {
	case RegimeCreation:
		return RegimeFreebie, true
	case RegimeFreebie:
		return RegimeExperience, true
	}
	return "", false
}

// Profile is the free-form identity of a character.
type Profile struct {
	Name              string   `json:"name,omitempty"`
	Player            string   `json:"player,omitempty"`
	Chronicle         string   `json:"chronicle,omitempty"`
	Concept           string   `json:"concept,omitempty"`
	Faction           string   `json:"faction,omitempty"`
	Group             string   `json:"group,omitempty"`
	Essence           string   `json:"essence,omitempty"`
	Nature            string   `json:"nature,omitempty"`
	Demeanor          string   `json:"demeanor,omitempty"`
	Paradigm          string   `json:"paradigm,omitempty"`
	Practice          string   `json:"practice,omitempty"`
	Instruments       []string `json:"instruments,omitempty"`
	AvatarDescription string   `json:"avatar_description,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

func (p Profile) normalized() Profile {
	trim := strings.TrimSpace
	out := Profile{
		Name: trim(p.Name), Player: trim(p.Player), Chronicle: trim(p.Chronicle),
		Concept: trim(p.Concept), Faction: trim(p.Faction), Group: trim(p.Group),
		Essence: trim(p.Essence), Nature: trim(p.Nature), Demeanor: trim(p.Demeanor),
		Paradigm: trim(p.Paradigm), Practice: trim(p.Practice),
		AvatarDescription: trim(p.AvatarDescription), Notes: strings.TrimRight(p.Notes, " \t\n"),
	}
	for _, inst := range p.Instruments {
		if inst = trim(inst); inst != "" {
			out.Instruments = append(out.Instruments, inst)
		}
	}
	return out
}

// ExperienceKind tags experience log entries.
type ExperienceKind string

const (
	ExperienceAward ExperienceKind = "award"
	ExperienceSpend ExperienceKind = "spend"
)

// ExperienceEntry is one line of the experience log.
type ExperienceEntry struct {
	Kind   ExperienceKind `json:"kind"`
	Trait  string         `json:"trait,omitempty"`
	From   int            `json:"from,omitempty"`
	To     int            `json:"to,omitempty"`
	Points int            `json:"points"`
	Note   string         `json:"note,omitempty"`
}

// Sheet is one character's trait ledger bound to a ruleset.
type Sheet struct {
	rules   *ruleset.Ruleset
	profile Profile
	regime  Regime

	attributes  map[string]int
	abilities   map[string]int
	spheres     map[string]int
	backgrounds map[string]int
	priorities  map[ruleset.Axis]map[string]ruleset.Priority

	arete            int
	willpower        int
	willpowerCurrent int
	quintessence     int
	paradox          int
	affinity         string

	freebieSpent    int
	experienceTotal int
	experienceSpent int

	merits map[string]int
	flaws  map[string]int

	creationBaseline map[string]int
	freebieBaseline  map[string]int
	experienceLog    []ExperienceEntry
}

// New returns a fresh sheet in the creation regime with ruleset defaults.
func New(rules *ruleset.Ruleset) *Sheet {
	s := empty(rules)
	for _, name := range rules.Attributes() {
		s.attributes[name] = 1
	}
	for _, name := range rules.Spheres() {
		s.spheres[name] = 0
	}
	c := rules.Creation()
	s.arete = c.AreteStarting
	s.willpower = c.WillpowerStarting
	s.willpowerCurrent = c.WillpowerStarting
	return s
}

func empty(rules *ruleset.Ruleset) *Sheet {
	return &Sheet{
		rules:       rules,
		regime:      RegimeCreation,
		attributes:  map[string]int{},
		abilities:   map[string]int{},
		spheres:     map[string]int{},
		backgrounds: map[string]int{},
		priorities: map[ruleset.Axis]map[string]ruleset.Priority{
			ruleset.AxisAttribute: {},
			ruleset.AxisAbility:   {},
		},
		merits: map[string]int{},
		flaws:  map[string]int{},
	}
}

// Rules returns the ruleset the sheet is bound to.
func (s *Sheet) Rules() *ruleset.Ruleset { return s.rules }

// Regime returns the current allocation stage.
func (s *Sheet) Regime() Regime { return s.regime }

// Profile returns a copy of the identity fields.
func (s *Sheet) Profile() Profile {
	p := s.profile
	p.Instruments = slices.Clone(p.Instruments)
	return p
}

// AffinitySphere returns the chosen affinity sphere, or "".
func (s *Sheet) AffinitySphere() string { return s.affinity }

// WillpowerCurrent returns the spendable Willpower pool.
func (s *Sheet) WillpowerCurrent() int { return s.willpowerCurrent }

// Paradox returns the Paradox pool.
func (s *Sheet) Paradox() int { return s.paradox }

// FreebiePointsSpent returns freebie points spent on traits.
func (s *Sheet) FreebiePointsSpent() int { return s.freebieSpent }

// ExperienceTotal returns all experience ever awarded.
func (s *Sheet) ExperienceTotal() int { return s.experienceTotal }

// ExperienceSpent returns experience spent on traits.
func (s *Sheet) ExperienceSpent() int { return s.experienceSpent }

// ExperienceLog returns a copy of the experience log.
func (s *Sheet) ExperienceLog() []ExperienceEntry { return slices.Clone(s.experienceLog) }

// Merits returns the taken merits with their point values.
func (s *Sheet) Merits() map[string]int { return maps.Clone(s.merits) }

// Flaws returns the taken flaws with their point values.
func (s *Sheet) Flaws() map[string]int { return maps.Clone(s.flaws) }

// Priority returns the tier assigned to a category.
func (s *Sheet) Priority(axis ruleset.Axis, category string) ruleset.Priority {
	return s.priorities[axis][category]
}

// Ratings returns the ratings of one named trait kind. Attributes and spheres
// are always complete; abilities and backgrounds list only rated traits.
func (s *Sheet) Ratings(kind trait.Kind) map[string]int {
	if m := s.table(kind); m != nil {
		return maps.Clone(m)
	}
	return nil
}

// Rating returns the current rating of a trait. Names resolve
// case-insensitively; unknown traits rate 0.
func (s *Sheet) Rating(ref trait.Ref) int {
	resolved, ok := s.rules.Resolve(ref)
	if !ok {
		return 0
	}
	return s.rating(resolved)
}

func (s *Sheet) rating(ref trait.Ref) int {
	switch ref.Kind {
	case trait.KindArete:
		return s.arete
	case trait.KindWillpower:
		return s.willpower
	case trait.KindQuintessence:
		return s.quintessence
	}
	return s.table(ref.Kind)[ref.Name]
}

func (s *Sheet) setRating(ref trait.Ref, value int) {
	switch ref.Kind {
	case trait.KindArete:
		s.arete = value
	case trait.KindWillpower:
		// A full pool stays full; otherwise the pool is only clamped.
		if s.willpowerCurrent == s.willpower || s.willpowerCurrent > value {
			s.willpowerCurrent = value
		}
		s.willpower = value
	case trait.KindQuintessence:
		s.quintessence = value
	case trait.KindAbility, trait.KindBackground:
		if value == 0 {
			delete(s.table(ref.Kind), ref.Name)
			return
		}
		s.table(ref.Kind)[ref.Name] = value
	case trait.KindAttribute, trait.KindSphere:
		s.table(ref.Kind)[ref.Name] = value
	}
}

func (s *Sheet) table(kind trait.Kind) map[string]int {
	switch kind {
	case trait.KindAttribute:
		return s.attributes
	case trait.KindAbility:
		return s.abilities
	case trait.KindSphere:
		return s.spheres
	case trait.KindBackground:
		return s.backgrounds
	}
	return nil
}
