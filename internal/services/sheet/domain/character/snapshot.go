package character

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// SchemaVersion is the snapshot layout written by Snapshot.
const SchemaVersion = 1

// ErrInvalidSnapshot wraps every FromSnapshot failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the flat persisted form of a sheet. It holds recorded state
// only; balances and remaining budgets are recomputed after loading.
type Snapshot struct {
	SchemaVersion       int                         `json:"schema_version"`
	Ruleset             string                      `json:"ruleset,omitempty"`
	Profile             Profile                     `json:"profile"`
	Regime              Regime                      `json:"regime"`
	Attributes          map[string]int              `json:"attributes"`
	Abilities           map[string]int              `json:"abilities,omitempty"`
	Spheres             map[string]int              `json:"spheres"`
	Backgrounds         map[string]int              `json:"backgrounds,omitempty"`
	AttributePriorities map[string]ruleset.Priority `json:"attribute_priorities,omitempty"`
	AbilityPriorities   map[string]ruleset.Priority `json:"ability_priorities,omitempty"`
	Arete               int                         `json:"arete"`
	Willpower           int                         `json:"willpower"`
	WillpowerCurrent    int                         `json:"willpower_current"`
	Quintessence        int                         `json:"quintessence"`
	Paradox             int                         `json:"paradox"`
	AffinitySphere      string                      `json:"affinity_sphere,omitempty"`
	FreebiePointsSpent  int                         `json:"freebie_points_spent"`
	ExperienceTotal     int                         `json:"experience_total"`
	ExperienceSpent     int                         `json:"experience_spent"`
	Merits              map[string]int              `json:"merits,omitempty"`
	Flaws               map[string]int              `json:"flaws,omitempty"`
	CreationBaseline    map[string]int              `json:"creation_baseline,omitempty"`
	FreebieBaseline     map[string]int              `json:"freebie_baseline,omitempty"`
	ExperienceLog       []ExperienceEntry           `json:"experience_log,omitempty"`
}

// Snapshot captures the sheet. Empty collections are nil so equal sheets
// produce equal snapshots.
func (s *Sheet) Snapshot() Snapshot {
	p := s.profile
	p.Instruments = slices.Clone(p.Instruments)
	return Snapshot{
		SchemaVersion:       SchemaVersion,
		Ruleset:             s.rules.Version(),
		Profile:             p,
		Regime:              s.regime,
		Attributes:          cloneOrNil(s.attributes),
		Abilities:           cloneOrNil(s.abilities),
		Spheres:             cloneOrNil(s.spheres),
		Backgrounds:         cloneOrNil(s.backgrounds),
		AttributePriorities: cloneOrNil(s.priorities[ruleset.AxisAttribute]),
		AbilityPriorities:   cloneOrNil(s.priorities[ruleset.AxisAbility]),
		Arete:               s.arete,
		Willpower:           s.willpower,
		WillpowerCurrent:    s.willpowerCurrent,
		Quintessence:        s.quintessence,
		Paradox:             s.paradox,
		AffinitySphere:      s.affinity,
		FreebiePointsSpent:  s.freebieSpent,
		ExperienceTotal:     s.experienceTotal,
		ExperienceSpent:     s.experienceSpent,
		Merits:              cloneOrNil(s.merits),
		Flaws:               cloneOrNil(s.flaws),
		CreationBaseline:    cloneOrNil(s.creationBaseline),
		FreebieBaseline:     cloneOrNil(s.freebieBaseline),
		ExperienceLog:       slices.Clone(s.experienceLog),
	}
}

func cloneOrNil[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

// FromSnapshot rebuilds a sheet and checks every ledger invariant: known
// names, rating ranges, baselines matching the regime, ratings at or above
// their floors, the sphere caps, unique priorities and experience accounting.
// Any problem fails the whole load.
func FromSnapshot(rules *ruleset.Ruleset, snap Snapshot) (*Sheet, error) {
	l := loader{rules: rules, sheet: empty(rules)}
	l.load(snap)
	if len(l.problems) == 0 {
		l.checkInvariants()
	}
	if len(l.problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(l.problems...))
	}
	return l.sheet, nil
}

type loader struct {
	rules    *ruleset.Ruleset
	sheet    *Sheet
	problems []error
}

func (l *loader) addf(format string, args ...any) {
	l.problems = append(l.problems, fmt.Errorf(format, args...))
}

func (l *loader) load(snap Snapshot) {
	s := l.sheet
	if snap.SchemaVersion != SchemaVersion {
		l.addf("unsupported schema version %d", snap.SchemaVersion)
		return
	}
	if snap.Ruleset != "" && snap.Ruleset != l.rules.Version() {
		l.addf("snapshot was written for ruleset %q, loaded with %q", snap.Ruleset, l.rules.Version())
	}
	if !snap.Regime.Valid() {
		l.addf("unknown regime %q", snap.Regime)
	}
	s.regime = snap.Regime

	if d := s.SetProfile(snap.Profile); !d.Accepted() {
		l.addf("profile: %s", d.Rejection.Message)
	}

	l.ratings(trait.KindAttribute, snap.Attributes)
	l.ratings(trait.KindAbility, snap.Abilities)
	l.ratings(trait.KindSphere, snap.Spheres)
	l.ratings(trait.KindBackground, snap.Backgrounds)
	for _, name := range l.rules.Attributes() {
		if _, ok := s.attributes[name]; !ok {
			s.attributes[name] = typeDefault(trait.KindAttribute)
		}
	}
	for _, name := range l.rules.Spheres() {
		if _, ok := s.spheres[name]; !ok {
			s.spheres[name] = 0
		}
	}

	l.scalar(trait.Arete, snap.Arete, &s.arete)
	l.scalar(trait.Willpower, snap.Willpower, &s.willpower)
	l.scalar(trait.Quintessence, snap.Quintessence, &s.quintessence)
	s.willpowerCurrent = snap.WillpowerCurrent
	s.paradox = snap.Paradox

	if snap.AffinitySphere != "" {
		ref, ok := l.rules.Resolve(trait.Sphere(snap.AffinitySphere))
		if !ok {
			l.addf("unknown affinity sphere %q", snap.AffinitySphere)
		}
		s.affinity = ref.Name
	}

	l.priorities(ruleset.AxisAttribute, snap.AttributePriorities)
	l.priorities(ruleset.AxisAbility, snap.AbilityPriorities)

	s.freebieSpent = snap.FreebiePointsSpent
	s.experienceTotal = snap.ExperienceTotal
	s.experienceSpent = snap.ExperienceSpent

	l.qualities("merit", l.rules.Merits(), snap.Merits, s.merits)
	l.qualities("flaw", l.rules.Flaws(), snap.Flaws, s.flaws)

	s.creationBaseline = l.baseline("creation", snap.CreationBaseline)
	s.freebieBaseline = l.baseline("freebie", snap.FreebieBaseline)

	for i, e := range snap.ExperienceLog {
		if e.Kind != ExperienceAward && e.Kind != ExperienceSpend {
			l.addf("experience log entry %d: unknown kind %q", i, e.Kind)
		}
	}
	s.experienceLog = slices.Clone(snap.ExperienceLog)
}

func (l *loader) ratings(kind trait.Kind, in map[string]int) {
	for _, name := range slices.Sorted(maps.Keys(in)) {
		ref, ok := l.rules.Resolve(trait.Ref{Kind: kind, Name: name})
		if !ok {
			l.addf("unknown %s %q", kind, name)
			continue
		}
		value := in[name]
		if value < 0 || value > l.rules.Max(kind) {
			l.addf("%s %s: rating %d outside 0..%d", kind, ref.Name, value, l.rules.Max(kind))
			continue
		}
		l.sheet.setRating(ref, value)
	}
}

func (l *loader) scalar(ref trait.Ref, value int, dst *int) {
	if value < 0 || value > l.rules.Max(ref.Kind) {
		l.addf("%s: rating %d outside 0..%d", ref, value, l.rules.Max(ref.Kind))
	}
	*dst = value
}

func (l *loader) priorities(axis ruleset.Axis, in map[string]ruleset.Priority) {
	seen := map[ruleset.Priority]string{}
	for _, cat := range slices.Sorted(maps.Keys(in)) {
		name, ok := l.sheet.resolveCategory(axis, cat)
		if !ok {
			l.addf("unknown %s category %q", axis, cat)
			continue
		}
		p, ok := ruleset.ParsePriority(string(in[cat]))
		if !ok {
			l.addf("%s category %s: unknown priority %q", axis, name, in[cat])
			continue
		}
		if p == ruleset.PriorityUnset {
			continue
		}
		if holder, dup := seen[p]; dup {
			l.addf("%s categories %s and %s are both %s", axis, holder, name, p)
			continue
		}
		seen[p] = name
		l.sheet.priorities[axis][name] = p
	}
}

func (l *loader) qualities(label string, catalog []ruleset.Quality, in, dst map[string]int) {
	for _, name := range slices.Sorted(maps.Keys(in)) {
		q, ok := l.sheet.lookupQuality(catalog, name)
		if !ok {
			l.addf("unknown %s %q", label, name)
			continue
		}
		if in[name] <= 0 {
			l.addf("%s %s: points must be positive", label, q.Name)
			continue
		}
		dst[q.Name] = in[name]
	}
}

func (l *loader) baseline(label string, in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for _, key := range slices.Sorted(maps.Keys(in)) {
		ref, err := trait.ParseKey(key)
		if err != nil {
			l.addf("%s baseline: %v", label, err)
			continue
		}
		resolved, ok := l.rules.Resolve(ref)
		if !ok {
			l.addf("%s baseline: unknown trait %q", label, key)
			continue
		}
		if in[key] < 0 {
			l.addf("%s baseline: %s is negative", label, resolved)
			continue
		}
		out[resolved.Key()] = in[key]
	}
	return out
}

func (l *loader) checkInvariants() {
	s := l.sheet
	switch s.regime {
	case RegimeCreation:
		if s.creationBaseline != nil || s.freebieBaseline != nil {
			l.addf("a sheet in creation cannot carry baselines")
		}
	case RegimeFreebie:
		if s.creationBaseline == nil || s.freebieBaseline != nil {
			l.addf("a sheet in freebie needs exactly the creation baseline")
		}
	case RegimeExperience:
		if s.creationBaseline == nil || s.freebieBaseline == nil {
			l.addf("a sheet in experience needs both baselines")
		}
	}

	for _, kind := range []trait.Kind{trait.KindAttribute, trait.KindAbility, trait.KindSphere, trait.KindBackground} {
		for _, name := range l.floorNames(kind) {
			ref := trait.Ref{Kind: kind, Name: name}
			if rating, floor := s.rating(ref), s.floor(ref); rating < floor {
				l.addf("%s %s: rating %d below floor %d", kind, name, rating, floor)
			}
		}
	}
	for _, ref := range []trait.Ref{trait.Arete, trait.Willpower, trait.Quintessence} {
		if rating, floor := s.rating(ref), s.floor(ref); rating < floor {
			l.addf("%s: rating %d below floor %d", ref, rating, floor)
		}
	}

	if s.affinity != "" {
		if s.spheres[s.affinity] > s.arete {
			l.addf("affinity sphere %s exceeds Arete %d", s.affinity, s.arete)
		}
		for _, name := range l.rules.Spheres() {
			if name != s.affinity && s.spheres[name] > s.spheres[s.affinity] {
				l.addf("sphere %s exceeds affinity sphere %s", name, s.affinity)
			}
		}
	}

	if s.willpowerCurrent < 0 || s.willpowerCurrent > s.willpower {
		l.addf("current Willpower %d outside 0..%d", s.willpowerCurrent, s.willpower)
	}
	if s.paradox < 0 || s.paradox > l.rules.Limits().Paradox {
		l.addf("Paradox %d outside 0..%d", s.paradox, l.rules.Limits().Paradox)
	}
	if s.freebieSpent < 0 {
		l.addf("freebie points spent cannot be negative")
	}
	if s.experienceTotal < 0 || s.experienceSpent < 0 || s.experienceSpent > s.experienceTotal {
		l.addf("experience spent %d does not fit total %d", s.experienceSpent, s.experienceTotal)
	}
}

// floorNames lists every name of kind that is rated or has a recorded floor.
func (l *loader) floorNames(kind trait.Kind) []string {
	names := map[string]bool{}
	for name := range l.sheet.table(kind) {
		names[name] = true
	}
	for _, b := range []map[string]int{l.sheet.creationBaseline, l.sheet.freebieBaseline} {
		for key := range b {
			if ref, err := trait.ParseKey(key); err == nil && ref.Kind == kind {
				names[ref.Name] = true
			}
		}
	}
	return slices.Sorted(maps.Keys(names))
}
