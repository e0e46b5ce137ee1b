package character

import (
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
)

// AddMerit takes a merit at its catalog value. Merits are free to pick
// during creation (an overdrawn balance blocks advancing instead), must be
// affordable from the freebie balance during freebie, and need override once
// experience starts.
func (s *Sheet) AddMerit(name string, override bool) Decision {
	q, ok := s.lookupQuality(s.rules.Merits(), name)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": name}, "unknown merit %q", name)
	}
	if _, held := s.merits[q.Name]; held {
		return Decision{}
	}
	if d, locked := s.qualityLocked(override); locked {
		return d
	}
	if s.regime == RegimeFreebie && !override {
		if available := s.AvailableFreebiePoints(); q.Points > available {
			return reject(CodeInsufficientPoints,
				map[string]string{"trait": q.Name, "cost": itoa(q.Points), "available": itoa(available)},
				"%s costs %d but only %d points are available", q.Name, q.Points, available)
		}
	}
	s.merits[q.Name] = q.Points
	return Decision{Cost: q.Points}
}

// RemoveMerit drops a merit and returns its points to the freebie balance.
func (s *Sheet) RemoveMerit(name string, override bool) Decision {
	q, ok := s.lookupQuality(s.rules.Merits(), name)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": name}, "unknown merit %q", name)
	}
	if _, held := s.merits[q.Name]; !held {
		return reject(CodeInvalidValue, map[string]string{"field": "merit", "value": q.Name},
			"%s is not taken", q.Name)
	}
	if d, locked := s.qualityLocked(override); locked {
		return d
	}
	delete(s.merits, q.Name)
	return Decision{}
}

// AddFlaw takes a flaw. Its points raise the freebie balance up to the
// ruleset's flaw bonus cap.
func (s *Sheet) AddFlaw(name string, override bool) Decision {
	q, ok := s.lookupQuality(s.rules.Flaws(), name)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": name}, "unknown flaw %q", name)
	}
	if _, held := s.flaws[q.Name]; held {
		return Decision{}
	}
	if d, locked := s.qualityLocked(override); locked {
		return d
	}
	s.flaws[q.Name] = q.Points
	return Decision{}
}

// RemoveFlaw buys off a flaw. During freebie the lost bonus must not leave
// the balance negative.
func (s *Sheet) RemoveFlaw(name string, override bool) Decision {
	q, ok := s.lookupQuality(s.rules.Flaws(), name)
	if !ok {
		return reject(CodeUnknownTrait, map[string]string{"trait": name}, "unknown flaw %q", name)
	}
	points, held := s.flaws[q.Name]
	if !held {
		return reject(CodeInvalidValue, map[string]string{"field": "flaw", "value": q.Name},
			"%s is not taken", q.Name)
	}
	if d, locked := s.qualityLocked(override); locked {
		return d
	}
	before := s.AvailableFreebiePoints()
	delete(s.flaws, q.Name)
	if after := s.AvailableFreebiePoints(); s.regime == RegimeFreebie && !override && after < 0 {
		s.flaws[q.Name] = points
		return reject(CodeInsufficientPoints,
			map[string]string{"trait": q.Name, "cost": itoa(before - after), "available": itoa(before)},
			"buying off %s costs %d but only %d points are available", q.Name, before-after, before)
	}
	return Decision{}
}

func (s *Sheet) qualityLocked(override bool) (Decision, bool) {
	if s.regime == RegimeExperience && !override {
		return reject(CodeRegimeLocked, map[string]string{"regime": string(s.regime)},
			"merits and flaws change only by storyteller override during %s", s.regime), true
	}
	return Decision{}, false
}

func (s *Sheet) lookupQuality(catalog []ruleset.Quality, name string) (ruleset.Quality, bool) {
	name = strings.TrimSpace(name)
	for _, q := range catalog {
		if strings.EqualFold(q.Name, name) {
			return q, true
		}
	}
	return ruleset.Quality{}, false
}

// AwardExperience adds experience to the pool. It is allowed in any regime;
// points only become spendable once experience starts.
func (s *Sheet) AwardExperience(amount int, note string) Decision {
	if amount <= 0 {
		return reject(CodeInvalidValue, map[string]string{"field": "experience", "value": itoa(amount)},
			"experience awards must be positive, got %d", amount)
	}
	s.experienceTotal += amount
	s.experienceLog = append(s.experienceLog, ExperienceEntry{
		Kind: ExperienceAward, Points: amount, Note: strings.TrimSpace(note),
	})
	return Decision{}
}

// SetWillpowerCurrent sets the temporary Willpower pool, 0 through the
// permanent rating.
func (s *Sheet) SetWillpowerCurrent(n int) Decision {
	if n < 0 || n > s.willpower {
		return reject(CodeInvalidValue, map[string]string{"field": "willpower_current", "value": itoa(n)},
			"current Willpower must be between 0 and %d", s.willpower)
	}
	s.willpowerCurrent = n
	return Decision{}
}

// SetParadox sets the Paradox pool. Paradox is tracked, never bought.
func (s *Sheet) SetParadox(n int) Decision {
	if n < 0 {
		return reject(CodeInvalidValue, map[string]string{"field": "paradox", "value": itoa(n)},
			"Paradox cannot be negative")
	}
	if maximum := s.rules.Limits().Paradox; n > maximum {
		return reject(CodeAboveMaximum, map[string]string{"trait": "Paradox", "maximum": itoa(maximum)},
			"Paradox cannot exceed %d", maximum)
	}
	s.paradox = n
	return Decision{}
}

// SetProfile replaces the character's identity fields. Faction and group
// must name ruleset affiliations when set, and the new group must allow the
// current affinity sphere and every rated sphere.
func (s *Sheet) SetProfile(p Profile) Decision {
	p = p.normalized()
	if p.Faction != "" {
		found := false
		for _, f := range s.rules.Factions() {
			if strings.EqualFold(f.Name, p.Faction) {
				p.Faction, found = f.Name, true
				break
			}
		}
		if !found {
			return reject(CodeInvalidValue, map[string]string{"field": "faction", "value": p.Faction},
				"unknown affiliation %q", p.Faction)
		}
	}
	if p.Group != "" {
		g, ok := s.findGroup(p.Faction, p.Group)
		if !ok {
			return reject(CodeInvalidValue, map[string]string{"field": "group", "value": p.Group},
				"unknown group %q for affiliation %q", p.Group, p.Faction)
		}
		p.Group = g
	}
	if d := s.checkSpheresFor(p); !d.Accepted() {
		return d
	}
	s.profile = p
	return Decision{}
}

func (s *Sheet) findGroup(faction, group string) (string, bool) {
	for _, f := range s.rules.Factions() {
		if f.Name != faction {
			continue
		}
		for _, g := range f.Groups {
			if strings.EqualFold(g.Name, group) || (g.AltName != "" && strings.EqualFold(g.AltName, group)) {
				return g.Name, true
			}
		}
	}
	return "", false
}
