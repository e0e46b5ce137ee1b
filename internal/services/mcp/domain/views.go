package domain

import (
	"slices"
	"time"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

// ProfileView is the identity block of a character.
type ProfileView struct {
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

// SheetView is the full character state returned by tools.
type SheetView struct {
	ID               string            `json:"id"`
	Regime           string            `json:"regime"`
	Profile          ProfileView       `json:"profile"`
	Priorities       map[string]string `json:"priorities,omitempty"`
	Attributes       map[string]int    `json:"attributes"`
	Abilities        map[string]int    `json:"abilities,omitempty"`
	Spheres          map[string]int    `json:"spheres,omitempty"`
	Backgrounds      map[string]int    `json:"backgrounds,omitempty"`
	AffinitySphere   string            `json:"affinity_sphere,omitempty"`
	Arete            int               `json:"arete"`
	Willpower        int               `json:"willpower"`
	WillpowerCurrent int               `json:"willpower_current"`
	Quintessence     int               `json:"quintessence"`
	Paradox          int               `json:"paradox"`
	Merits           map[string]int    `json:"merits,omitempty"`
	Flaws            map[string]int    `json:"flaws,omitempty"`
	FreebiePoints    int               `json:"freebie_points"`
	ExperienceTotal  int               `json:"experience_total"`
	ExperienceSpent  int               `json:"experience_spent"`
	ExperiencePoints int               `json:"experience_points"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
}

// AdjustmentView reports a clamp or recap applied alongside a change.
type AdjustmentView struct {
	Kind  string `json:"kind"`
	Code  string `json:"code"`
	Trait string `json:"trait"`
	From  int    `json:"from"`
	To    int    `json:"to"`
}

// ReasonView is one condition blocking regime advancement.
type ReasonView struct {
	Code     string `json:"code"`
	Category string `json:"category,omitempty"`
	Amount   int    `json:"amount,omitempty"`
	Message  string `json:"message"`
}

// DecisionView is the engine outcome of a command.
type DecisionView struct {
	Accepted    bool              `json:"accepted"`
	Code        string            `json:"code,omitempty"`
	Message     string            `json:"message,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Trait       string            `json:"trait,omitempty"`
	From        int               `json:"from"`
	To          int               `json:"to"`
	Cost        int               `json:"cost"`
	Adjustments []AdjustmentView  `json:"adjustments,omitempty"`
	Reasons     []ReasonView      `json:"reasons,omitempty"`
}

// CommandResult pairs the decision with the character state after it.
type CommandResult struct {
	Decision  DecisionView `json:"decision"`
	Character *SheetView   `json:"character,omitempty"`
}

func sheetView(c app.Character) *SheetView {
	s := c.Sheet
	if s == nil {
		return nil
	}
	rules := s.Rules()
	view := &SheetView{
		ID:               c.ID,
		Regime:           string(s.Regime()),
		Profile:          profileView(s.Profile()),
		Priorities:       map[string]string{},
		Attributes:       s.Ratings(trait.KindAttribute),
		Abilities:        s.Ratings(trait.KindAbility),
		Spheres:          s.Ratings(trait.KindSphere),
		Backgrounds:      s.Ratings(trait.KindBackground),
		AffinitySphere:   s.AffinitySphere(),
		Arete:            s.Rating(trait.Arete),
		Willpower:        s.Rating(trait.Willpower),
		WillpowerCurrent: s.WillpowerCurrent(),
		Quintessence:     s.Rating(trait.Quintessence),
		Paradox:          s.Paradox(),
		Merits:           s.Merits(),
		Flaws:            s.Flaws(),
		FreebiePoints:    s.AvailableFreebiePoints(),
		ExperienceTotal:  s.ExperienceTotal(),
		ExperienceSpent:  s.ExperienceSpent(),
		ExperiencePoints: s.AvailableExperiencePoints(),
		CreatedAt:        formatTime(c.CreatedAt),
		UpdatedAt:        formatTime(c.UpdatedAt),
	}
	for _, axis := range []ruleset.Axis{ruleset.AxisAttribute, ruleset.AxisAbility} {
		for _, category := range rules.Categories(axis) {
			if p := s.Priority(axis, category); p != ruleset.PriorityUnset {
				view.Priorities[string(axis)+":"+category] = string(p)
			}
		}
	}
	return view
}

func profileView(p character.Profile) ProfileView {
	return ProfileView{
		Name:              p.Name,
		Player:            p.Player,
		Chronicle:         p.Chronicle,
		Concept:           p.Concept,
		Faction:           p.Faction,
		Group:             p.Group,
		Essence:           p.Essence,
		Nature:            p.Nature,
		Demeanor:          p.Demeanor,
		Paradigm:          p.Paradigm,
		Practice:          p.Practice,
		Instruments:       slices.Clone(p.Instruments),
		AvatarDescription: p.AvatarDescription,
		Notes:             p.Notes,
	}
}

func decisionView(d character.Decision) DecisionView {
	view := DecisionView{
		Accepted: d.Accepted(),
		From:     d.From,
		To:       d.To,
		Cost:     d.Cost,
		Reasons:  reasonViews(d.Reasons),
	}
	if d.Trait.Kind != "" {
		view.Trait = d.Trait.Key()
	}
	if r := d.Rejection; r != nil {
		view.Code = string(r.Code)
		view.Message = r.Message
		view.Metadata = r.Metadata
	}
	for _, a := range d.Adjustments {
		view.Adjustments = append(view.Adjustments, AdjustmentView{
			Kind:  string(a.Kind),
			Code:  string(a.Code()),
			Trait: a.Trait.Key(),
			From:  a.From,
			To:    a.To,
		})
	}
	return view
}

func reasonViews(reasons []character.Reason) []ReasonView {
	if len(reasons) == 0 {
		return nil
	}
	out := make([]ReasonView, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, ReasonView{Code: string(r.Code), Category: r.Category, Amount: r.Amount, Message: r.Message})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
