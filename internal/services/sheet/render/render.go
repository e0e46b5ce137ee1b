// Package render prints character sheets as markdown or plain text and reads
// back the snapshot embedded in a markdown export.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
	"golang.org/x/text/message"
)

// Format selects an export layout.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name case-insensitively. "md" aliases markdown.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, true
	case "text", "txt":
		return FormatText, true
	case "json":
		return FormatJSON, true
	}
	return "", false
}

const (
	dataOpen  = "<!-- CHARACTER_DATA\n"
	dataClose = "\nEND_CHARACTER_DATA -->"
)

// ErrNoCharacterData is returned when a document has no embedded snapshot.
var ErrNoCharacterData = errors.New("document has no CHARACTER_DATA block")

// Export renders s in the given format.
func Export(s *character.Sheet, p *message.Printer, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(s, p)
	case FormatText:
		return Text(s, p), nil
	case FormatJSON:
		data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode snapshot: %w", err)
		}
		return string(data) + "\n", nil
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

// Markdown renders s as a markdown sheet followed by an HTML comment holding
// the JSON snapshot, so the file can be imported again.
func Markdown(s *character.Sheet, p *message.Printer) (string, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	w := &writer{printer: p, sheet: s, markdown: true}
	w.sheetBody()
	w.b.WriteString("\n" + dataOpen)
	w.b.Write(data)
	w.b.WriteString(dataClose + "\n")
	return w.b.String(), nil
}

// Text renders s as plain text without the snapshot block.
func Text(s *character.Sheet, p *message.Printer) string {
	w := &writer{printer: p, sheet: s}
	w.sheetBody()
	return w.b.String()
}

// ParseMarkdown extracts the snapshot embedded by Markdown. A bare JSON
// snapshot document is accepted too.
func ParseMarkdown(doc string) (character.Snapshot, error) {
	var snap character.Snapshot
	raw := strings.TrimSpace(doc)
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(doc, dataOpen)
		if start < 0 {
			return snap, ErrNoCharacterData
		}
		rest := doc[start+len(dataOpen):]
		end := strings.Index(rest, dataClose)
		if end < 0 {
			return snap, ErrNoCharacterData
		}
		raw = rest[:end]
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snap, fmt.Errorf("decode character data: %w", err)
	}
	return snap, nil
}

type writer struct {
	b        strings.Builder
	printer  *message.Printer
	sheet    *character.Sheet
	markdown bool
}

func (w *writer) t(key string, args ...any) string {
	return w.printer.Sprintf(key, args...)
}

func (w *writer) title(text string) {
	if w.markdown {
		fmt.Fprintf(&w.b, "# %s\n\n", text)
		return
	}
	fmt.Fprintf(&w.b, "%s\n%s\n\n", text, strings.Repeat("=", len([]rune(text))))
}

func (w *writer) heading(text string) {
	if w.markdown {
		fmt.Fprintf(&w.b, "## %s\n\n", text)
		return
	}
	fmt.Fprintf(&w.b, "%s\n%s\n", strings.ToUpper(text), strings.Repeat("-", len([]rune(text))))
}

func (w *writer) subheading(text string) {
	if w.markdown {
		fmt.Fprintf(&w.b, "### %s\n\n", text)
		return
	}
	fmt.Fprintf(&w.b, "%s:\n", text)
}

func (w *writer) item(label, value string) {
	if w.markdown {
		fmt.Fprintf(&w.b, "- **%s:** %s\n", label, value)
		return
	}
	fmt.Fprintf(&w.b, "  %-22s %s\n", label, value)
}

func (w *writer) line(text string) {
	if w.markdown {
		fmt.Fprintf(&w.b, "- %s\n", text)
		return
	}
	fmt.Fprintf(&w.b, "  %s\n", text)
}

func (w *writer) end() {
	w.b.WriteString("\n")
}

// Dots renders a rating as filled and empty circles out of max.
func Dots(rating, limit int) string {
	rating = min(max(rating, 0), limit)
	return strings.Repeat("●", rating) + strings.Repeat("○", limit-rating)
}

func (w *writer) sheetBody() {
	s := w.sheet
	profile := s.Profile()

	name := profile.Name
	if name == "" {
		name = w.t("sheet.unnamed")
	}
	w.title(name)

	affiliation := profile.Faction
	if profile.Group != "" {
		affiliation = strings.TrimSpace(affiliation + " / " + profile.Group)
	}
	for _, field := range []struct{ key, value string }{
		{"sheet.field.player", profile.Player},
		{"sheet.field.chronicle", profile.Chronicle},
		{"sheet.field.concept", profile.Concept},
		{"sheet.field.affiliation", affiliation},
		{"sheet.field.essence", profile.Essence},
		{"sheet.field.nature", profile.Nature},
		{"sheet.field.demeanor", profile.Demeanor},
		{"sheet.field.paradigm", profile.Paradigm},
		{"sheet.field.practice", profile.Practice},
		{"sheet.field.instruments", strings.Join(profile.Instruments, ", ")},
	} {
		if field.value != "" {
			w.item(w.t(field.key), field.value)
		}
	}
	w.item(w.t("sheet.field.regime"), w.t("sheet.regime."+string(s.Regime())))
	w.end()

	w.ratedAxis("sheet.heading.attributes", ruleset.AxisAttribute, trait.KindAttribute, true)
	w.ratedAxis("sheet.heading.abilities", ruleset.AxisAbility, trait.KindAbility, false)
	w.spheres()
	w.advantages()
	w.qualities()
	w.experience()
	w.status()

	if profile.Notes != "" {
		w.heading(w.t("sheet.heading.notes"))
		w.b.WriteString(profile.Notes + "\n\n")
	}
}

func (w *writer) ratedAxis(headingKey string, axis ruleset.Axis, kind trait.Kind, showZero bool) {
	s := w.sheet
	rules := s.Rules()
	ratings := s.Ratings(kind)
	limit := rules.Max(kind)

	w.heading(w.t(headingKey))
	for _, category := range rules.Categories(axis) {
		var rated []string
		for _, name := range rules.TraitsIn(axis, category) {
			if showZero || ratings[name] > 0 {
				rated = append(rated, name)
			}
		}
		if len(rated) == 0 {
			continue
		}
		label := category
		if p := s.Priority(axis, category); p != ruleset.PriorityUnset {
			label = fmt.Sprintf("%s (%s)", category, p)
		}
		w.subheading(label)
		for _, name := range rated {
			w.item(name, Dots(ratings[name], limit))
		}
		w.end()
	}
}

func (w *writer) spheres() {
	s := w.sheet
	rules := s.Rules()
	faction := s.Profile().Faction
	ratings := s.Ratings(trait.KindSphere)
	limit := rules.Max(trait.KindSphere)
	affinity := s.AffinitySphere()

	w.heading(w.t("sheet.heading.spheres"))
	for _, sphere := range rules.Spheres() {
		if ratings[sphere] == 0 && sphere != affinity {
			continue
		}
		label := rules.SphereLabel(sphere, faction)
		if sphere == affinity {
			label = fmt.Sprintf("%s (%s)", label, w.t("sheet.label.affinity"))
		}
		w.item(label, Dots(ratings[sphere], limit))
	}
	w.end()
}

func (w *writer) advantages() {
	s := w.sheet
	rules := s.Rules()

	backgrounds := s.Ratings(trait.KindBackground)
	if len(backgrounds) > 0 {
		w.heading(w.t("sheet.heading.backgrounds"))
		limit := rules.Max(trait.KindBackground)
		for _, name := range sortedKeys(backgrounds) {
			w.item(name, Dots(backgrounds[name], limit))
		}
		w.end()
	}

	w.heading(w.t("sheet.heading.advantages"))
	w.item(w.t("sheet.label.arete"), Dots(s.Rating(trait.Arete), rules.Max(trait.KindArete)))
	w.item(w.t("sheet.label.willpower"), fmt.Sprintf("%s (%d)", Dots(s.Rating(trait.Willpower), rules.Max(trait.KindWillpower)), s.WillpowerCurrent()))
	w.item(w.t("sheet.label.quintessence"), fmt.Sprint(s.Rating(trait.Quintessence)))
	w.item(w.t("sheet.label.paradox"), fmt.Sprint(s.Paradox()))
	w.end()
}

func (w *writer) qualities() {
	for _, group := range []struct {
		key    string
		values map[string]int
	}{
		{"sheet.heading.merits", w.sheet.Merits()},
		{"sheet.heading.flaws", w.sheet.Flaws()},
	} {
		if len(group.values) == 0 {
			continue
		}
		w.heading(w.t(group.key))
		for _, name := range sortedKeys(group.values) {
			w.line(fmt.Sprintf("%s (%d)", name, group.values[name]))
		}
		w.end()
	}
}

func (w *writer) experience() {
	s := w.sheet
	switch s.Regime() {
	case character.RegimeFreebie:
		w.heading(w.t("sheet.heading.experience"))
		w.line(w.t("sheet.label.freebies", s.AvailableFreebiePoints()))
	case character.RegimeExperience:
		w.heading(w.t("sheet.heading.experience"))
		w.line(w.t("sheet.label.experience", s.ExperienceTotal(), s.ExperienceSpent(), s.AvailableExperiencePoints()))
		for _, entry := range s.ExperienceLog() {
			switch entry.Kind {
			case character.ExperienceAward:
				text := fmt.Sprintf("+%d", entry.Points)
				if entry.Note != "" {
					text += " " + entry.Note
				}
				w.line(text)
			case character.ExperienceSpend:
				w.line(fmt.Sprintf("-%d %s %d → %d", entry.Points, entry.Trait, entry.From, entry.To))
			}
		}
	default:
		return
	}
	w.end()
}

func (w *writer) status() {
	if w.sheet.Regime() == character.RegimeExperience {
		return
	}
	reasons := w.sheet.CanAdvance()
	w.heading(w.t("sheet.heading.status"))
	if len(reasons) == 0 {
		w.line(w.t("sheet.status.ready"))
		w.end()
		return
	}
	w.line(w.t("sheet.status.blocked"))
	for _, reason := range reasons {
		w.line(reason.Message)
	}
	w.end()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
