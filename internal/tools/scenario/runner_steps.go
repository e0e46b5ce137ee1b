package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "character":
		return r.runCharacterStep(ctx, state, step)
	case "use":
		return r.runUseStep(state, step)
	case "priority":
		return r.runPriorityStep(ctx, state, step)
	case "change":
		return r.runChangeStep(ctx, state, step)
	case "quote":
		return r.runQuoteStep(ctx, state, step)
	case "affinity":
		return r.runAffinityStep(ctx, state, step)
	case "advance":
		return r.runAdvanceStep(ctx, state, step)
	case "award":
		return r.runAwardStep(ctx, state, step)
	case "merit", "flaw":
		return r.runQualityStep(ctx, state, step)
	case "expect_rating":
		return r.runExpectRatingStep(ctx, state, step)
	case "expect_regime":
		return r.runExpectRegimeStep(ctx, state, step)
	case "expect_points":
		return r.runExpectPointsStep(ctx, state, step)
	case "expect_reasons":
		return r.runExpectReasonsStep(ctx, state, step)
	case "expect_ready":
		return r.runExpectReadyStep(ctx, state, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runCharacterStep(ctx context.Context, state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if name == "" {
		return r.failf("character name is required")
	}
	if _, exists := state.characters[name]; exists {
		return r.failf("character %q already exists in this scenario", name)
	}
	profile := character.Profile{
		Name:        name,
		Player:      optionalString(step.Args, "player", ""),
		Chronicle:   optionalString(step.Args, "chronicle", ""),
		Concept:     optionalString(step.Args, "concept", ""),
		Faction:     optionalString(step.Args, "faction", ""),
		Group:       optionalString(step.Args, "group", ""),
		Essence:     optionalString(step.Args, "essence", ""),
		Nature:      optionalString(step.Args, "nature", ""),
		Demeanor:    optionalString(step.Args, "demeanor", ""),
		Paradigm:    optionalString(step.Args, "paradigm", ""),
		Practice:    optionalString(step.Args, "practice", ""),
		Instruments: readStringSlice(step.Args, "instruments"),
	}
	res, err := r.sheets.Create(ctx, profile)
	if err != nil {
		return r.failf("create character %q: %v", name, err)
	}
	state.characters[name] = res.Character.ID
	state.current = name
	r.logf("character %s created: %s", name, res.Character.ID)
	return nil
}

func (r *Runner) runUseStep(state *scenarioState, step Step) error {
	name := requiredString(step.Args, "name")
	if _, ok := state.characters[name]; !ok {
		return r.failf("unknown character %q", name)
	}
	state.current = name
	return nil
}

func (r *Runner) runPriorityStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	axis := ruleset.Axis(strings.ToLower(requiredString(step.Args, "axis")))
	if axis != ruleset.AxisAttribute && axis != ruleset.AxisAbility {
		return r.failf("axis must be attribute or ability, got %q", step.Args["axis"])
	}
	p, ok := ruleset.ParsePriority(optionalString(step.Args, "priority", ""))
	if !ok {
		return r.failf("unknown priority %v", step.Args["priority"])
	}
	res, err := r.sheets.SetPriority(ctx, id, axis, requiredString(step.Args, "category"), p)
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runChangeStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	req, err := r.changeRequest(step)
	if err != nil {
		return err
	}
	res, err := r.sheets.Change(ctx, id, req)
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runQuoteStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	req, err := r.changeRequest(step)
	if err != nil {
		return err
	}
	d, err := r.sheets.Quote(ctx, id, req)
	if err != nil {
		return r.failf("quote %s: %v", req.Trait, err)
	}
	return r.checkDecision(step, d, nil)
}

func (r *Runner) runAffinityStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	res, err := r.sheets.SelectAffinity(ctx, id, optionalString(step.Args, "sphere", ""))
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runAdvanceStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	res, err := r.sheets.Advance(ctx, id)
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runAwardStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	amount, _ := readInt(step.Args, "amount")
	res, err := r.sheets.AwardExperience(ctx, id, amount, optionalString(step.Args, "note", ""))
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runQualityStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	name := requiredString(step.Args, "name")
	taken := !optionalBool(step.Args, "remove", false)
	override := optionalBool(step.Args, "override", false)
	var res app.Result
	if step.Kind == "merit" {
		res, err = r.sheets.SetMerit(ctx, id, name, taken, override)
	} else {
		res, err = r.sheets.SetFlaw(ctx, id, name, taken, override)
	}
	return r.checkDecision(step, res.Decision, err)
}

func (r *Runner) runExpectRatingStep(ctx context.Context, state *scenarioState, step Step) error {
	sheet, err := r.currentSheet(ctx, state)
	if err != nil {
		return err
	}
	ref, err := trait.ParseKey(requiredString(step.Args, "trait"))
	if err != nil {
		return r.failf("expect_rating: %v", err)
	}
	want, _ := readInt(step.Args, "rating")
	if resolved, ok := sheet.Rules().Resolve(ref); ok {
		ref = resolved
	}
	if got := sheet.Rating(ref); got != want {
		return r.assertf("%s = %d, want %d", ref, got, want)
	}
	return nil
}

func (r *Runner) runExpectRegimeStep(ctx context.Context, state *scenarioState, step Step) error {
	sheet, err := r.currentSheet(ctx, state)
	if err != nil {
		return err
	}
	want := character.Regime(strings.ToLower(requiredString(step.Args, "regime")))
	if got := sheet.Regime(); got != want {
		return r.assertf("regime = %s, want %s", got, want)
	}
	return nil
}

func (r *Runner) runExpectPointsStep(ctx context.Context, state *scenarioState, step Step) error {
	sheet, err := r.currentSheet(ctx, state)
	if err != nil {
		return err
	}
	if want, ok := readInt(step.Args, "freebie"); ok {
		if got := sheet.AvailableFreebiePoints(); got != want {
			return r.assertf("freebie points = %d, want %d", got, want)
		}
	}
	if want, ok := readInt(step.Args, "experience"); ok {
		if got := sheet.AvailableExperiencePoints(); got != want {
			return r.assertf("experience points = %d, want %d", got, want)
		}
	}
	return nil
}

func (r *Runner) runExpectReasonsStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	st, err := r.sheets.Status(ctx, id)
	if err != nil {
		return r.failf("status: %v", err)
	}
	want := readStringSlice(step.Args, "codes")
	got := make([]string, 0, len(st.Reasons))
	for _, reason := range st.Reasons {
		got = append(got, string(reason.Code))
	}
	if !slices.Equal(got, want) {
		return r.assertf("reasons = %v, want %v", got, want)
	}
	return nil
}

func (r *Runner) runExpectReadyStep(ctx context.Context, state *scenarioState, step Step) error {
	id, err := r.currentCharacter(state)
	if err != nil {
		return err
	}
	st, err := r.sheets.Status(ctx, id)
	if err != nil {
		return r.failf("status: %v", err)
	}
	want := optionalBool(step.Args, "ready", true)
	if st.Ready() != want {
		return r.assertf("ready = %t, want %t (reasons %v)", st.Ready(), want, st.Reasons)
	}
	return nil
}
