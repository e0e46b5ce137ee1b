package scenario

import (
	"context"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
)

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func (r *Runner) currentCharacter(state *scenarioState) (string, error) {
	if state.current == "" {
		return "", r.failf("no character yet; call scene:character first")
	}
	return state.characters[state.current], nil
}

func (r *Runner) currentSheet(ctx context.Context, state *scenarioState) (*character.Sheet, error) {
	id, err := r.currentCharacter(state)
	if err != nil {
		return nil, err
	}
	c, err := r.sheets.Get(ctx, id)
	if err != nil {
		return nil, r.failf("get character %s: %v", state.current, err)
	}
	return c.Sheet, nil
}

func (r *Runner) changeRequest(step Step) (character.ChangeRequest, error) {
	ref, err := trait.ParseKey(requiredString(step.Args, "trait"))
	if err != nil {
		return character.ChangeRequest{}, r.failf("%s: %v", step.Kind, err)
	}
	rating, ok := readInt(step.Args, "rating")
	if !ok {
		return character.ChangeRequest{}, r.failf("%s: rating is required", step.Kind)
	}
	return character.ChangeRequest{
		Trait:    ref,
		Rating:   rating,
		Override: optionalBool(step.Args, "override", false),
	}, nil
}

// checkDecision compares a command outcome with the step's expectations:
// expect (rejection code), cost, to and adjustments. Without expect the
// command must be accepted.
func (r *Runner) checkDecision(step Step, d character.Decision, err error) error {
	if err != nil {
		rej, ok := app.Rejection(err)
		if !ok {
			return r.failf("%s: %v", step.Kind, err)
		}
		if d.Rejection == nil {
			d.Rejection = rej
		}
	}

	want := strings.ToUpper(optionalString(step.Args, "expect", ""))
	switch {
	case want == "" && !d.Accepted():
		return r.assertf("%s rejected with %s: %s", step.Kind, d.Rejection.Code, d.Rejection.Message)
	case want != "" && d.Accepted():
		return r.assertf("%s accepted, want %s", step.Kind, want)
	case want != "" && string(d.Rejection.Code) != want:
		return r.assertf("%s rejected with %s, want %s", step.Kind, d.Rejection.Code, want)
	}

	if cost, ok := readInt(step.Args, "cost"); ok && d.Cost != cost {
		return r.assertf("%s cost = %d, want %d", step.Kind, d.Cost, cost)
	}
	if to, ok := readInt(step.Args, "to"); ok && d.To != to {
		return r.assertf("%s applied rating = %d, want %d", step.Kind, d.To, to)
	}
	if n, ok := readInt(step.Args, "adjustments"); ok && len(d.Adjustments) != n {
		return r.assertf("%s adjustments = %d, want %d", step.Kind, len(d.Adjustments), n)
	}
	return nil
}

func requiredString(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return ""
}

func readInt(args map[string]any, key string) (int, bool) {
	value, ok := args[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case int:
		return typed, true
	case float64:
		return int(typed), true
	default:
		return 0, false
	}
}

func optionalString(args map[string]any, key, fallback string) string {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	text, ok := value.(string)
	if ok && text != "" {
		return text
	}
	return fallback
}

func optionalBool(args map[string]any, key string, fallback bool) bool {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		lower := strings.ToLower(strings.TrimSpace(typed))
		if lower == "true" || lower == "yes" || lower == "1" {
			return true
		}
		if lower == "false" || lower == "no" || lower == "0" {
			return false
		}
	}
	return fallback
}

func readStringSlice(args map[string]any, key string) []string {
	value, ok := args[key]
	if !ok || value == nil {
		return nil
	}
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
				out = append(out, strings.TrimSpace(text))
			}
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{strings.TrimSpace(typed)}
	}
	return nil
}
