package domain

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/magemaker/internal/platform/errors"
	errori18n "github.com/louisbranch/magemaker/internal/platform/errors/i18n"
	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
	"github.com/louisbranch/magemaker/internal/services/sheet/render"
)

// Sheets is the slice of the sheet service the tools call.
type Sheets interface {
	Create(ctx context.Context, profile character.Profile) (app.Result, error)
	Get(ctx context.Context, characterID string) (app.Character, error)
	List(ctx context.Context, in app.ListInput) (app.ListResult, error)
	Export(ctx context.Context, characterID string, format render.Format, locale string) (string, error)
	Change(ctx context.Context, characterID string, req character.ChangeRequest) (app.Result, error)
	Quote(ctx context.Context, characterID string, req character.ChangeRequest) (character.Decision, error)
	SetPriority(ctx context.Context, characterID string, axis ruleset.Axis, category string, p ruleset.Priority) (app.Result, error)
	SelectAffinity(ctx context.Context, characterID, sphere string) (app.Result, error)
	Status(ctx context.Context, characterID string) (app.Status, error)
	Advance(ctx context.Context, characterID string) (app.Result, error)
	AwardExperience(ctx context.Context, characterID string, amount int, note string) (app.Result, error)
	SetMerit(ctx context.Context, characterID, name string, taken, override bool) (app.Result, error)
	SetFlaw(ctx context.Context, characterID, name string, taken, override bool) (app.Result, error)
}

// Settings carries per-server tool options.
type Settings struct {
	Locale string
}

// toolError turns a service error into a tool error with a localized message
// prefixed by its code.
func toolError(settings Settings, action string, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %s: %s", action, code, errori18n.Message(settings.Locale, err))
}

// commandResult converts a service result. Engine rejections come back as a
// decision with Accepted false instead of an error.
func commandResult(settings Settings, action string, res app.Result, err error) (CommandResult, error) {
	if err != nil {
		if _, ok := app.Rejection(err); !ok {
			return CommandResult{}, toolError(settings, action, err)
		}
		out := CommandResult{Decision: decisionView(res.Decision)}
		out.Decision.Message = errori18n.Message(settings.Locale, err)
		if res.Character.Sheet != nil {
			out.Character = sheetView(res.Character)
		}
		return out, nil
	}
	return CommandResult{Character: sheetView(res.Character), Decision: decisionView(res.Decision)}, nil
}

func parseTrait(kind, name string) (trait.Ref, error) {
	ref := trait.Ref{Kind: trait.Kind(strings.ToLower(strings.TrimSpace(kind))), Name: strings.TrimSpace(name)}
	if err := ref.Validate(); err != nil {
		return trait.Ref{}, err
	}
	return ref, nil
}

func parseAxis(s string) (ruleset.Axis, error) {
	switch axis := ruleset.Axis(strings.ToLower(strings.TrimSpace(s))); axis {
	case ruleset.AxisAttribute, ruleset.AxisAbility:
		return axis, nil
	}
	return "", fmt.Errorf("axis must be attribute or ability, got %q", s)
}
