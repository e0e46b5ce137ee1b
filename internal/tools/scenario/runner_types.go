package scenario

import (
	"context"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
)

// sheetService is the slice of the sheet service the runner drives.
type sheetService interface {
	Create(ctx context.Context, profile character.Profile) (app.Result, error)
	Get(ctx context.Context, characterID string) (app.Character, error)
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

type scenarioState struct {
	characters map[string]string
	current    string
}
