package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TraitChangeInput asks for a trait to reach a new rating.
type TraitChangeInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Kind        string `json:"kind" jsonschema:"attribute, ability, sphere, background, arete, willpower or quintessence"`
	Name        string `json:"name,omitempty" jsonschema:"trait name; omit for arete, willpower and quintessence"`
	Rating      int    `json:"rating" jsonschema:"target rating"`
	Override    bool   `json:"override,omitempty" jsonschema:"skip point costs (storyteller grant)"`
}

// PrioritySetInput assigns a tier to an attribute or ability category.
type PrioritySetInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Axis        string `json:"axis" jsonschema:"attribute or ability"`
	Category    string `json:"category" jsonschema:"category name, e.g. Physical or Talents"`
	Priority    string `json:"priority" jsonschema:"primary, secondary, tertiary or unset"`
}

// AffinitySelectInput picks the affinity sphere.
type AffinitySelectInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Sphere      string `json:"sphere,omitempty" jsonschema:"sphere name; empty clears the selection during creation"`
}

// ExperienceAwardInput grants experience points.
type ExperienceAwardInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Amount      int    `json:"amount" jsonschema:"points to award, must be positive"`
	Note        string `json:"note,omitempty" jsonschema:"reason for the award"`
}

// QualitySetInput takes or removes a merit or flaw.
type QualitySetInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Name        string `json:"name" jsonschema:"merit or flaw name"`
	Taken       bool   `json:"taken" jsonschema:"true to take, false to remove"`
	Override    bool   `json:"override,omitempty" jsonschema:"allow outside creation and freebie regimes"`
}

// StatusResult reports what blocks the next regime.
type StatusResult struct {
	Regime           string         `json:"regime"`
	Ready            bool           `json:"ready"`
	Reasons          []ReasonView   `json:"reasons,omitempty"`
	Remaining        *RemainingView `json:"remaining,omitempty"`
	FreebiePoints    int            `json:"freebie_points"`
	ExperiencePoints int            `json:"experience_points"`
	AffinityOptions  []string       `json:"affinity_options,omitempty"`
}

// RemainingView lists creation dots still to spend.
type RemainingView struct {
	Attributes  map[string]int `json:"attributes"`
	Abilities   map[string]int `json:"abilities"`
	Backgrounds int            `json:"backgrounds"`
	Spheres     int            `json:"spheres"`
}

// TraitChangeTool defines the MCP tool schema for changing a trait.
func TraitChangeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "trait_change",
		Description: "Sets a trait to a new rating, paying with the budget of the current regime",
	}
}

// CostQuoteTool defines the MCP tool schema for previewing a change.
func CostQuoteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cost_quote",
		Description: "Previews the cost and outcome of a trait change without applying it",
	}
}

// PrioritySetTool defines the MCP tool schema for category priorities.
func PrioritySetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_set",
		Description: "Assigns primary, secondary or tertiary priority to an attribute or ability category",
	}
}

// AffinitySelectTool defines the MCP tool schema for the affinity sphere.
func AffinitySelectTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "affinity_select",
		Description: "Selects the affinity sphere among the options of the character's group",
	}
}

// RegimeStatusTool defines the MCP tool schema for the advancement gate.
func RegimeStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "regime_status",
		Description: "Lists what must be resolved before the character can leave the current regime",
	}
}

// RegimeAdvanceTool defines the MCP tool schema for closing a regime.
func RegimeAdvanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "regime_advance",
		Description: "Closes the current regime and moves to freebie or experience spending",
	}
}

// ExperienceAwardTool defines the MCP tool schema for awarding experience.
func ExperienceAwardTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "experience_award",
		Description: "Awards experience points to a character",
	}
}

// MeritSetTool defines the MCP tool schema for merits.
func MeritSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "merit_set",
		Description: "Takes or removes a merit",
	}
}

// FlawSetTool defines the MCP tool schema for flaws.
func FlawSetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "flaw_set",
		Description: "Takes or removes a flaw",
	}
}

func changeRequest(input TraitChangeInput) (character.ChangeRequest, error) {
	ref, err := parseTrait(input.Kind, input.Name)
	if err != nil {
		return character.ChangeRequest{}, err
	}
	return character.ChangeRequest{Trait: ref, Rating: input.Rating, Override: input.Override}, nil
}

// TraitChangeHandler applies a trait change.
func TraitChangeHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[TraitChangeInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TraitChangeInput) (*mcp.CallToolResult, CommandResult, error) {
		req, err := changeRequest(input)
		if err != nil {
			return nil, CommandResult{}, err
		}
		res, err := sheets.Change(ctx, input.CharacterID, req)
		out, err := commandResult(settings, "change trait", res, err)
		return nil, out, err
	}
}

// CostQuoteHandler previews a trait change.
func CostQuoteHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[TraitChangeInput, DecisionView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TraitChangeInput) (*mcp.CallToolResult, DecisionView, error) {
		req, err := changeRequest(input)
		if err != nil {
			return nil, DecisionView{}, err
		}
		d, err := sheets.Quote(ctx, input.CharacterID, req)
		if err != nil {
			return nil, DecisionView{}, toolError(settings, "quote change", err)
		}
		return nil, decisionView(d), nil
	}
}

// PrioritySetHandler assigns a category priority.
func PrioritySetHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[PrioritySetInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PrioritySetInput) (*mcp.CallToolResult, CommandResult, error) {
		axis, err := parseAxis(input.Axis)
		if err != nil {
			return nil, CommandResult{}, err
		}
		p, ok := ruleset.ParsePriority(input.Priority)
		if !ok {
			return nil, CommandResult{}, fmt.Errorf("priority must be primary, secondary, tertiary or unset, got %q", input.Priority)
		}
		res, err := sheets.SetPriority(ctx, input.CharacterID, axis, input.Category, p)
		out, err := commandResult(settings, "set priority", res, err)
		return nil, out, err
	}
}

// AffinitySelectHandler selects the affinity sphere.
func AffinitySelectHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[AffinitySelectInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AffinitySelectInput) (*mcp.CallToolResult, CommandResult, error) {
		res, err := sheets.SelectAffinity(ctx, input.CharacterID, input.Sphere)
		out, err := commandResult(settings, "select affinity", res, err)
		return nil, out, err
	}
}

// RegimeStatusHandler reports the advancement gate.
func RegimeStatusHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterIDInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterIDInput) (*mcp.CallToolResult, StatusResult, error) {
		st, err := sheets.Status(ctx, input.CharacterID)
		if err != nil {
			return nil, StatusResult{}, toolError(settings, "regime status", err)
		}
		return nil, statusResult(st), nil
	}
}

func statusResult(st app.Status) StatusResult {
	out := StatusResult{
		Regime:           string(st.Regime),
		Ready:            st.Ready(),
		Reasons:          reasonViews(st.Reasons),
		FreebiePoints:    st.FreebiePoints,
		ExperiencePoints: st.ExperiencePoints,
		AffinityOptions:  st.AffinityOptions,
	}
	if st.Regime == character.RegimeCreation {
		out.Remaining = &RemainingView{
			Attributes:  st.Remaining.Attributes,
			Abilities:   st.Remaining.Abilities,
			Backgrounds: st.Remaining.Backgrounds,
			Spheres:     st.Remaining.Spheres,
		}
	}
	return out
}

// RegimeAdvanceHandler closes the current regime.
func RegimeAdvanceHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterIDInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterIDInput) (*mcp.CallToolResult, CommandResult, error) {
		res, err := sheets.Advance(ctx, input.CharacterID)
		out, err := commandResult(settings, "advance regime", res, err)
		return nil, out, err
	}
}

// ExperienceAwardHandler awards experience.
func ExperienceAwardHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[ExperienceAwardInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExperienceAwardInput) (*mcp.CallToolResult, CommandResult, error) {
		res, err := sheets.AwardExperience(ctx, input.CharacterID, input.Amount, input.Note)
		out, err := commandResult(settings, "award experience", res, err)
		return nil, out, err
	}
}

// MeritSetHandler takes or removes a merit.
func MeritSetHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[QualitySetInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QualitySetInput) (*mcp.CallToolResult, CommandResult, error) {
		res, err := sheets.SetMerit(ctx, input.CharacterID, input.Name, input.Taken, input.Override)
		out, err := commandResult(settings, "set merit", res, err)
		return nil, out, err
	}
}

// FlawSetHandler takes or removes a flaw.
func FlawSetHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[QualitySetInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QualitySetInput) (*mcp.CallToolResult, CommandResult, error) {
		res, err := sheets.SetFlaw(ctx, input.CharacterID, input.Name, input.Taken, input.Override)
		out, err := commandResult(settings, "set flaw", res, err)
		return nil, out, err
	}
}
