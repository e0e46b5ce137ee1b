package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/render"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CharacterCreateInput is the identity of a new character.
type CharacterCreateInput struct {
	Name        string   `json:"name" jsonschema:"character name"`
	Player      string   `json:"player,omitempty" jsonschema:"player name"`
	Chronicle   string   `json:"chronicle,omitempty" jsonschema:"chronicle name"`
	Concept     string   `json:"concept,omitempty" jsonschema:"character concept"`
	Faction     string   `json:"faction,omitempty" jsonschema:"faction, e.g. Traditions or Technocratic Union"`
	Group       string   `json:"group,omitempty" jsonschema:"tradition, convention or craft within the faction"`
	Essence     string   `json:"essence,omitempty" jsonschema:"avatar essence"`
	Nature      string   `json:"nature,omitempty" jsonschema:"nature archetype"`
	Demeanor    string   `json:"demeanor,omitempty" jsonschema:"demeanor archetype"`
	Paradigm    string   `json:"paradigm,omitempty" jsonschema:"paradigm"`
	Practice    string   `json:"practice,omitempty" jsonschema:"practice"`
	Instruments []string `json:"instruments,omitempty" jsonschema:"instruments of the practice"`
}

// CharacterIDInput names one stored character.
type CharacterIDInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
}

// CharacterListInput selects a page of characters.
type CharacterListInput struct {
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum characters to return (default 20, max 100)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous call"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over name, regime, faction, group, arete and experience_total"`
}

// CharacterSummary is one listed character.
type CharacterSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Regime          string `json:"regime"`
	Faction         string `json:"faction,omitempty"`
	Group           string `json:"group,omitempty"`
	Arete           int    `json:"arete"`
	ExperienceTotal int    `json:"experience_total"`
	UpdatedAt       string `json:"updated_at"`
}

// CharacterListResult is one page of characters.
type CharacterListResult struct {
	Characters    []CharacterSummary `json:"characters"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// CharacterExportInput selects the export format.
type CharacterExportInput struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Format      string `json:"format,omitempty" jsonschema:"markdown (default), text or json"`
}

// CharacterExportResult carries the rendered sheet.
type CharacterExportResult struct {
	Format   string `json:"format"`
	Document string `json:"document"`
}

// CharacterCreateTool defines the MCP tool schema for creating characters.
func CharacterCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_create",
		Description: "Creates a character in the creation regime with all attributes at 1",
	}
}

// CharacterGetTool defines the MCP tool schema for reading a character.
func CharacterGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_get",
		Description: "Returns the full sheet of a character",
	}
}

// CharacterListTool defines the MCP tool schema for listing characters.
func CharacterListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_list",
		Description: "Lists characters newest first with optional filtering",
	}
}

// CharacterExportTool defines the MCP tool schema for exporting a sheet.
func CharacterExportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "character_export",
		Description: "Renders a character sheet as markdown, text or JSON",
	}
}

// CharacterCreateHandler executes character creation.
func CharacterCreateHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterCreateInput, CommandResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterCreateInput) (*mcp.CallToolResult, CommandResult, error) {
		profile := character.Profile{
			Name:        input.Name,
			Player:      input.Player,
			Chronicle:   input.Chronicle,
			Concept:     input.Concept,
			Faction:     input.Faction,
			Group:       input.Group,
			Essence:     input.Essence,
			Nature:      input.Nature,
			Demeanor:    input.Demeanor,
			Paradigm:    input.Paradigm,
			Practice:    input.Practice,
			Instruments: input.Instruments,
		}
		res, err := sheets.Create(ctx, profile)
		out, err := commandResult(settings, "create character", res, err)
		return nil, out, err
	}
}

// CharacterGetHandler returns one character.
func CharacterGetHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterIDInput, SheetView] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterIDInput) (*mcp.CallToolResult, SheetView, error) {
		c, err := sheets.Get(ctx, input.CharacterID)
		if err != nil {
			return nil, SheetView{}, toolError(settings, "get character", err)
		}
		return nil, *sheetView(c), nil
	}
}

// CharacterListHandler lists characters.
func CharacterListHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterListInput, CharacterListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterListInput) (*mcp.CallToolResult, CharacterListResult, error) {
		page, err := sheets.List(ctx, app.ListInput{
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
			Filter:    input.Filter,
		})
		if err != nil {
			return nil, CharacterListResult{}, toolError(settings, "list characters", err)
		}
		out := CharacterListResult{
			Characters:    make([]CharacterSummary, 0, len(page.Characters)),
			NextPageToken: page.NextPageToken,
		}
		for _, c := range page.Characters {
			out.Characters = append(out.Characters, CharacterSummary{
				ID:              c.ID,
				Name:            c.Name,
				Regime:          string(c.Regime),
				Faction:         c.Faction,
				Group:           c.Group,
				Arete:           c.Arete,
				ExperienceTotal: c.ExperienceTotal,
				UpdatedAt:       formatTime(c.UpdatedAt),
			})
		}
		return nil, out, nil
	}
}

// CharacterExportHandler renders a character sheet.
func CharacterExportHandler(sheets Sheets, settings Settings) mcp.ToolHandlerFor[CharacterExportInput, CharacterExportResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CharacterExportInput) (*mcp.CallToolResult, CharacterExportResult, error) {
		format, ok := render.ParseFormat(strings.TrimSpace(input.Format))
		if !ok {
			return nil, CharacterExportResult{}, fmt.Errorf("format must be markdown, text or json, got %q", input.Format)
		}
		doc, err := sheets.Export(ctx, input.CharacterID, format, settings.Locale)
		if err != nil {
			return nil, CharacterExportResult{}, toolError(settings, "export character", err)
		}
		return nil, CharacterExportResult{Format: string(format), Document: doc}, nil
	}
}
