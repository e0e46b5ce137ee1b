package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/render"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const sheetURIPrefix = "character://"

// CharacterSheetResourceTemplate defines the readable markdown sheet of a
// character.
func CharacterSheetResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "character_sheet",
		Title:       "Character sheet",
		Description: "Markdown character sheet. URI format: character://{character_id}/sheet",
		MIMEType:    "text/markdown",
		URITemplate: "character://{character_id}/sheet",
	}
}

// CharacterSheetResourceHandler renders the sheet named by the request URI.
func CharacterSheetResourceHandler(sheets Sheets, settings Settings) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("character ID is required; use URI format character://{character_id}/sheet")
		}
		uri := req.Params.URI
		characterID, err := parseSheetURI(uri)
		if err != nil {
			return nil, err
		}
		doc, err := sheets.Export(ctx, characterID, render.FormatMarkdown, settings.Locale)
		if err != nil {
			return nil, toolError(settings, "read character sheet", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc,
				},
			},
		}, nil
	}
}

func parseSheetURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, sheetURIPrefix)
	if !ok {
		return "", fmt.Errorf("invalid URI %q: expected character://{character_id}/sheet", uri)
	}
	characterID, ok := strings.CutSuffix(rest, "/sheet")
	if !ok || characterID == "" || strings.Contains(characterID, "/") {
		return "", fmt.Errorf("invalid URI %q: expected character://{character_id}/sheet", uri)
	}
	return characterID, nil
}
