package domain

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newSheets(t *testing.T) *app.Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	rules, err := ruleset.Default()
	if err != nil {
		t.Fatalf("load ruleset: %v", err)
	}
	svc, err := app.New(store, rules, app.Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func createCharacter(t *testing.T, sheets Sheets) string {
	t.Helper()
	_, out, err := CharacterCreateHandler(sheets, Settings{})(context.Background(), nil, CharacterCreateInput{
		Name:    "Marcus",
		Faction: "Traditions",
		Group:   "Order of Hermes",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !out.Decision.Accepted || out.Character == nil {
		t.Fatalf("create result = %+v, want accepted with character", out)
	}
	return out.Character.ID
}

func TestCreateAndGet(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)

	_, view, err := CharacterGetHandler(sheets, Settings{})(context.Background(), nil, CharacterIDInput{CharacterID: id})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Regime != "creation" {
		t.Fatalf("regime = %q, want creation", view.Regime)
	}
	if view.Profile.Group != "Order of Hermes" {
		t.Fatalf("group = %q, want Order of Hermes", view.Profile.Group)
	}
	if view.Attributes["Strength"] != 1 {
		t.Fatalf("strength = %d, want 1", view.Attributes["Strength"])
	}
}

func TestCreateRejectionIsAResult(t *testing.T) {
	sheets := newSheets(t)
	_, out, err := CharacterCreateHandler(sheets, Settings{})(context.Background(), nil, CharacterCreateInput{Name: "X", Faction: "Nephandi"})
	if err != nil {
		t.Fatalf("rejection should not be a tool error: %v", err)
	}
	if out.Decision.Accepted || out.Decision.Code != "INVALID_VALUE" {
		t.Fatalf("decision = %+v, want INVALID_VALUE rejection", out.Decision)
	}
	if out.Character != nil {
		t.Fatalf("rejected create should not return a character: %+v", out.Character)
	}
}

func TestTraitChangeReportsRejectionCode(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)
	change := TraitChangeHandler(sheets, Settings{})

	_, out, err := change(context.Background(), nil, TraitChangeInput{CharacterID: id, Kind: "attribute", Name: "strength", Rating: 3})
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if !out.Decision.Accepted || out.Decision.To != 3 || out.Character.Attributes["Strength"] != 3 {
		t.Fatalf("change = %+v, want strength 3", out)
	}

	_, out, err = change(context.Background(), nil, TraitChangeInput{CharacterID: id, Kind: "attribute", Name: "Strength", Rating: 0})
	if err != nil {
		t.Fatalf("rejection should not be a tool error: %v", err)
	}
	if out.Decision.Accepted || out.Decision.Code != "BELOW_FLOOR" {
		t.Fatalf("decision = %+v, want BELOW_FLOOR", out.Decision)
	}
	if out.Decision.Metadata["floor"] != "1" {
		t.Fatalf("metadata = %v, want floor 1", out.Decision.Metadata)
	}
	if out.Character == nil || out.Character.Attributes["Strength"] != 3 {
		t.Fatalf("rejected change should leave strength at 3: %+v", out.Character)
	}

	if _, _, err := change(context.Background(), nil, TraitChangeInput{CharacterID: id, Kind: "charm", Name: "x", Rating: 1}); err == nil {
		t.Fatal("expected error for unknown trait kind")
	}
}

func TestUnknownCharacterIsToolError(t *testing.T) {
	sheets := newSheets(t)
	_, _, err := CharacterGetHandler(sheets, Settings{})(context.Background(), nil, CharacterIDInput{CharacterID: "aaaaaaaaaaaaaaaaaaaaaaaaaa"})
	if err == nil {
		t.Fatal("expected error for unknown character")
	}
	if !strings.Contains(err.Error(), "CHARACTER_NOT_FOUND") || !strings.Contains(err.Error(), "No character exists") {
		t.Fatalf("error = %q, want localized not found", err)
	}

	_, _, err = CharacterGetHandler(sheets, Settings{Locale: "pt-BR"})(context.Background(), nil, CharacterIDInput{CharacterID: "aaaaaaaaaaaaaaaaaaaaaaaaaa"})
	if err == nil || !strings.Contains(err.Error(), "Nenhum personagem") {
		t.Fatalf("error = %v, want pt-BR message", err)
	}
}

func TestQuoteAndStatus(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)

	_, d, err := CostQuoteHandler(sheets, Settings{})(context.Background(), nil, TraitChangeInput{CharacterID: id, Kind: "arete", Rating: 2})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !d.Accepted || d.Trait != "arete" || d.To != 2 {
		t.Fatalf("quote = %+v, want accepted arete 2", d)
	}

	_, st, err := RegimeStatusHandler(sheets, Settings{})(context.Background(), nil, CharacterIDInput{CharacterID: id})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Ready || st.Regime != "creation" || st.Remaining == nil {
		t.Fatalf("status = %+v, want blocked creation with remaining dots", st)
	}
	if st.Reasons[0].Code != "BACKGROUNDS_REMAINING" {
		t.Fatalf("first reason = %+v, want BACKGROUNDS_REMAINING", st.Reasons[0])
	}
	if len(st.AffinityOptions) == 0 {
		t.Fatal("expected affinity options for Order of Hermes")
	}

	_, adv, err := RegimeAdvanceHandler(sheets, Settings{})(context.Background(), nil, CharacterIDInput{CharacterID: id})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if adv.Decision.Accepted || adv.Decision.Code != "INVALID_TRANSITION" || len(adv.Decision.Reasons) == 0 {
		t.Fatalf("advance = %+v, want INVALID_TRANSITION with reasons", adv.Decision)
	}
}

func TestPriorityAndAffinity(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)
	set := PrioritySetHandler(sheets, Settings{})

	_, out, err := set(context.Background(), nil, PrioritySetInput{CharacterID: id, Axis: "attribute", Category: "Mental", Priority: "primary"})
	if err != nil {
		t.Fatalf("priority: %v", err)
	}
	if got := out.Character.Priorities["attribute:Mental"]; got != "primary" {
		t.Fatalf("priority = %q, want primary", got)
	}
	_, out, err = set(context.Background(), nil, PrioritySetInput{CharacterID: id, Axis: "attribute", Category: "Social", Priority: "primary"})
	if err != nil {
		t.Fatalf("duplicate priority should be a result: %v", err)
	}
	if out.Decision.Code != "DUPLICATE_PRIORITY" {
		t.Fatalf("code = %q, want DUPLICATE_PRIORITY", out.Decision.Code)
	}
	if _, _, err := set(context.Background(), nil, PrioritySetInput{CharacterID: id, Axis: "spheres", Category: "Mental", Priority: "primary"}); err == nil {
		t.Fatal("expected error for unknown axis")
	}
	if _, _, err := set(context.Background(), nil, PrioritySetInput{CharacterID: id, Axis: "attribute", Category: "Mental", Priority: "first"}); err == nil {
		t.Fatal("expected error for unknown priority")
	}

	_, out, err = AffinitySelectHandler(sheets, Settings{})(context.Background(), nil, AffinitySelectInput{CharacterID: id, Sphere: "Forces"})
	if err != nil {
		t.Fatalf("affinity: %v", err)
	}
	if out.Character.AffinitySphere != "Forces" {
		t.Fatalf("affinity = %q, want Forces", out.Character.AffinitySphere)
	}
}

func TestListExperienceAndQualities(t *testing.T) {
	sheets := newSheets(t)
	first := createCharacter(t, sheets)
	second := createCharacter(t, sheets)

	_, out, err := ExperienceAwardHandler(sheets, Settings{})(context.Background(), nil, ExperienceAwardInput{CharacterID: second, Amount: 5, Note: "session"})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if out.Character.ExperienceTotal != 5 {
		t.Fatalf("experience total = %d, want 5", out.Character.ExperienceTotal)
	}
	_, out, err = ExperienceAwardHandler(sheets, Settings{})(context.Background(), nil, ExperienceAwardInput{CharacterID: second, Amount: 0})
	if err != nil || out.Decision.Code != "INVALID_VALUE" {
		t.Fatalf("zero award = %+v, %v; want INVALID_VALUE", out.Decision, err)
	}

	_, list, err := CharacterListHandler(sheets, Settings{})(context.Background(), nil, CharacterListInput{Filter: "experience_total > 0"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, c := range list.Characters {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{second}, ids); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, _, err := CharacterListHandler(sheets, Settings{})(context.Background(), nil, CharacterListInput{Filter: "arete >"}); err == nil || !strings.Contains(err.Error(), "FILTER_INVALID") {
		t.Fatalf("error = %v, want FILTER_INVALID", err)
	}

	_, out, err = MeritSetHandler(sheets, Settings{})(context.Background(), nil, QualitySetInput{CharacterID: first, Name: "Ambidextrous", Taken: true})
	if err != nil || !out.Decision.Accepted {
		t.Fatalf("merit = %+v, %v", out.Decision, err)
	}
	if _, ok := out.Character.Merits["Ambidextrous"]; !ok {
		t.Fatalf("merits = %v, want Ambidextrous", out.Character.Merits)
	}
	_, out, err = FlawSetHandler(sheets, Settings{})(context.Background(), nil, QualitySetInput{CharacterID: first, Name: "Nightmares", Taken: true})
	if err != nil || !out.Decision.Accepted {
		t.Fatalf("flaw = %+v, %v", out.Decision, err)
	}
}

func TestExportFormats(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)
	export := CharacterExportHandler(sheets, Settings{})

	_, doc, err := export(context.Background(), nil, CharacterExportInput{CharacterID: id})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Format != "markdown" || !strings.Contains(doc.Document, "CHARACTER_DATA") {
		t.Fatalf("export = %+v, want markdown with data block", doc)
	}
	if _, _, err := export(context.Background(), nil, CharacterExportInput{CharacterID: id, Format: "pdf"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSheetResource(t *testing.T) {
	sheets := newSheets(t)
	id := createCharacter(t, sheets)
	handler := CharacterSheetResourceHandler(sheets, Settings{})

	res, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "character://" + id + "/sheet"}})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, "Marcus") {
		t.Fatalf("contents = %+v, want sheet for Marcus", res.Contents)
	}

	for _, uri := range []string{"campaign://x/sheet", "character:///sheet", "character://a/b/sheet", "character://" + id} {
		if _, err := parseSheetURI(uri); err == nil {
			t.Fatalf("parseSheetURI(%q) should fail", uri)
		}
	}
}
