package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/magemaker/internal/services/mcp/domain"
	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc, closeStore, err := app.Open(app.StoreConfig{DBPath: filepath.Join(t.TempDir(), "mcp.db")}, app.Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	t.Cleanup(func() { _ = closeStore() })
	srv, err := New(svc, domain.Settings{Locale: "en-US"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func connectInMemory(t *testing.T, ctx context.Context, srv *Server) *mcp.ClientSession {
	t.Helper()
	t1, t2 := mcp.NewInMemoryTransports()
	serverSession, err := srv.mcpServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *mcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("call %s returned error: %s", name, resultText(res))
	}
	if err := json.Unmarshal([]byte(resultText(res)), out); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestNewRequiresSheets(t *testing.T) {
	if _, err := New(nil, domain.Settings{}); err == nil {
		t.Fatal("expected error for nil sheet service")
	}
}

func TestToolDiscovery(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"character_create", "character_get", "character_list", "character_export",
		"trait_change", "cost_quote", "priority_set", "affinity_select",
		"regime_status", "regime_advance", "experience_award", "merit_set", "flaw_set",
	} {
		if !slices.Contains(names, want) {
			t.Fatalf("tools = %v, missing %s", names, want)
		}
	}
}

func TestCreateChangeAndRead(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	var created domain.CommandResult
	callTool(t, ctx, session, "character_create", map[string]any{
		"name": "Marcus", "faction": "Traditions", "group": "Order of Hermes",
	}, &created)
	if created.Character == nil || created.Character.ID == "" {
		t.Fatalf("create = %+v, want character id", created)
	}
	id := created.Character.ID

	var changed domain.CommandResult
	callTool(t, ctx, session, "trait_change", map[string]any{
		"character_id": id, "kind": "attribute", "name": "Wits", "rating": 3,
	}, &changed)
	if !changed.Decision.Accepted || changed.Character.Attributes["Wits"] != 3 {
		t.Fatalf("change = %+v, want wits 3", changed)
	}

	var rejected domain.CommandResult
	callTool(t, ctx, session, "trait_change", map[string]any{
		"character_id": id, "kind": "attribute", "name": "Wits", "rating": 0,
	}, &rejected)
	if rejected.Decision.Accepted || rejected.Decision.Code != "BELOW_FLOOR" {
		t.Fatalf("wits 0 = %+v, want BELOW_FLOOR", rejected.Decision)
	}

	var status domain.StatusResult
	callTool(t, ctx, session, "regime_status", map[string]any{"character_id": id}, &status)
	if status.Ready || status.Regime != "creation" {
		t.Fatalf("status = %+v, want blocked creation", status)
	}

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "character://" + id + "/sheet"})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, "Marcus") {
		t.Fatalf("resource = %+v, want sheet for Marcus", res.Contents)
	}
}

func TestUnknownCharacterIsToolError(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "character_get",
		Arguments: map[string]any{"character_id": "aaaaaaaaaaaaaaaaaaaaaaaaaa"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(res), "CHARACTER_NOT_FOUND") {
		t.Fatalf("result = %+v, want CHARACTER_NOT_FOUND tool error", res)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	t1, _ := mcp.NewInMemoryTransports()

	done := make(chan error, 1)
	go func() { done <- srv.serveWithTransport(ctx, t1) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestServeRequiresServer(t *testing.T) {
	var srv *Server
	if err := srv.serveWithTransport(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil server")
	}
}
