package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/portal"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/store"
)

type testEnv struct {
	server  *Server
	engine  *evolution.Coordinator
	store   *store.InMemorySnapshotStore
	dataDir string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()

	st := store.NewInMemorySnapshotStore()
	c := evolution.New(st,
		evolution.WithIdentities([]portal.Identity{
			portal.IdentityFor(models.ArchetypeBanker),
			portal.IdentityFor(models.ArchetypeMark),
			portal.IdentityFor(models.ArchetypeCode),
		}),
		evolution.WithRand(evolution.NewSeededRand(7)),
		evolution.WithSaveProbability(0),
	)
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { c.Stop(context.Background()) })

	server, err := NewServer(c, &Config{
		Name:      "test-server",
		Version:   "v1.0.0",
		DataDir:   filepath.Join(tmpDir, "data"),
		BackupDir: filepath.Join(tmpDir, "backups"),
		Compress:  true,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return &testEnv{server: server, engine: c, store: st, dataDir: filepath.Join(tmpDir, "data")}
}

func TestNewServer(t *testing.T) {
	env := setupTestServer(t)

	if env.server.server == nil {
		t.Error("Server.server is nil")
	}
	if env.server.auditLogger == nil {
		t.Error("expected auditLogger to be initialized")
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, AuditFile)); err != nil {
		t.Errorf("audit log not created: %v", err)
	}
	if len(env.server.toolLimiters) == 0 {
		t.Error("tool limiters not configured")
	}
}

func TestNewServer_RequiresEngine(t *testing.T) {
	if _, err := NewServer(nil, &Config{}); err == nil {
		t.Error("NewServer(nil) should fail")
	}
}

func TestNewServer_NoDataDirDisablesAudit(t *testing.T) {
	env := setupTestServer(t)

	s, err := NewServer(env.engine, &Config{BackupDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer s.Close()

	if s.auditLogger != nil {
		t.Error("auditLogger should be nil without a data dir")
	}
	if s.cfg.Name != "lumaura" {
		t.Errorf("default name = %q, want lumaura", s.cfg.Name)
	}
}

// connect wires a client to the server over an in-memory transport.
func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestServer_ListsTools(t *testing.T) {
	env := setupTestServer(t)
	session := connect(t, env.server)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}

	want := map[string]bool{
		"portal_list": false, "portal_status": false, "portal_record_activity": false,
		"portal_recommendations": false, "portal_recommend": false, "portal_implement": false,
		"portal_snapshot": false, "portal_backup": false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestServer_SelfRecommendationIsToolError(t *testing.T) {
	env := setupTestServer(t)
	session := connect(t, env.server)

	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{
		Name: "portal_recommend",
		Arguments: map[string]any{
			"source_portal": "xuvemark",
			"target_portal": "xuvemark",
			"type":          "Collaboration Opportunity",
		},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !res.IsError {
		t.Error("self-recommendation should be reported as a tool error")
	}
	if total, _ := env.engine.RecommendationCounts(); total != 0 {
		t.Errorf("ledger size = %d, want 0", total)
	}
}

func TestServer_ReadsOverviewResource(t *testing.T) {
	env := setupTestServer(t)
	session := connect(t, env.server)

	res, err := session.ReadResource(context.Background(), &sdk.ReadResourceParams{URI: overviewURI})
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].MIMEType != "text/markdown" {
		t.Fatalf("ReadResource() contents = %+v", res.Contents)
	}
}
