package runtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/graphql-nexus/nexus-plugin-prisma/settings"
)

const sqliteSchema = `datasource db {
  provider = "sqlite"
  url      = env("DATABASE_URL")
}

generator prisma_client {
  provider = "go run github.com/steebchen/prisma-client-go"
  output   = "../db"
}

model World {
  id   Int    @id
  name String
}
`

func writeSchema(t *testing.T, root, content string) string {
	t.Helper()
	path := filepath.Join(root, "prisma", "schema.prisma")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(root string) Options {
	return Options{ProjectRoot: root, Warnings: io.Discard, Log: logging.Discard()}
}

func TestPluginWithInstance(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, root, sqliteSchema)

	type fakeClient struct{ name string }
	client := &fakeClient{name: "mine"}

	c, err := New(context.Background(), settings.Settings{Client: settings.ClientInstance{Instance: client}}, testOptions(root))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got := c.Context.Create(httptest.NewRequest(http.MethodGet, "/", nil))[ContextKey]; got != client {
		t.Errorf("Create()[db] = %v, want the instance", got)
	}
	if diff := cmp.Diff(map[string]string{"db": "*db.PrismaClient"}, c.Context.TypeGenFields); diff != "" {
		t.Errorf("TypeGenFields mismatch (-want +got):\n%s", diff)
	}
	want := []TypeGenSource{{Source: filepath.Join(root, "db"), Alias: "prisma"}}
	if diff := cmp.Diff(want, c.Schema.TypeGenSources); diff != "" {
		t.Errorf("TypeGenSources mismatch (-want +got):\n%s", diff)
	}
	if c.Schema.Checker == nil {
		t.Fatal("Expected a field checker")
	}

	var seen any
	handler := c.Context.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DB(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/graphql", nil))
	if seen != client {
		t.Errorf("DB() in handler = %v, want the instance", seen)
	}
}

func TestPluginWithoutSchema(t *testing.T) {
	c, err := New(context.Background(), settings.Settings{Client: settings.ClientInstance{Instance: "client"}}, testOptions(t.TempDir()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if c.Schema.Checker != nil || c.Schema.TypeGenSources != nil {
		t.Errorf("Expected no schema contribution, got %+v", c.Schema)
	}
}

func TestPluginNilInstance(t *testing.T) {
	_, err := New(context.Background(), settings.Settings{Client: settings.ClientInstance{}}, testOptions(t.TempDir()))
	if !errors.Is(err, settings.ErrNilInstance) {
		t.Errorf("New() error = %v, want ErrNilInstance", err)
	}
}

func TestSharedClient(t *testing.T) {
	t.Cleanup(func() { _ = CloseClient() })

	root := t.TempDir()
	writeSchema(t, root, sqliteSchema)
	t.Setenv("DATABASE_URL", "file:./dev.db")

	ctx := context.Background()
	first, err := Client(ctx, settings.Settings{}, root)
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	conn, ok := first.(*Conn)
	if !ok {
		t.Fatalf("Client() = %T, want *Conn", first)
	}
	if conn.Driver() != "sqlite3" {
		t.Errorf("Driver() = %q, want sqlite3", conn.Driver())
	}
	if _, err := os.Stat(filepath.Join(root, "prisma", "dev.db")); err != nil {
		t.Errorf("Expected database next to the schema: %v", err)
	}

	c, err := New(ctx, settings.Settings{}, testOptions(root))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := c.Context.Create(nil)[ContextKey]; got != first {
		t.Error("Runtime plugin should share the process client")
	}

	if err := CloseClient(); err != nil {
		t.Fatalf("CloseClient() failed: %v", err)
	}
	second, err := Client(ctx, settings.Settings{Client: settings.ClientOptions{DatasourceURL: "file:./other.db"}}, root)
	if err != nil {
		t.Fatalf("Client() after close failed: %v", err)
	}
	if second == first {
		t.Error("Expected a new client after CloseClient")
	}
	if _, err := os.Stat(filepath.Join(root, "prisma", "other.db")); err != nil {
		t.Errorf("Expected the datasource override to be used: %v", err)
	}
}

func TestClientNoDatasource(t *testing.T) {
	t.Cleanup(func() { _ = CloseClient() })
	t.Setenv("DATABASE_URL", "")

	_, err := Client(context.Background(), settings.Settings{}, t.TempDir())
	if !errors.Is(err, ErrNoDatasource) {
		t.Errorf("Client() error = %v, want ErrNoDatasource", err)
	}
}

func TestClientUnsetEnvVar(t *testing.T) {
	t.Cleanup(func() { _ = CloseClient() })
	t.Setenv("DATABASE_URL", "")

	root := t.TempDir()
	writeSchema(t, root, sqliteSchema)

	_, err := Client(context.Background(), settings.Settings{}, root)
	if err == nil {
		t.Fatal("Client() with an unset datasource variable should fail")
	}
}

func TestDBWithoutMiddleware(t *testing.T) {
	if got := DB(context.Background()); got != nil {
		t.Errorf("DB() = %v, want nil", got)
	}
}
