package settings

import (
	"errors"
	"testing"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/config"
)

func TestMigrationsEnabled(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		want bool
	}{
		{"default", Settings{}, true},
		{"enabled", Settings{Migrations: Bool(true)}, true},
		{"disabled", Settings{Migrations: Bool(false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.MigrationsEnabled(); got != tt.want {
				t.Errorf("MigrationsEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientVariants(t *testing.T) {
	opts, ok := Settings{}.Options()
	if !ok || opts != (ClientOptions{}) {
		t.Errorf("default Options() = %+v, %v", opts, ok)
	}

	s := Settings{Client: ClientOptions{DatasourceURL: "file:./test.db"}}
	if opts, ok := s.Options(); !ok || opts.DatasourceURL != "file:./test.db" {
		t.Errorf("Options() = %+v, %v", opts, ok)
	}
	if _, ok := s.Instance(); ok {
		t.Error("options settings should not report an instance")
	}

	client := struct{ name string }{"mine"}
	s = Settings{Client: ClientInstance{Instance: client}}
	if got, ok := s.Instance(); !ok || got != client {
		t.Errorf("Instance() = %v, %v", got, ok)
	}
	if _, ok := s.Options(); ok {
		t.Error("instance settings should not report options")
	}
}

func TestValidate(t *testing.T) {
	if err := (Settings{Client: ClientInstance{}}).Validate(); !errors.Is(err, ErrNilInstance) {
		t.Errorf("Validate() = %v, want ErrNilInstance", err)
	}
	if err := (Settings{}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	root := t.TempDir()
	t.Setenv("NEXUS_PRISMA_MIGRATIONS", "false")
	t.Setenv("NEXUS_PRISMA_CLIENT_DATASOURCE_URL", "file:./custom.db")
	if err := config.Initialize(root); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	s := FromConfig()
	if s.MigrationsEnabled() {
		t.Error("migrations should be disabled from the environment")
	}
	opts, _ := s.Options()
	if opts.DatasourceURL != "file:./custom.db" {
		t.Errorf("DatasourceURL = %q", opts.DatasourceURL)
	}
	if opts.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want default 10", opts.MaxOpenConns)
	}
}
