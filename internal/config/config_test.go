package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitializeDefaults(t *testing.T) {
	root := t.TempDir()
	if err := Initialize(root); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if got := GetString("package-manager"); got != "go" {
		t.Errorf("package-manager = %q, want go", got)
	}
	if !GetBool("migrations") {
		t.Error("migrations should default to true")
	}
	if got := GetDuration("dev.restart-grace"); got != 3*time.Second {
		t.Errorf("dev.restart-grace = %v, want 3s", got)
	}
	if got := GetString("project-name"); got != filepath.Base(root) {
		t.Errorf("project-name = %q, want %q", got, filepath.Base(root))
	}
}

func TestInitializeReadsProjectFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "package-manager: yarn\ndev:\n  command: make run\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(root); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if got := GetString("package-manager"); got != "yarn" {
		t.Errorf("package-manager = %q, want yarn", got)
	}
	if got := GetString("dev.command"); got != "make run" {
		t.Errorf("dev.command = %q, want 'make run'", got)
	}
	if !strings.HasSuffix(ConfigFileUsed(), FileName) {
		t.Errorf("ConfigFileUsed() = %q", ConfigFileUsed())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NEXUS_PRISMA_DEV_COMMAND", "./bin/app")
	if err := Initialize(t.TempDir()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if got := GetString("dev.command"); got != "./bin/app" {
		t.Errorf("dev.command = %q, want ./bin/app", got)
	}
	if !IsSet("dev.command") {
		t.Error("IsSet(dev.command) should be true when env is set")
	}
}

func TestSetYamlConfig(t *testing.T) {
	root := t.TempDir()
	if err := Initialize(root); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if err := SetYamlConfig("migrations", "false"); err != nil {
		t.Fatalf("SetYamlConfig() failed: %v", err)
	}
	if err := SetYamlConfig("client.datasource-url", "file:./test.db"); err != nil {
		t.Fatalf("SetYamlConfig() failed: %v", err)
	}

	if GetBool("migrations") {
		t.Error("migrations should be false after set")
	}

	// A fresh load must see the persisted values.
	if err := Initialize(root); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if GetBool("migrations") {
		t.Error("migrations should be false after reload")
	}
	if got := GetString("client.datasource-url"); got != "file:./test.db" {
		t.Errorf("client.datasource-url = %q", got)
	}
}
