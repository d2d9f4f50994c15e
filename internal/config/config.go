// Package config loads nexus-prisma settings with viper.
//
// Precedence: flags (applied by the caller) > NEXUS_PRISMA_* environment
// variables > .nexus-prisma/config.yaml in the project > user config file >
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-project directory holding config, locks and logs.
const DirName = ".nexus-prisma"

// FileName is the config file name inside DirName.
const FileName = "config.yaml"

var (
	mu sync.RWMutex
	v  *viper.Viper

	projectRoot string
)

// Initialize sets up the viper instance for the project rooted at root.
// It is safe to call more than once; each call starts from a clean slate.
func Initialize(root string) error {
	mu.Lock()
	defer mu.Unlock()

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	projectRoot = abs

	v = viper.New()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(abs, DirName))
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "nexus-prisma"))
	}

	v.SetEnvPrefix("NEXUS_PRISMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v, abs)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, root string) {
	v.SetDefault("package-manager", "go")
	v.SetDefault("project-name", filepath.Base(root))
	v.SetDefault("source-dir", ".")
	v.SetDefault("migrations", true)
	v.SetDefault("client.datasource-url", "")
	v.SetDefault("client.max-open-conns", 10)
	v.SetDefault("prisma.version", "2.0.0")
	v.SetDefault("prisma.cli", "")
	v.SetDefault("generator.provider", "go run github.com/steebchen/prisma-client-go")
	v.SetDefault("dev.command", "go run .")
	v.SetDefault("dev.restart-grace", 3*time.Second)
	v.SetDefault("build.command", "go build ./...")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max-size-mb", 10)
}

func instance() *viper.Viper {
	mu.RLock()
	cur := v
	mu.RUnlock()
	if cur != nil {
		return cur
	}
	// Fall back to the working directory when nobody called Initialize.
	wd, _ := os.Getwd()
	if err := Initialize(wd); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}
	mu.RLock()
	defer mu.RUnlock()
	return v
}

// ProjectRoot returns the root passed to Initialize.
func ProjectRoot() string {
	instance()
	mu.RLock()
	defer mu.RUnlock()
	return projectRoot
}

// GetString returns a string value.
func GetString(key string) string { return instance().GetString(key) }

// GetBool returns a bool value.
func GetBool(key string) bool { return instance().GetBool(key) }

// GetInt returns an int value.
func GetInt(key string) int { return instance().GetInt(key) }

// GetDuration returns a duration value.
func GetDuration(key string) time.Duration { return instance().GetDuration(key) }

// IsSet reports whether key has a value from any source other than defaults.
func IsSet(key string) bool { return instance().InConfig(key) || envSet(key) }

func envSet(key string) bool {
	name := "NEXUS_PRISMA_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	_, ok := os.LookupEnv(name)
	return ok
}

// Set overrides a value for the lifetime of the process.
func Set(key string, value interface{}) { instance().Set(key, value) }

// AllSettings returns every known key with its effective value.
func AllSettings() map[string]interface{} { return instance().AllSettings() }

// ConfigFileUsed returns the config file that was read, if any.
func ConfigFileUsed() string { return instance().ConfigFileUsed() }

// ProjectConfigPath returns the path of the project config file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectRoot(), DirName, FileName)
}

// SetYamlConfig persists key=value into the project config file and
// updates the in-memory value. Dotted keys create nested maps.
func SetYamlConfig(key, value string) error {
	path := ProjectConfigPath()

	doc := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	typed := parseScalar(value)
	setNested(doc, strings.Split(key, "."), typed)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	Set(key, typed)
	return nil
}

// parseScalar lets yaml decide whether value is a bool, number or string.
func parseScalar(value string) interface{} {
	var out interface{}
	if err := yaml.Unmarshal([]byte(value), &out); err != nil || out == nil {
		return value
	}
	switch out.(type) {
	case map[string]interface{}, []interface{}:
		return value
	}
	return out
}

func setNested(m map[string]interface{}, path []string, value interface{}) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[path[0]] = child
	}
	setNested(child, path[1:], value)
}
