package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/psl"
)

// Known client generator providers.
const (
	ProviderClientGo = "prisma-client-go"
	ProviderClientJS = "prisma-client-js"
)

// manifest is what a generator ships with: its display name and where it
// writes when the schema does not say.
type manifest struct {
	prettyName    string
	defaultOutput string
}

var manifests = map[string]manifest{
	ProviderClientGo: {prettyName: "Prisma Client Go", defaultOutput: "./db"},
	ProviderClientJS: {prettyName: "Prisma Client JS", defaultOutput: "node_modules/@prisma/client"},
}

// Settings are the resolved settings of one generator block: the
// generator's manifest merged with the user's overrides.
type Settings struct {
	Name         string
	InstanceName string
	Provider     string
	Output       string
}

func (s Settings) String() string {
	return fmt.Sprintf("{name: %q, instanceName: %q, output: %q}", s.Name, s.InstanceName, s.Output)
}

// canonicalProvider maps the ways a provider can be written to its
// manifest key. "go run github.com/steebchen/prisma-client-go" and
// "prisma-client-go" are the same generator.
func canonicalProvider(provider string) string {
	fields := strings.Fields(provider)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if i := strings.LastIndex(last, "/"); i >= 0 {
		last = last[i+1:]
	}
	if _, ok := manifests[last]; ok {
		return last
	}
	return provider
}

// IsClientProvider reports whether provider generates a Prisma Client.
func IsClientProvider(provider string) bool {
	switch canonicalProvider(provider) {
	case ProviderClientGo, ProviderClientJS:
		return true
	}
	return false
}

// Resolve computes the settings of a parsed generator block.
func Resolve(b psl.Block) Settings {
	provider := b.Value("provider")
	m := manifests[canonicalProvider(provider)]
	output := b.Value("output")
	if output == "" {
		output = m.defaultOutput
	}
	name := m.prettyName
	if name == "" {
		name = provider
	}
	return Settings{
		Name:         name,
		InstanceName: b.Name,
		Provider:     provider,
		Output:       output,
	}
}

// Generators returns the resolved settings of every generator block in the
// schema at schemaPath.
func Generators(schemaPath string) ([]Settings, error) {
	schema, err := psl.ParseFile(schemaPath)
	if err != nil {
		return nil, err
	}
	out := make([]Settings, 0, len(schema.Generators))
	for _, g := range schema.Generators {
		out = append(out, Resolve(g))
	}
	return out, nil
}

// HasClient reports whether any generator produces a Prisma Client.
func HasClient(gens []Settings) bool {
	for _, g := range gens {
		if IsClientProvider(g.Provider) {
			return true
		}
	}
	return false
}

// ClientGeneratorBlock renders the generator block scaffolded into
// schemas that lack one.
func ClientGeneratorBlock(provider string) string {
	return "generator prisma_client {\n  provider = " + fmt.Sprintf("%q", provider) + "\n}\n"
}

// PrependClientGenerator writes a client generator block at the top of the
// schema file.
func PrependClientGenerator(schemaPath, provider string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	info, err := os.Stat(schemaPath)
	if err != nil {
		return err
	}
	data := ClientGeneratorBlock(provider) + "\n" + string(content)
	if err := os.WriteFile(schemaPath, []byte(data), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

// ClientDir returns the absolute directory the Prisma Client generator of
// the schema at schemaPath writes to. Relative outputs resolve against the
// schema directory.
func ClientDir(schemaPath string) (string, error) {
	gens, err := Generators(schemaPath)
	if err != nil {
		return "", err
	}
	for _, g := range gens {
		if !IsClientProvider(g.Provider) {
			continue
		}
		if filepath.IsAbs(g.Output) {
			return filepath.Clean(g.Output), nil
		}
		return filepath.Join(filepath.Dir(schemaPath), filepath.FromSlash(g.Output)), nil
	}
	return "", fmt.Errorf("no Prisma Client generator in %s", schemaPath)
}
