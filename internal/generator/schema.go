// Package generator locates the Prisma schema of a project and runs the
// generators it declares.
package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/logging"
	"github.com/subosito/gotenv"
)

// SchemaFile is the schema file name searched for in a project.
const SchemaFile = "schema.prisma"

// DocsURL is shown when no schema can be found.
const DocsURL = "http://nxs.li/nexus-plugin-prisma"

// SchemaNotFoundError reports the locations searched for a schema file.
type SchemaNotFoundError struct {
	Looked []string
}

func (e *SchemaNotFoundError) Error() string {
	msg := "We could not find any `schema.prisma` file. We looked in:\n"
	for _, p := range e.Looked {
		msg += "  - " + p + "\n"
	}
	return msg + "Please create one or check out the docs to get started here: " + DocsURL
}

// SchemaCandidates returns the schema locations in search order.
func SchemaCandidates(projectRoot string) []string {
	return []string{
		filepath.Join(projectRoot, SchemaFile),
		filepath.Join(projectRoot, "prisma", SchemaFile),
	}
}

// FindSchema returns the first schema file found under projectRoot.
func FindSchema(projectRoot string) (string, error) {
	candidates := SchemaCandidates(projectRoot)
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &SchemaNotFoundError{Looked: candidates}
}

// LoadEnv loads the .env file next to the schema, or in the project root
// when there is none. Variables already set in the environment win.
// It returns the loaded file, or "" when none was found.
func LoadEnv(log *logging.Logger, schemaPath, projectRoot string) (string, error) {
	envPath := filepath.Join(filepath.Dir(schemaPath), ".env")
	if !fileExists(envPath) {
		envPath = filepath.Join(projectRoot, ".env")
	}
	if !fileExists(envPath) {
		log.Trace("No .env file found. Looked at: %s", envPath)
		return "", nil
	}

	log.Trace(".env file found. Looked at: %s", envPath)
	if err := gotenv.Load(envPath); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return envPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
