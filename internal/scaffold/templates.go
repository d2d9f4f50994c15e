package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Data fills the project templates.
type Data struct {
	Datasource     string
	ClientProvider string
	ClientPackage  string
	ConnectionURI  string
	ModulePath     string
	SourcePackage  string
}

// Render executes the named template ("schema.prisma.tmpl", "env.tmpl", …).
func Render(name string, data Data) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
