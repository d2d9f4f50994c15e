package runtime

import (
	"bufio"
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/psl"
	"github.com/graphql-nexus/nexus-plugin-prisma/internal/ui"
)

// sourceContext is the number of lines shown around a call site.
const sourceContext = 2

// FieldChecker validates the model fields an app exposes against the
// Prisma schema. Problems are reported as warnings pointing at the caller;
// they never fail the app.
type FieldChecker struct {
	schema *psl.Schema

	mu  sync.Mutex
	out io.Writer
}

// NewFieldChecker creates a checker writing warnings to out.
func NewFieldChecker(schema *psl.Schema, out io.Writer) *FieldChecker {
	return &FieldChecker{schema: schema, out: out}
}

// Field reports whether model typeName has a field fieldName. When it does
// not, a warning with the closest names is written.
func (c *FieldChecker) Field(typeName, fieldName string) bool {
	if c == nil {
		return true
	}
	site := callerSite(1)

	model, ok := c.schema.Model(typeName)
	if !ok {
		c.warn(site, fmt.Sprintf("The model %q does not exist in your Prisma schema", typeName),
			suggestionList(typeName, c.schema.ModelNames()))
		return false
	}
	if _, ok := model.Field(fieldName); ok {
		return true
	}
	c.warn(site, fmt.Sprintf("The field %q does not exist on model %q", fieldName, typeName),
		suggestionList(fieldName, model.FieldNames()))
	return false
}

// FieldType reports whether fieldType is a scalar, model or enum of the
// schema. When it is not, a warning is written.
func (c *FieldChecker) FieldType(typeName, fieldName, fieldType string) bool {
	if c == nil {
		return true
	}
	site := callerSite(1)

	if c.schema.IsKnownType(fieldType) {
		return true
	}
	c.warn(site, fmt.Sprintf("The type %q of field \"%s.%s\" is not a Prisma scalar, model or enum", fieldType, typeName, fieldName), nil)
	return false
}

func (c *FieldChecker) warn(site callSite, message string, suggestions []string) {
	label := ui.RenderWarn("Warning:")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", label, message)
	fmt.Fprintf(&b, "%s in %s\n", label, site)
	if len(suggestions) > 0 {
		quoted := make([]string, len(suggestions))
		for i, s := range suggestions {
			quoted[i] = `"` + ui.RenderPass(s) + `"`
		}
		fmt.Fprintf(&b, "%s Did you mean %s ?\n", label, strings.Join(quoted, ", "))
	}
	b.WriteString(site.excerpt())

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, b.String())
}

type callSite struct {
	file string
	line int
}

// callerSite returns the caller of the function calling callerSite, skip
// frames further up.
func callerSite(skip int) callSite {
	_, file, line, ok := goruntime.Caller(skip + 1)
	if !ok {
		return callSite{file: "unknown"}
	}
	return callSite{file: file, line: line}
}

func (s callSite) String() string {
	if s.line == 0 {
		return s.file
	}
	return fmt.Sprintf("%s:%d", s.file, s.line)
}

// excerpt renders the source lines around the call site, marking the call.
// It is empty when the source cannot be read.
func (s callSite) excerpt() string {
	if s.line == 0 {
		return ""
	}
	f, err := os.Open(s.file)
	if err != nil {
		return ""
	}
	defer f.Close()

	first, last := max(s.line-sourceContext, 1), s.line+sourceContext
	width := len(fmt.Sprint(last))

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan() && n <= last; n++ {
		if n < first {
			continue
		}
		marker := " "
		if n == s.line {
			marker = ">"
		}
		text := strings.ReplaceAll(scanner.Text(), "\t", "  ")
		fmt.Fprintf(&b, "%s %*d | %s\n", marker, width, n, text)
	}
	return b.String()
}
