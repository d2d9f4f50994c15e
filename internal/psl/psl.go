// Package psl reads the parts of a Prisma schema file the plugin needs:
// datasource and generator blocks, and model fields.
package psl

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Block is a datasource or generator block.
type Block struct {
	Kind       string
	Name       string
	Properties map[string]string
	Line       int
}

// Value returns the unquoted value of key. env("X") values are returned
// verbatim so callers can resolve them.
func (b Block) Value(key string) string {
	raw, ok := b.Properties[key]
	if !ok {
		return ""
	}
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw
}

// EnvVar returns X when key is written as env("X").
func (b Block) EnvVar(key string) (string, bool) {
	m := envRe.FindStringSubmatch(b.Properties[key])
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Field is a model field.
type Field struct {
	Name       string
	Type       string
	Optional   bool
	List       bool
	Attributes []string
}

// Model is a model block.
type Model struct {
	Name   string
	Fields []Field
	Line   int
}

// Field looks a field up by name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declaration order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Schema is a parsed schema file.
type Schema struct {
	Datasources []Block
	Generators  []Block
	Models      []Model
	// Types are composite types, used by embedded documents.
	Types []Model
	Enums map[string][]string
}

// Model looks a model up by name.
func (s *Schema) Model(name string) (*Model, bool) {
	for i := range s.Models {
		if s.Models[i].Name == name {
			return &s.Models[i], true
		}
	}
	return nil, false
}

// Type looks a composite type up by name.
func (s *Schema) Type(name string) (*Model, bool) {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i], true
		}
	}
	return nil, false
}

// ModelNames returns model names sorted alphabetically.
func (s *Schema) ModelNames() []string {
	names := make([]string, len(s.Models))
	for i, m := range s.Models {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

// ScalarTypes are the built-in field types.
var ScalarTypes = []string{"String", "Boolean", "Int", "BigInt", "Float", "Decimal", "DateTime", "Json", "Bytes"}

// IsKnownType reports whether typ is a scalar, a model, a composite type
// or an enum.
func (s *Schema) IsKnownType(typ string) bool {
	for _, t := range ScalarTypes {
		if t == typ {
			return true
		}
	}
	if _, ok := s.Model(typ); ok {
		return true
	}
	if _, ok := s.Type(typ); ok {
		return true
	}
	_, ok := s.Enums[typ]
	return ok
}

var (
	blockStartRe = regexp.MustCompile(`^(datasource|generator|model|enum|type|view)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\{\s*$`)
	propertyRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	fieldRe      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s+([A-Za-z_][A-Za-z0-9_]*)(\[\])?(\?)?\s*(.*)$`)
	envRe        = regexp.MustCompile(`^env\(\s*"([^"]+)"\s*\)$`)
)

// ParseFile reads and parses the schema at path.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse parses schema source.
func Parse(src []byte) (*Schema, error) {
	s := &Schema{Enums: map[string][]string{}}

	var (
		kind, name string
		startLine  int
		props      map[string]string
		model      *Model
		enumVals   []string

		// pendingKey is set while a bracketed value spans lines.
		pendingKey string
		pending    strings.Builder
		depth      int
	)

	scanner := bufio.NewScanner(bytes.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}

		if pendingKey != "" {
			pending.WriteString(" ")
			pending.WriteString(line)
			if depth += bracketDepth(line); depth <= 0 {
				props[pendingKey] = pending.String()
				pendingKey = ""
			}
			continue
		}

		if kind == "" {
			m := blockStartRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: unexpected %q outside of a block", lineNo, line)
			}
			kind, name, startLine = m[1], m[2], lineNo
			switch kind {
			case "datasource", "generator":
				props = map[string]string{}
			case "model", "type", "view":
				model = &Model{Name: name, Line: lineNo}
			case "enum":
				enumVals = nil
			}
			continue
		}

		if line == "}" {
			switch kind {
			case "datasource":
				s.Datasources = append(s.Datasources, Block{Kind: kind, Name: name, Properties: props, Line: startLine})
			case "generator":
				s.Generators = append(s.Generators, Block{Kind: kind, Name: name, Properties: props, Line: startLine})
			case "model", "view":
				s.Models = append(s.Models, *model)
			case "type":
				s.Types = append(s.Types, *model)
			case "enum":
				s.Enums[name] = enumVals
			}
			kind, props, model = "", nil, nil
			continue
		}

		switch kind {
		case "datasource", "generator":
			m := propertyRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: expected key = value in %s %s", lineNo, kind, name)
			}
			value := strings.TrimSpace(m[2])
			if d := bracketDepth(value); d > 0 {
				pendingKey, depth = m[1], d
				pending.Reset()
				pending.WriteString(value)
				continue
			}
			props[m[1]] = value
		case "model", "type", "view":
			if strings.HasPrefix(line, "@@") {
				continue
			}
			m := fieldRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: invalid field in %s %s: %q", lineNo, kind, name, line)
			}
			model.Fields = append(model.Fields, Field{
				Name:       m[1],
				Type:       m[2],
				List:       m[3] != "",
				Optional:   m[4] != "",
				Attributes: strings.Fields(m[5]),
			})
		case "enum":
			if !strings.HasPrefix(line, "@@") {
				enumVals = append(enumVals, strings.Fields(line)[0])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pendingKey != "" {
		return nil, fmt.Errorf("line %d: value of %s in %s %s is not closed", startLine, pendingKey, kind, name)
	}
	if kind != "" {
		return nil, fmt.Errorf("line %d: %s %s is not closed", startLine, kind, name)
	}
	return s, nil
}

// bracketDepth returns the opened minus closed square brackets in line,
// ignoring those inside string literals.
func bracketDepth(line string) int {
	depth := 0
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
			}
		}
	}
	return depth
}

// stripComment drops // comments that are not inside a string literal.
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case '/':
			if !inString && i+1 < len(line) && line[i+1] == '/' {
				return line[:i]
			}
		}
	}
	return line
}
