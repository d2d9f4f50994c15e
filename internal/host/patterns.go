package host

import (
	"path"
	"strings"
)

// MatchPattern matches a project-relative, slash-separated path against a
// watch pattern. Patterns are "./file", "./dir/**" or a path.Match glob.
func MatchPattern(pattern, rel string) bool {
	p := strings.TrimPrefix(pattern, "./")
	rel = strings.TrimPrefix(rel, "./")

	if p == "**" {
		return true
	}
	if dir, ok := strings.CutSuffix(p, "/**"); ok {
		return rel == dir || strings.HasPrefix(rel, dir+"/")
	}
	ok, err := path.Match(p, rel)
	return err == nil && ok
}

// MatchAny reports whether any pattern matches rel.
func MatchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if MatchPattern(p, rel) {
			return true
		}
	}
	return false
}
