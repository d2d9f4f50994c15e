package generator

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/execx"
)

var versionRe = regexp.MustCompile(`\bv?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)\b`)

// cliVersionKeys are the keys `prisma --version` has used for the CLI line
// across releases.
var cliVersionKeys = []string{"prisma", "@prisma/cli", "prisma-cli"}

// ParseCLIVersion extracts the Prisma CLI version from `prisma --version`
// output. Lines look like "prisma : 2.0.0" or "@prisma/cli : 2.0.0".
func ParseCLIVersion(output []byte) string {
	fields := execx.ParseKeyValue(output)
	for _, key := range cliVersionKeys {
		if m := versionRe.FindStringSubmatch(fields[key]); m != nil {
			return m[1]
		}
	}
	if m := versionRe.FindSubmatch(output); m != nil {
		return string(m[1])
	}
	return ""
}

// CompatibleVersion reports whether have matches the pinned version on
// major and minor. Unparseable versions are treated as compatible.
func CompatibleVersion(pinned, have string) bool {
	p, h := canonical(pinned), canonical(have)
	if p == "" || h == "" {
		return true
	}
	return semver.MajorMinor(p) == semver.MajorMinor(h)
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}
