package runtime

import (
	"sort"
	"strings"
)

// MaxSuggestions bounds the names offered in a "Did you mean" warning.
const MaxSuggestions = 5

// suggestionList returns the options close enough to input to be offered,
// best first.
func suggestionList(input string, options []string) []string {
	type candidate struct {
		name     string
		distance int
	}
	var found []candidate
	half := len(input) / 2
	for _, opt := range options {
		d := lexicalDistance(input, opt)
		threshold := max(half, len(opt)/2, 1)
		if d <= threshold {
			found = append(found, candidate{opt, d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].name < found[j].name
	})

	out := make([]string, 0, min(len(found), MaxSuggestions))
	for i := 0; i < len(found) && i < MaxSuggestions; i++ {
		out = append(out, found[i].name)
	}
	return out
}

// lexicalDistance is the optimal string alignment distance between a and
// b, ignoring case. Names differing only in case are at distance 1.
func lexicalDistance(a, b string) int {
	if a == b {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}

	s, t := []rune(a), []rune(b)
	d := make([][]int, len(s)+1)
	for i := range d {
		d[i] = make([]int, len(t)+1)
		d[i][0] = i
	}
	for j := 0; j <= len(t); j++ {
		d[0][j] = j
	}

	for i := 1; i <= len(s); i++ {
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
			if i > 1 && j > 1 && s[i-1] == t[j-2] && s[i-2] == t[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost) // transposition
			}
		}
	}
	return d[len(s)][len(t)]
}
