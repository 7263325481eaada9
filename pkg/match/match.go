// Package match resolves a market's contract team against the two
// sides of a reference odds entry.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Result says which side of the game a market team matched, if any.
type Result int

const (
	// NoMatch means the team matched neither side.
	NoMatch Result = iota
	// MatchedA means the team is the odds entry's team A.
	MatchedA
	// MatchedB means the team is the odds entry's team B.
	MatchedB
	// Ambiguous means the team matched both sides. Callers must skip
	// the market rather than guess.
	Ambiguous
)

func (r Result) String() string {
	switch r {
	case MatchedA:
		return "matched_a"
	case MatchedB:
		return "matched_b"
	case Ambiguous:
		return "ambiguous"
	default:
		return "no_match"
	}
}

// Matcher compares team names after normalization. Aliases map
// alternate normalized names to a canonical normalized name, e.g.
// "la lakers" to "los angeles lakers".
type Matcher struct {
	aliases map[string]string
}

// NewMatcher creates a matcher with the given alias table. Keys and
// values are normalized on construction, so callers can pass names in
// display form.
func NewMatcher(aliases map[string]string) *Matcher {
	m := &Matcher{aliases: make(map[string]string, len(aliases))}
	for k, v := range aliases {
		m.aliases[Normalize(k)] = Normalize(v)
	}
	return m
}

// Match reports which side of the (teamA, teamB) pair the given team
// belongs to. Matching is a normalized exact comparison first, then a
// substring comparison in either direction. A team that matches both
// sides returns Ambiguous.
func (m *Matcher) Match(team, teamA, teamB string) Result {
	t := m.canonical(team)
	a := m.canonical(teamA)
	b := m.canonical(teamB)

	if t == "" || a == "" || b == "" {
		return NoMatch
	}

	hitA := namesMatch(t, a)
	hitB := namesMatch(t, b)

	switch {
	case hitA && hitB:
		return Ambiguous
	case hitA:
		return MatchedA
	case hitB:
		return MatchedB
	default:
		return NoMatch
	}
}

func (m *Matcher) canonical(name string) string {
	n := Normalize(name)
	if canon, ok := m.aliases[n]; ok {
		return canon
	}
	return n
}

func namesMatch(a, b string) bool {
	if a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Suffixes carrying no identity; stripped during normalization.
var dropSuffixes = []string{" fc", " afc", " sc"}

// Normalize lowercases a team name, strips accents and combining
// marks, drops club suffixes, and collapses whitespace.
func Normalize(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	name = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' || r == '\'' {
			return -1
		}
		return r
	}, name)

	name = strings.Join(strings.Fields(name), " ")
	for _, suffix := range dropSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}

	return strings.TrimSpace(name)
}
