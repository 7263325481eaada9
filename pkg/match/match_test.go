package match

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Los Angeles Lakers", "los angeles lakers"},
		{"  Boston   Celtics ", "boston celtics"},
		{"Atlético Madrid", "atletico madrid"},
		{"Manchester United FC", "manchester united"},
		{"St. Louis Blues", "st louis blues"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	m := NewMatcher(nil)

	tests := []struct {
		name  string
		team  string
		teamA string
		teamB string
		want  Result
	}{
		{"exact A", "Los Angeles Lakers", "Los Angeles Lakers", "Boston Celtics", MatchedA},
		{"exact B", "Boston Celtics", "Los Angeles Lakers", "Boston Celtics", MatchedB},
		{"case and accents", "atlético madrid", "Atletico Madrid", "Real Madrid", MatchedA},
		{"substring", "Lakers", "Los Angeles Lakers", "Boston Celtics", MatchedA},
		{"no match", "Miami Heat", "Los Angeles Lakers", "Boston Celtics", NoMatch},
		{"shared prefix hits both", "New York", "New York Knicks", "New York Rangers", Ambiguous},
		{"empty team", "", "Los Angeles Lakers", "Boston Celtics", NoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.team, tt.teamA, tt.teamB); got != tt.want {
				t.Errorf("Match(%q, %q, %q) = %v, want %v", tt.team, tt.teamA, tt.teamB, got, tt.want)
			}
		})
	}
}

func TestMatchWithAliases(t *testing.T) {
	m := NewMatcher(map[string]string{
		"LA Lakers": "Los Angeles Lakers",
	})

	if got := m.Match("LA Lakers", "Los Angeles Lakers", "Boston Celtics"); got != MatchedA {
		t.Errorf("alias match = %v, want %v", got, MatchedA)
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{NoMatch, "no_match"},
		{MatchedA, "matched_a"},
		{MatchedB, "matched_b"},
		{Ambiguous, "ambiguous"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Result(%d).String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}
