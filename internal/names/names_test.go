package names

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Wind Walker Prophecy", "wind walker prophecy"},
		{"The Wind Walker prophecy", "wind walker prophecy"},
		{"A mysterious map", "mysterious map"},
		{"An Old Promise", "old promise"},
		{"Unnamed Guard Leader", "guard leader"},
		{"The Unnamed Informant", "informant"},
		{"  Zephyr  ", "zephyr"},
		{"Sky   Captain", "sky captain"},
		{"", ""},
	}

	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeStripsOnlyOneArticle(t *testing.T) {
	// Only the leading article goes; interior articles are part of the name.
	if got := Normalize("The Battle of a Thousand Suns"); got != "battle of a thousand suns" {
		t.Errorf("got %q", got)
	}
}

func TestFindMatch(t *testing.T) {
	candidates := map[string]string{
		"char_001": "Zephyr",
		"char_002": "The Sky Captain",
		"char_003": "Guard Leader",
	}

	if got := FindMatch("sky captain", candidates); got != "char_002" {
		t.Errorf("expected char_002, got %q", got)
	}
	if got := FindMatch("Unnamed Guard Leader", candidates); got != "char_003" {
		t.Errorf("expected char_003, got %q", got)
	}
	if got := FindMatch("Zephyra", candidates); got != "" {
		t.Errorf("expected no match for a genuinely different name, got %q", got)
	}
	if got := FindMatch("", candidates); got != "" {
		t.Errorf("expected no match for empty name, got %q", got)
	}
}
