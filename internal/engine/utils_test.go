package engine

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"cgt", "cgt", 0},
		{"cgt", "clt", 1},
		{"cgt.un", "cgt", 3},
		{"", "add", 3},
		{"ldc.i4", "ldc.i8", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"cgt", "cgt.un", "clt", "clt.un", "ceq", "add"}

	got := FindSimilar("cgtt", candidates, 2)
	if len(got) != 2 || got[0] != "cgt" {
		t.Fatalf("FindSimilar(cgtt) = %v, want cgt first", got)
	}

	if got := FindSimilar("cgt", candidates, 3); len(got) == 0 || got[0] == "cgt" {
		t.Errorf("exact match must not be suggested, got %v", got)
	}

	if got := FindSimilar("callvirt", candidates, 3); len(got) != 0 {
		t.Errorf("expected no suggestions for a distant name, got %v", got)
	}
}

func TestParseSyntax(t *testing.T) {
	for in, want := range map[string]Syntax{
		"nasm":  SyntaxIntel,
		"Intel": SyntaxIntel,
		"gas":   SyntaxATT,
		" att ": SyntaxATT,
	} {
		got, err := ParseSyntax(in)
		if err != nil || got != want {
			t.Errorf("ParseSyntax(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSyntax("masm"); err == nil {
		t.Error("expected error for masm")
	}
	if SyntaxATT.CommentPrefix() != "#" || SyntaxIntel.CommentPrefix() != ";" {
		t.Error("unexpected comment prefixes")
	}
}
