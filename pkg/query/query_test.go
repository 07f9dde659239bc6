package query

import (
	"testing"

	"mediadex/pkg/models"
)

func TestCompileSingleToken(t *testing.T) {
	p := Compile("2020")
	cases := []struct {
		text string
		want bool
	}{
		{"Movie.2020.mkv", true},
		{"Movie 2020", true},
		{"Movie-2020_x264", true},
		{"2020", true},
		{"Movie20201.mkv", false},
		{"12020.mkv", false},
		{"other year", false},
	}
	for _, c := range cases {
		if got := p.Match(c.text); got != c.want {
			t.Fatalf("Match(%q, %q) = %v, want %v", "2020", c.text, got, c.want)
		}
	}
}

func TestCompileMultiToken(t *testing.T) {
	p := Compile("the matrix")
	cases := []struct {
		text string
		want bool
	}{
		{"The.Matrix.1999.mkv", true},
		{"the matrix", true},
		{"The_Matrix-Reloaded", true},
		{"The+Matrix", true},
		{"matrix the", false},
		{"thematrix", false},
	}
	for _, c := range cases {
		if got := p.Match(c.text); got != c.want {
			t.Fatalf("Match(%q, %q) = %v, want %v", "the matrix", c.text, got, c.want)
		}
	}
}

func TestCompileCaseInsensitive(t *testing.T) {
	if !Compile("MATRIX").Match("the matrix reloaded") {
		t.Fatalf("uppercase query should match lowercase text")
	}
	if !Compile("matrix").Match("THE MATRIX") {
		t.Fatalf("lowercase query should match uppercase text")
	}
}

func TestCompileEmptyMatchesAll(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		p := Compile(raw)
		if !p.Match("anything at all") || !p.Match("") {
			t.Fatalf("Compile(%q) should match everything", raw)
		}
	}
}

func TestCompileQuotedMeta(t *testing.T) {
	// regex metacharacters in user input never break or widen the match
	p := Compile("a(b")
	if p.Match("acb") {
		t.Fatalf("metacharacters must be treated literally")
	}
	if !p.Match("x a(b y") {
		t.Fatalf("literal a(b should match")
	}
}

func TestZeroPredicateMatchesNothing(t *testing.T) {
	var p Predicate
	if p.Match("anything") {
		t.Fatalf("zero predicate must not match")
	}
}

func TestRaw(t *testing.T) {
	if got := Compile("some text").Raw(); got != "some text" {
		t.Fatalf("Raw() = %q", got)
	}
}

func TestMatchRecordCaption(t *testing.T) {
	rec := models.FileRecord{Name: "upload 42", Caption: "The Matrix 1999 remaster"}
	p := Compile("matrix")
	if p.MatchRecord(rec, false) {
		t.Fatalf("caption must be ignored when caption indexing is off")
	}
	if !p.MatchRecord(rec, true) {
		t.Fatalf("caption should match when caption indexing is on")
	}
	if !Compile("upload").MatchRecord(rec, false) {
		t.Fatalf("name should always be matched")
	}
}
