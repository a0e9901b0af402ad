package ranking

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in           string
		wantLower    string
		wantStripped string
	}{
		{"CSE 1310", "cse 1310", "cse1310"},
		{"  cse\t1310 \n", "cse\t1310", "cse1310"},
		{"Smith, John", "smith, john", "smith,john"},
		{"", "", ""},
		{"   ", "", ""},
		{"C++", "c++", "c++"},
	}
	for _, tt := range tests {
		q := Normalize(tt.in)
		if q.Lower != tt.wantLower || q.Stripped != tt.wantStripped {
			t.Errorf("Normalize(%q) = {%q, %q}, want {%q, %q}", tt.in, q.Lower, q.Stripped, tt.wantLower, tt.wantStripped)
		}
		if q.Original != tt.in {
			t.Errorf("Original = %q, want %q", q.Original, tt.in)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	if !Normalize(" \t ").Empty() {
		t.Error("whitespace-only query should be empty")
	}
	if Normalize("a").Empty() {
		t.Error("non-empty query reported empty")
	}
}

func TestStripSpaces(t *testing.T) {
	if got := StripSpaces("a b\tc\u00a0d\u3000e"); got != "abcde" {
		t.Errorf("StripSpaces() = %q", got)
	}
}

func TestFold(t *testing.T) {
	if got := Fold("GARC\u00cdA"); got != "garc\u00eda" {
		t.Errorf("Fold() = %q", got)
	}
	if Fold("Jose\u0301") != Fold("Jos\u00e9") {
		t.Error("decomposed and composed forms should fold equally")
	}
}
