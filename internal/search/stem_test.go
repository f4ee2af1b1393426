package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStem(t *testing.T) {
	tests := map[string]string{
		"caresses":       "caress",
		"ponies":         "poni",
		"ties":           "ti",
		"caress":         "caress",
		"cats":           "cat",
		"feed":           "feed",
		"agreed":         "agre",
		"plastered":      "plaster",
		"motoring":       "motor",
		"sing":           "sing",
		"conflated":      "conflat",
		"troubled":       "troubl",
		"sized":          "size",
		"hopping":        "hop",
		"tanned":         "tan",
		"falling":        "fall",
		"hissing":        "hiss",
		"fizzed":         "fizz",
		"failing":        "fail",
		"filing":         "file",
		"happy":          "happi",
		"sky":            "sky",
		"relational":     "relat",
		"conditional":    "condit",
		"running":        "run",
		"connection":     "connect",
		"connected":      "connect",
		"connections":    "connect",
		"generalization": "gener",
		"sending":        "send",
		"requests":       "request",
		"using":          "us",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStemLeavesShortAndNonAlphaWordsAlone(t *testing.T) {
	for _, w := range []string{"a", "is", "s3", "oauth2", "crm_sync", "données"} {
		if got := Stem(w); got != w {
			t.Errorf("Stem(%q) = %q, want unchanged", w, got)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Send an E-mail via SMTP_Server, then POST to /api/v2!")
	want := []string{"send", "an", "e", "mail", "via", "smtp_server", "then", "post", "to", "api", "v2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}
