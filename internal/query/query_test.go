package query

import (
	"reflect"
	"slices"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Mode
	}{
		{"explain the vite config and build setup", ModeConfig},
		{"compare configs between environments", ModeConfig},
		{"where is payment gateway implemented?", ModeLocation},
		{"Which file defines the router?", ModeLocation},
		{"react query vs redux here", ModeComparison},
		{"why does the login crash", ModeDebug},
		{"what are the key features in this codebase?", ModeOverview},
		{"give me a high-level overview", ModeOverview},
		{"which features does it have", ModeOverview},
		{"what is shimmer in this repo", ModeSpecific},
		{"", ModeSpecific},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Classify(tt.text)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if again := Classify(tt.text); again != got {
				t.Fatalf("Classify not idempotent: %q then %q", got, again)
			}
		})
	}
}

func TestModeStrict(t *testing.T) {
	for _, m := range Modes {
		want := m == ModeSpecific || m == ModeLocation
		if m.Strict() != want {
			t.Errorf("%s.Strict() = %v, want %v", m, m.Strict(), want)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("What is Shimmer in this repo and why do we use shimmers? Explain routes")
	want := []string{"shimmer", "route"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}

	if got := ExtractKeywords("the class address"); !reflect.DeepEqual(got, []string{"class", "address"}) {
		t.Fatalf("double-s words must not be singularized: %v", got)
	}
}

func TestExtractAnchorTerms(t *testing.T) {
	got := ExtractAnchorTerms("where is payment gateway implemented?")
	if !reflect.DeepEqual(got, []string{"payment", "gateway"}) {
		t.Fatalf("anchors = %v", got)
	}

	got = ExtractAnchorTerms("how does `useFetch` load /restaurant/:id data in the system")
	for _, want := range []string{"usefetch", "/restaurant/:id"} {
		if !slices.Contains(got, want) {
			t.Errorf("anchors %v missing %q", got, want)
		}
	}
	for _, low := range []string{"system", "data"} {
		if slices.Contains(got, low) {
			t.Errorf("anchors %v contain low-signal %q", got, low)
		}
	}

	long := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima"
	if n := len(ExtractAnchorTerms(long)); n != maxAnchors {
		t.Fatalf("got %d anchors, want %d", n, maxAnchors)
	}
}

func TestExpandAnchor(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"routing", []string{"routing", "rout", "route", "routes", "router"}},
		{"auth", []string{"auth", "authentication", "login", "token"}},
		{"shimmer", []string{"shimmer", "loading", "skeleton", "loader"}},
		{"payment", []string{"payment"}},
	}
	for _, tt := range tests {
		if got := ExpandAnchor(tt.term); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExpandAnchor(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestIsCodeLike(t *testing.T) {
	tests := map[string]bool{
		"src/router.jsx":      true,
		"vite.config.js":      true,
		"useState":            true,
		"createBrowserRouter": true,
		"snake_case":          true,
		"React":               false,
		"shimmer":             false,
		"user":                false,
		"":                    false,
	}
	for tok, want := range tests {
		if got := IsCodeLike(tok); got != want {
			t.Errorf("IsCodeLike(%q) = %v, want %v", tok, got, want)
		}
	}
}

func TestNormalizeEntity(t *testing.T) {
	tests := map[string]string{
		"useState()":      "useState",
		"useState(0)":     "useState",
		"<Shimmer />":     "Shimmer",
		"</Route>":        "Route",
		"/restaurant/:id": "/restaurant/:id",
		"router.jsx,":     "router.jsx",
	}
	for in, want := range tests {
		if got := NormalizeEntity(in); got != want {
			t.Errorf("NormalizeEntity(%q) = %q, want %q", in, got, want)
		}
	}
}
