package walker

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	files, err := Collect(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	slices.Sort(out)
	return out
}

func TestCollectDefaults(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/App.jsx":             "export default App",
		"src/app.min.js":          "minified",
		"README.md":               "# demo",
		"node_modules/x/index.js": "module.exports = 1",
		".git/config":             "[core]",
		"logo.png":                "not text",
		"empty.go":                "",
		"docs/guide/setup.md":     "steps",
	})

	got := relPaths(t, root, Options{})
	want := []string{"README.md", "docs/guide/setup.md", "src/App.jsx"}
	if !slices.Equal(got, want) {
		t.Errorf("Collect() = %v, want %v", got, want)
	}
	if _, err := os.Stat(filepath.Join(root, IgnoreFile)); err != nil {
		t.Errorf("default ignore file not created: %v", err)
	}
}

func TestCollectCustomIgnore(t *testing.T) {
	root := writeTree(t, map[string]string{
		IgnoreFile:          "# custom\ndocs/\n*.md\n",
		"main.go":           "package main",
		"docs/api.go":       "package docs",
		"notes.md":          "notes",
		"vendor/lib/lib.go": "package lib",
	})

	got := relPaths(t, root, Options{})
	want := []string{"main.go", "vendor/lib/lib.go"}
	if !slices.Equal(got, want) {
		t.Errorf("Collect() = %v, want %v", got, want)
	}
}

func TestCollectLimits(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.go": "package a",
		"big.go":   strings.Repeat("x", 100),
		"notes.md": "notes",
	})

	got := relPaths(t, root, Options{MaxSize: 50, Extensions: map[string]bool{"go": true}})
	if !slices.Equal(got, []string{"small.go"}) {
		t.Errorf("Collect() = %v, want [small.go]", got)
	}
}

func TestCollectExtension(t *testing.T) {
	root := writeTree(t, map[string]string{"src/Page.TSX": "export {}"})
	files, err := Collect(context.Background(), root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Extension != "tsx" {
		t.Errorf("Collect() = %+v, want one tsx file", files)
	}
}

func TestMatchesIgnore(t *testing.T) {
	patterns := []string{"node_modules", "third_party/vendor", "*.lock"}
	tests := []struct {
		name, rel string
		want      bool
	}{
		{"node_modules", "web/node_modules", true},
		{"vendor", "third_party/vendor", true},
		{"x.go", "third_party/vendor/x.go", true},
		{"vendorized", "third_party/vendorized", false},
		{"yarn.lock", "yarn.lock", true},
		{"main.go", "main.go", false},
	}
	for _, tt := range tests {
		if got := matchesIgnore(tt.name, tt.rel, patterns); got != tt.want {
			t.Errorf("matchesIgnore(%q, %q) = %v, want %v", tt.name, tt.rel, got, tt.want)
		}
	}
}
