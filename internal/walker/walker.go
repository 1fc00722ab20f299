// Package walker discovers the text files of a repository tree.
package walker

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"reposcope/internal/index"
)

// IgnoreFile is the per-project ignore list, one pattern per line.
const IgnoreFile = ".reposcopeignore"

// DefaultMaxSize is the largest file considered (1 MB).
const DefaultMaxSize = 1 << 20

// FileInfo holds metadata about a discovered file.
type FileInfo struct {
	Path      string
	RelPath   string
	Extension string
	Size      int64
}

// Options controls a walk. Zero values use the defaults.
type Options struct {
	MaxSize    int64
	Extensions map[string]bool
}

// defaultIgnores are used when no .reposcopeignore file exists.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	".idea",
	".vscode",
	".reposcope",
	".next",
	"dist",
	"build",
	"coverage",
	"target",
	"*.min.js",
	"*.lock",
	"package-lock.json",
}

// DefaultExtensions are the text and source extensions indexed by default.
var DefaultExtensions = toSet(
	"go", "js", "jsx", "mjs", "cjs", "ts", "tsx", "mts", "cts", "py", "rb", "java", "kt",
	"rs", "c", "h", "cpp", "cc", "hpp", "cs", "php", "swift", "vue", "svelte", "html",
	"css", "scss", "json", "yaml", "yml", "toml", "md", "sh", "sql",
)

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// Walk traverses the tree rooted at root and sends discovered files on the
// returned channel. Ignored directories and files are skipped, as are files
// that are empty, too large, symlinks or have an extension outside the
// allowed set.
func Walk(ctx context.Context, root string, opts Options) (<-chan FileInfo, <-chan error) {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Extensions == nil {
		opts.Extensions = DefaultExtensions
	}
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}
		ignores := LoadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped
			}
			if path == absRoot {
				return nil
			}
			rel, _ := filepath.Rel(absRoot, path)
			rel = filepath.ToSlash(rel)
			if matchesIgnore(d.Name(), rel, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !opts.Extensions[ext] {
				return nil
			}
			info, err := d.Info()
			if err != nil || info.Size() > opts.MaxSize || info.Size() == 0 {
				return nil
			}

			select {
			case files <- FileInfo{Path: path, RelPath: rel, Extension: ext, Size: info.Size()}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// Collect walks root and returns the discovered files as repository
// entries in walk order.
func Collect(ctx context.Context, root string, opts Options) ([]index.RepoFile, error) {
	files, errs := Walk(ctx, root, opts)
	var out []index.RepoFile
	for f := range files {
		out = append(out, index.RepoFile{Path: f.RelPath, Extension: f.Extension})
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return out, nil
}

// LoadIgnorePatterns reads .reposcopeignore from the project root. If the
// file doesn't exist, it creates one with the default patterns.
func LoadIgnorePatterns(root string) []string {
	ignorePath := filepath.Join(root, IgnoreFile)

	f, err := os.Open(ignorePath)
	if err != nil {
		createDefaultIgnoreFile(ignorePath)
		return defaultIgnores
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	if len(patterns) == 0 {
		return defaultIgnores
	}
	return patterns
}

func createDefaultIgnoreFile(path string) {
	var b strings.Builder
	b.WriteString("# Paths reposcope skips while indexing.\n")
	b.WriteString("# One pattern per line: names, path prefixes or globs.\n\n")
	for _, p := range defaultIgnores {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	// Failure leaves the in-memory defaults in effect.
	_ = os.WriteFile(path, []byte(b.String()), 0o644)
}

// matchesIgnore checks a name or slash-separated relative path against the
// ignore patterns.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p || relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
