// Package ingestion loads ontology documents into graph indexes and keeps
// them fresh as the documents change on disk.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/parsers"
)

// FileEntry represents an ontology document to be parsed.
type FileEntry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the walked root.
	RelPath string

	// Content is the file content.
	Content []byte

	// SHA256 is the hash of the file content.
	SHA256 string
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	".reposteria/",
	"node_modules/",
	"static/",
	"templates/",
	"*~",
	".#*",
	"*.swp",
	".DS_Store",
}

// WalkOntology walks root and returns every ontology document below it that
// no ignore pattern matches, sorted by relative path.
func WalkOntology(root string, patterns []gitignore.Pattern) ([]FileEntry, error) {
	matcher := newMatcher(patterns)

	var entries []FileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isOntologyFile(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Match(splitPath(relPath), false) {
			return nil
		}

		entry, err := readEntry(path, relPath)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
	return entries, err
}

func readEntry(path, relPath string) (FileEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileEntry{}, err
	}
	hash := sha256.Sum256(content)
	return FileEntry{
		Path:    path,
		RelPath: relPath,
		Content: content,
		SHA256:  hex.EncodeToString(hash[:]),
	}, nil
}

// newMatcher combines the default patterns with patterns.
func newMatcher(patterns []gitignore.Pattern) gitignore.Matcher {
	all := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns)+len(patterns))
	for _, p := range defaultIgnorePatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}
	all = append(all, patterns...)
	return gitignore.NewMatcher(all)
}

// loadGitignore loads .gitignore patterns from root. A missing file yields
// no patterns.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

// isOntologyFile checks if a file has an ontology extension.
func isOntologyFile(filename string) bool {
	return parsers.ParserForFile(filename) != nil
}

// shouldSkipDir checks if a directory should be skipped.
func shouldSkipDir(name, path, root string, matcher gitignore.Matcher) bool {
	if name == ".git" {
		return true
	}
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.Match(splitPath(relPath), true)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
