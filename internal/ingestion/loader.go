package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/graph"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/parsers"
)

var (
	// ErrEmptyGraph is returned when the documents hold no triples.
	ErrEmptyGraph = errors.New("ontology contains no triples")

	// ErrNoDocuments is returned when a directory holds no ontology documents.
	ErrNoDocuments = errors.New("no ontology documents found")
)

// GraphLoadError reports an ontology that could not be loaded: missing,
// unreadable, unparseable or empty. No index is produced alongside it.
type GraphLoadError struct {
	Path string
	Err  error
}

func (e *GraphLoadError) Error() string {
	return fmt.Sprintf("loading ontology %s: %v", e.Path, e.Err)
}

func (e *GraphLoadError) Unwrap() error {
	return e.Err
}

// Snapshot is the result of one successful load.
type Snapshot struct {
	Index *graph.Index

	// Files lists the parsed documents relative to the loaded path.
	Files []string

	// Fingerprint hashes the content of every parsed document.
	Fingerprint string

	Duration time.Duration
}

// Loader reads ontology documents into graph indexes.
type Loader struct {
	logger   *slog.Logger
	debounce time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebounce sets how long Watch waits for changes to settle before
// reloading. Default is two seconds.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:   slog.Default(),
		debounce: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses the ontology at path into an Index. path is either a single
// document or a directory walked for ontology documents. Failures are
// returned as *GraphLoadError.
func (l *Loader) Load(path string) (*graph.Index, error) {
	snap, err := l.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return snap.Index, nil
}

// LoadSnapshot is Load that also reports what was loaded.
func (l *Loader) LoadSnapshot(path string) (*Snapshot, error) {
	start := time.Now()

	entries, err := collect(path)
	if err != nil {
		return nil, &GraphLoadError{Path: path, Err: err}
	}

	b := graph.NewBuilder()
	files := make([]string, 0, len(entries))
	fingerprint := sha256.New()
	for _, entry := range entries {
		parser := parsers.ParserForFile(entry.Path)
		if parser == nil {
			parser = parsers.NewRDFXMLParser()
		}

		base := entry.Path
		if abs, err := filepath.Abs(entry.Path); err == nil {
			base = "file://" + filepath.ToSlash(abs)
		}
		triples, err := parser.Parse(base, entry.Content)
		if err != nil {
			return nil, &GraphLoadError{Path: entry.Path, Err: fmt.Errorf("parsing %s: %w", parser.Format(), err)}
		}
		b.AddAll(triples)

		files = append(files, entry.RelPath)
		fingerprint.Write([]byte(entry.RelPath))
		fingerprint.Write([]byte(entry.SHA256))
		l.logger.Debug("parsed ontology document", "path", entry.Path, "triples", len(triples))
	}

	if b.Len() == 0 {
		return nil, &GraphLoadError{Path: path, Err: ErrEmptyGraph}
	}

	snap := &Snapshot{
		Index:       b.Build(),
		Files:       files,
		Fingerprint: hex.EncodeToString(fingerprint.Sum(nil)),
		Duration:    time.Since(start),
	}
	stats := snap.Index.Stats()
	l.logger.Info("ontology loaded",
		"path", path,
		"files", len(files),
		"triples", stats["triples"],
		"classes", stats["classes"],
		"instances", stats["instances"],
		"duration", snap.Duration,
	)
	return snap, nil
}

// collect returns the documents at path: the file itself, or the ontology
// documents of a directory.
func collect(path string) ([]FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		entry, err := readEntry(path, filepath.Base(path))
		if err != nil {
			return nil, err
		}
		return []FileEntry{entry}, nil
	}

	patterns, err := loadGitignore(path)
	if err != nil {
		return nil, fmt.Errorf("reading .gitignore: %w", err)
	}
	entries, err := WalkOntology(path, patterns)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, ErrNoDocuments
	}
	return entries, nil
}
