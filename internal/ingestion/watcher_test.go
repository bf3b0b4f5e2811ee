package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reload struct {
	snap *Snapshot
	err  error
}

func startWatch(t *testing.T, path, previous string) <-chan reload {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reloads := make(chan reload, 4)
	loader := NewLoader(WithDebounce(50 * time.Millisecond))
	go func() {
		_ = loader.Watch(ctx, path, previous, func(snap *Snapshot, err error) {
			reloads <- reload{snap: snap, err: err}
		})
	}()
	// Give the watcher time to register before files change.
	time.Sleep(200 * time.Millisecond)
	return reloads
}

func waitReload(t *testing.T, reloads <-chan reload) reload {
	t.Helper()
	select {
	case r := <-reloads:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return reload{}
	}
}

func TestLoader_Watch(t *testing.T) {
	t.Parallel()

	t.Run("ReloadsChangedFile", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "reposteria.owl")
		writeFiles(t, tmpDir, map[string]string{"reposteria.owl": sampleRDF})

		reloads := startWatch(t, path, "")
		require.NoError(t, os.WriteFile(path, []byte(extraRDF), 0o644))

		r := waitReload(t, reloads)
		require.NoError(t, r.err)
		assert.Equal(t, []string{ns + "Flan"}, r.snap.Index.Instances())
	})

	t.Run("ReloadsDirectory", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		writeFiles(t, tmpDir, map[string]string{"reposteria.owl": sampleRDF})

		reloads := startWatch(t, tmpDir, "")
		writeFiles(t, tmpDir, map[string]string{"flan.rdf": extraRDF})

		r := waitReload(t, reloads)
		require.NoError(t, r.err)
		assert.Len(t, r.snap.Files, 2)
	})

	t.Run("ReportsFailedReload", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "reposteria.owl")
		writeFiles(t, tmpDir, map[string]string{"reposteria.owl": sampleRDF})

		reloads := startWatch(t, path, "")
		require.NoError(t, os.WriteFile(path, []byte("<rdf:RDF"), 0o644))

		r := waitReload(t, reloads)
		assert.Nil(t, r.snap)
		var loadErr *GraphLoadError
		assert.ErrorAs(t, r.err, &loadErr)
	})

	t.Run("SkipsUnchangedContent", func(t *testing.T) {
		t.Parallel()
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "reposteria.owl")
		writeFiles(t, tmpDir, map[string]string{"reposteria.owl": sampleRDF})

		snap, err := NewLoader().LoadSnapshot(path)
		require.NoError(t, err)

		reloads := startWatch(t, path, snap.Fingerprint)
		require.NoError(t, os.WriteFile(path, []byte(sampleRDF), 0o644))

		select {
		case r := <-reloads:
			t.Fatalf("unexpected reload: %+v", r)
		case <-time.After(500 * time.Millisecond):
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		t.Parallel()
		err := NewLoader().Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), "", func(*Snapshot, error) {})
		assert.Error(t, err)
	})
}

func TestLoader_Relevant(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	root := filepath.Join(string(filepath.Separator), "onto")
	matcher := newMatcher(nil)

	tests := []struct {
		name     string
		event    fsnotify.Event
		path     string
		isDir    bool
		expected bool
	}{
		{name: "WatchedFile", event: fsnotify.Event{Name: filepath.Join(root, "a.owl"), Op: fsnotify.Write}, path: filepath.Join(root, "a.owl"), expected: true},
		{name: "SiblingFile", event: fsnotify.Event{Name: filepath.Join(root, "b.owl"), Op: fsnotify.Write}, path: filepath.Join(root, "a.owl"), expected: false},
		{name: "ChmodOnly", event: fsnotify.Event{Name: filepath.Join(root, "a.owl"), Op: fsnotify.Chmod}, path: filepath.Join(root, "a.owl"), expected: false},
		{name: "DocumentInDirectory", event: fsnotify.Event{Name: filepath.Join(root, "x", "b.rdf"), Op: fsnotify.Create}, path: root, isDir: true, expected: true},
		{name: "OtherFileInDirectory", event: fsnotify.Event{Name: filepath.Join(root, "notes.txt"), Op: fsnotify.Write}, path: root, isDir: true, expected: false},
		{name: "IgnoredDocument", event: fsnotify.Event{Name: filepath.Join(root, "static", "b.rdf"), Op: fsnotify.Write}, path: root, isDir: true, expected: false},
		{name: "RemovedDirectory", event: fsnotify.Event{Name: filepath.Join(root, "old"), Op: fsnotify.Remove}, path: root, isDir: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, l.relevant(tt.event, tt.path, tt.isDir, matcher))
		})
	}
}
