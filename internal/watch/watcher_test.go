package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/scenariowatch/internal/testutil"
)

func mustRule(t *testing.T, pattern, target string) Rule {
	t.Helper()
	r, err := NewRule(pattern, target)
	require.NoError(t, err)
	return r
}

func TestRule_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		target  string
		rel     string
		want    string
		ok      bool
	}{
		{"default js", DefaultPattern, "", "scenario/login.js", "scenario/login.js", true},
		{"default coffee nested", DefaultPattern, "", "scenario/admin/users.coffee", "scenario/admin/users.coffee", true},
		{"default other dir", DefaultPattern, "", "app/login.js", "", false},
		{"default other ext", DefaultPattern, "", "scenario/readme.md", "", false},
		{"mapped", `^app/views/(\w+)/.+\.erb$`, "scenario/$1.js", "app/views/users/index.erb", "scenario/users.js", true},
		{"mapped named", `^lib/(?P<name>\w+)\.rb$`, "scenario/${name}", "lib/cart.rb", "scenario/cart", true},
		{"constant target", `^public/css/`, "scenario", "public/css/site.css", "scenario", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mustRule(t, tt.pattern, tt.target).Match(tt.rel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRule_InvalidPattern(t *testing.T) {
	_, err := NewRule(`^scenario/(`, "")
	assert.ErrorContains(t, err, "invalid watch pattern")
}

func TestMatchAll_Dedupes(t *testing.T) {
	rules := []Rule{
		mustRule(t, `^app/`, "scenario"),
		mustRule(t, `^app/models/`, "scenario"),
		mustRule(t, `^app/models/(\w+)\.rb$`, "scenario/$1.js"),
	}

	got := MatchAll(rules, "app/models/user.rb")

	assert.Equal(t, []string{"scenario", "scenario/user.js"}, got)
	assert.Nil(t, MatchAll(rules, "lib/user.rb"))
}

func TestWatcher_Map(t *testing.T) {
	root := t.TempDir()
	w := New(Config{Root: root, Rules: []Rule{mustRule(t, DefaultPattern, "")}}, nil)

	assert.Equal(t, []string{"scenario/a.js"}, w.Map(filepath.Join(root, "scenario", "a.js")))
	assert.Equal(t, []string{"scenario/a.js"}, w.Map("scenario/a.js"))
	assert.Nil(t, w.Map(filepath.Join(filepath.Dir(root), "scenario", "a.js")))
}

func TestWatcher_MapRelativeRoot(t *testing.T) {
	root := t.TempDir()
	chdirForTest(t, root)
	w := New(Config{Root: ".", Rules: []Rule{mustRule(t, DefaultPattern, "")}}, nil)

	assert.Equal(t, []string{"scenario/a.js"}, w.Map(filepath.Join(root, "scenario", "a.js")))
	assert.Nil(t, w.Map(filepath.Join(filepath.Dir(root), "other", "scenario", "a.js")))
}

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) handle(_ context.Context, paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestWatcher_Run_DebouncesBatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scenario"), 0o755))

	b := &batches{}
	w := New(Config{
		Root:     root,
		Rules:    []Rule{mustRule(t, DefaultPattern, "")},
		Debounce: 150 * time.Millisecond,
		Logger:   testutil.NewTestLogger(t),
	}, b.handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// Let the watcher register the tree before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "scenario", "b.js"), []byte("describe 'B'"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scenario", "a.js"), []byte("describe 'A'"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	require.Eventually(t, func() bool { return len(b.snapshot()) > 0 }, 3*time.Second, 20*time.Millisecond)

	got := b.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"scenario/a.js", "scenario/b.js"}, got[0])
}

func TestWatcher_Run_NewDirectory(t *testing.T) {
	root := t.TempDir()

	b := &batches{}
	w := New(Config{
		Root:     root,
		Rules:    []Rule{mustRule(t, DefaultPattern, "")},
		Debounce: 50 * time.Millisecond,
	}, b.handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scenario"), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "scenario", "new.js"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		for _, batch := range b.snapshot() {
			for _, p := range batch {
				if p == "scenario/new.js" {
					return true
				}
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_Run_MissingRoot(t *testing.T) {
	w := New(Config{Root: filepath.Join(t.TempDir(), "missing")}, func(context.Context, []string) {})

	assert.Error(t, w.Run(context.Background()))
}
