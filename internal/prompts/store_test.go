package prompts

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleTOML = `
[story]
context = "when: {{.Time}}"
user_input = "Continue with {{.Action}}"

[portrait]
[portrait.character]
prompt = "portrait of {{.Name}}"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetShared(t *testing.T) {
	t.Helper()
	sharedMu.Lock()
	sharedStores = make(map[string]*Store)
	sharedMu.Unlock()

	original := loadFile
	t.Cleanup(func() {
		loadFile = original
		sharedMu.Lock()
		sharedStores = make(map[string]*Store)
		sharedMu.Unlock()
	})
}

func TestLoad_LookupAndRender(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prompts.toml", sampleTOML)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	text, err := s.Lookup("story.context")
	require.NoError(t, err)
	assert.Equal(t, "when: {{.Time}}", text)

	out, err := s.Render("portrait.character.prompt", map[string]string{"Name": "Mina"})
	require.NoError(t, err)
	assert.Equal(t, "portrait of Mina", out)

	_, err = s.Lookup("story.missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = s.Lookup("portrait")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = s.Render("story.context", map[string]string{})
	assert.Error(t, err, "missing placeholder values must fail")
}

func TestRender_Funcs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prompts.toml", `
[list]
numbered = "{{range $i, $v := .}}{{inc $i}}. {{$v}} {{end}}"
joined = "{{join . \", \"}}"
`)
	s, err := Load(path)
	require.NoError(t, err)

	out, err := s.Render("list.numbered", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "1. a 2. b ", out)

	out, err = s.Render("list.joined", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a, b", out)
}

func TestBundledTemplates(t *testing.T) {
	for _, name := range []string{"gemini_prompts.toml", "openai_prompts.toml"} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(filepath.Join("..", "..", "prompts", name))
			require.NoError(t, err)

			for _, key := range []string{"story.context", "story.user_input", "portrait.character"} {
				_, err := s.Lookup(key)
				assert.NoError(t, err, key)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Load(writeFile(t, dir, "bad.toml", "[story\ncontext = "))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Load("")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestReload_ReplacesMapping(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "prompts.toml", sampleTOML)

	s, err := Load(path)
	require.NoError(t, err)

	writeFile(t, dir, "prompts.toml", "[story]\ncontext = \"v2\"\n")
	require.NoError(t, s.Reload())

	text, err := s.Lookup("story.context")
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
	_, err = s.Lookup("story.user_input")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	writeFile(t, dir, "prompts.toml", "not [ toml")
	assert.ErrorIs(t, s.Reload(), ErrConfig)
	text, err = s.Lookup("story.context")
	require.NoError(t, err)
	assert.Equal(t, "v2", text, "failed reload keeps previous templates")
}

func TestSetPath(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.toml", "[story]\ncontext = \"a\"\n")
	second := writeFile(t, dir, "b.toml", "[story]\ncontext = \"b\"\n")

	s, err := Load(first)
	require.NoError(t, err)

	require.NoError(t, s.SetPath(second))
	assert.Equal(t, second, s.Path())
	text, _ := s.Lookup("story.context")
	assert.Equal(t, "b", text)

	assert.ErrorIs(t, s.SetPath(filepath.Join(dir, "nope.toml")), ErrConfig)
	assert.Equal(t, second, s.Path())
}

func TestShared_ConcurrentFirstUse(t *testing.T) {
	resetShared(t)
	path := writeFile(t, t.TempDir(), "prompts.toml", sampleTOML)

	var loads atomic.Int32
	original := loadFile
	loadFile = func(p string) (map[string]any, error) {
		loads.Add(1)
		time.Sleep(10 * time.Millisecond)
		return original(p)
	}

	const n = 32
	stores := make([]*Store, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			s, err := Shared("gemini", path)
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestShared_IgnoresLaterPaths(t *testing.T) {
	resetShared(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "a.toml", "[story]\ncontext = \"a\"\n")
	second := writeFile(t, dir, "b.toml", "[story]\ncontext = \"b\"\n")

	s1, err := Shared("gemini", first)
	require.NoError(t, err)
	s2, err := Shared("gemini", second)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, first, s2.Path())
}

func TestShared_OnePerBackend(t *testing.T) {
	resetShared(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "gemini.toml", "[story]\ncontext = \"g\"\n")
	second := writeFile(t, dir, "openai.toml", "[story]\ncontext = \"o\"\n")

	g, err := Shared("gemini", first)
	require.NoError(t, err)
	o, err := Shared("openai", second)
	require.NoError(t, err)

	assert.NotSame(t, g, o)
	assert.Equal(t, second, o.Path())
	text, _ := o.Lookup("story.context")
	assert.Equal(t, "o", text)

	again, err := Shared("openai", first)
	require.NoError(t, err)
	assert.Same(t, o, again)
}

func TestReload_DoesNotOverwriteConcurrentSetPath(t *testing.T) {
	resetShared(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "a.toml", "[story]\ncontext = \"a\"\n")
	second := writeFile(t, dir, "b.toml", "[story]\ncontext = \"b\"\n")

	s, err := Load(first)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	original := loadFile
	loadFile = func(p string) (map[string]any, error) {
		if p == first {
			close(entered)
			<-release
		}
		return original(p)
	}

	reloaded := make(chan error, 1)
	go func() { reloaded <- s.Reload() }()
	<-entered

	moved := make(chan error, 1)
	go func() { moved <- s.SetPath(second) }()

	// SetPath must wait for the in-flight reload.
	select {
	case err := <-moved:
		t.Fatalf("SetPath finished during a reload: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-reloaded)
	require.NoError(t, <-moved)

	assert.Equal(t, second, s.Path())
	text, err := s.Lookup("story.context")
	require.NoError(t, err)
	assert.Equal(t, "b", text)
}

func TestShared_RetriesAfterFailedLoad(t *testing.T) {
	resetShared(t)
	dir := t.TempDir()

	_, err := Shared("gemini", filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, ErrConfig)

	s, err := Shared("gemini", writeFile(t, dir, "ok.toml", sampleTOML))
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "prompts.toml", sampleTOML)

	s, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, zaptest.NewLogger(t)) }()

	assert.Eventually(t, func() bool {
		writeFile(t, dir, "prompts.toml", "[story]\ncontext = \"hot\"\n")
		text, err := s.Lookup("story.context")
		return err == nil && text == "hot"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatch_FollowsSetPath(t *testing.T) {
	first := writeFile(t, t.TempDir(), "prompts.toml", sampleTOML)
	otherDir := t.TempDir()
	second := writeFile(t, otherDir, "prompts.toml", "[story]\ncontext = \"moved\"\n")

	s, err := Load(first)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, zaptest.NewLogger(t)) }()

	require.NoError(t, s.SetPath(second))

	assert.Eventually(t, func() bool {
		writeFile(t, otherDir, "prompts.toml", "[story]\ncontext = \"hot\"\n")
		text, err := s.Lookup("story.context")
		return err == nil && text == "hot"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
