package grammar

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry(WithLanguages(Go()))

	lang, err := reg.Lookup("go")
	require.NoError(t, err)
	assert.Equal(t, "go", lang.Name)

	lang, err = reg.ForPath("/src/main.GO")
	require.NoError(t, err)
	assert.Equal(t, "go", lang.Name)

	_, err = reg.Lookup("cobol")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	_, err = reg.ForPath("notes.txt")
	assert.ErrorIs(t, err, ErrUnknownLanguage)

	assert.ErrorIs(t, reg.Register(&Language{Name: "nothing"}), ErrInvalidLanguage)
	assert.Equal(t, []string{"go"}, reg.Names())
}

func TestRegisterReplacementNotifies(t *testing.T) {
	reg := NewRegistry(WithLanguages(Go()))
	var got []string
	reg.OnChange(func(l *Language) { got = append(got, l.Highlights) })

	require.NoError(t, reg.Register(&Language{Name: "other", Sitter: Go().Sitter}))
	assert.Empty(t, got, "new languages are not changes")

	require.NoError(t, reg.Register(Go().withHighlights("(comment) @comment")))
	assert.Equal(t, []string{"(comment) @comment"}, got)
}

func TestBuiltinQueryCompiles(t *testing.T) {
	q, err := Go().HighlightQuery()
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Positive(t, q.CaptureCount())

	q, err = (&Language{Name: "bare", Sitter: Go().Sitter}).HighlightQuery()
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestBracketPairs(t *testing.T) {
	var none *Language
	assert.Equal(t, DefaultBrackets, none.BracketPairs())

	pairs, err := parseBrackets([]string{"()", "«»"})
	require.NoError(t, err)
	assert.Equal(t, []BracketPair{{'(', ')'}, {'«', '»'}}, pairs)

	_, err = parseBrackets([]string{"(((" })
	assert.Error(t, err)
}

func writeManifest(t *testing.T, query string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	queryFile := filepath.Join(dir, "queries", "highlights.scm")
	require.NoError(t, os.MkdirAll(filepath.Dir(queryFile), 0o755))
	require.NoError(t, os.WriteFile(queryFile, []byte(query), 0o644))

	manifest := filepath.Join(dir, "languages.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
languages:
  - name: golang
    grammar: go
    extensions: [go, .gotmpl]
    highlights: queries/highlights.scm
    brackets: ["()", "{}"]
  - name: klingon
    grammar: klingon
`), 0o644))
	return manifest, queryFile
}

func TestLoadManifest(t *testing.T) {
	manifest, _ := writeManifest(t, "(comment) @comment")
	reg := NewRegistry()

	err := reg.LoadManifest(manifest)
	assert.ErrorIs(t, err, ErrUnknownParser, "unknown grammars are reported")

	lang, err := reg.Lookup("golang")
	require.NoError(t, err, "valid languages load anyway")
	assert.Equal(t, "(comment) @comment", lang.Highlights)
	assert.Equal(t, []BracketPair{{'(', ')'}, {'{', '}'}}, lang.Brackets)

	lang, err = reg.ForPath("x.gotmpl")
	require.NoError(t, err)
	assert.Equal(t, "golang", lang.Name)

	assert.Error(t, reg.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestReloadQuery(t *testing.T) {
	manifest, queryFile := writeManifest(t, "(comment) @comment")
	reg := NewRegistry()
	_ = reg.LoadManifest(manifest)

	var changed atomic.Int32
	reg.OnChange(func(l *Language) {
		assert.Equal(t, "golang", l.Name)
		changed.Add(1)
	})

	require.NoError(t, reg.ReloadQuery("golang"), "unchanged file is a no-op")
	assert.Equal(t, int32(0), changed.Load())

	require.NoError(t, os.WriteFile(queryFile, []byte("(identifier) @variable"), 0o644))
	require.NoError(t, reg.ReloadQuery("golang"))
	assert.Equal(t, int32(1), changed.Load())
	lang, _ := reg.Lookup("golang")
	assert.Equal(t, "(identifier) @variable", lang.Highlights)

	require.NoError(t, os.WriteFile(queryFile, []byte("(not_a_node) @x"), 0o644))
	assert.Error(t, reg.ReloadQuery("golang"))
	lang, _ = reg.Lookup("golang")
	assert.Equal(t, "(identifier) @variable", lang.Highlights, "broken query keeps the old one")

	assert.ErrorIs(t, reg.ReloadQuery("go"), ErrUnknownLanguage)
}

func TestWatchReloads(t *testing.T) {
	manifest, queryFile := writeManifest(t, "(comment) @comment")
	reg := NewRegistry()
	_ = reg.LoadManifest(manifest)

	w, err := reg.Watch()
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	defer w.Close()

	require.NoError(t, os.WriteFile(queryFile, []byte("(int_literal) @number"), 0o644))
	assert.Eventually(t, func() bool {
		lang, err := reg.Lookup("golang")
		return err == nil && lang.Highlights == "(int_literal) @number"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrWatcherClosed)
}
