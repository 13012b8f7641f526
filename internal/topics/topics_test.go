package topics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubSource struct {
	name   string
	topics []string
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Topics(context.Context) ([]string, error) { return s.topics, s.err }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewPool_TrimsAndDedupes(t *testing.T) {
	p := NewPool([]string{"  a ", "", "b", "a", "   "})
	assert.Equal(t, []string{"a", "b"}, p.All())
	assert.Equal(t, 2, p.Len())
}

func TestPool_PickOnlyUnused(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})
	used := map[string]bool{"a": true, "c": true}

	got, ok := p.Pick(used, func(n int) int {
		assert.Equal(t, 1, n)
		return 0
	})
	require.True(t, ok)
	assert.Equal(t, "b", got)
	assert.False(t, p.Exhausted(used))

	used["b"] = true
	_, ok = p.Pick(used, func(int) int { return 0 })
	assert.False(t, ok)
	assert.True(t, p.Exhausted(used))
}

func TestFileSource_PlainText(t *testing.T) {
	path := writeFile(t, "topics.txt", "# comment\nFirst topic\n\n  Second topic  \n")
	got, err := FileSource{Path: path}.Topics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"First topic", "Second topic"}, got)
}

func TestFileSource_CSV(t *testing.T) {
	path := writeFile(t, "topics.csv", "id,text\n1, Cats rule\n2,\n3,Dogs rule\nSolo column\n")
	got, err := FileSource{Path: path}.Topics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats rule", "Dogs rule", "Solo column"}, got)
}

func TestLoad_FirstWorkingSourceWins(t *testing.T) {
	pool := Load(context.Background(), zaptest.NewLogger(t),
		stubSource{name: "broken", err: errors.New("down")},
		stubSource{name: "empty", topics: []string{" ", ""}},
		stubSource{name: "good", topics: []string{"x", "y"}},
	)
	assert.Equal(t, []string{"x", "y"}, pool.All())
}

func TestLoad_FallsBackToBuiltin(t *testing.T) {
	pool := Load(context.Background(), zaptest.NewLogger(t),
		FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")},
		DBSource{},
	)
	assert.GreaterOrEqual(t, pool.Len(), 10)
	assert.Equal(t, NewPool(Builtin).All(), pool.All())
}
