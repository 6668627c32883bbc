package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestRingKeepsMostRecent(t *testing.T) {
	r := NewRing(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		r.Append(s)
	}

	assert.Equal(t, []string{"c", "d", "e"}, texts(r.Lines()))

	r.Clear()
	assert.Empty(t, r.Lines())
}

func TestFileSinkFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "log.txt")
	s, err := NewFileSink(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	s.now = func() time.Time { return time.Date(2024, 3, 5, 9, 7, 0, 0, time.Local) }
	s.Append("Started download for 127.0.0.1:21")
	s.Append("Cancelled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2024-03-05 09:07 Started download for 127.0.0.1:21\n2024-03-05 09:07 Cancelled\n",
		string(data))

	s.Clear()
	s.Append("after clear")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), "after clear")
}

func TestFileSinkAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	s, err := NewFileSink(path)
	require.NoError(t, err)
	s.Append("first")
	require.NoError(t, s.Close())

	s, err = NewFileSink(path)
	require.NoError(t, err)
	s.Append("second")
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestFileSinkSetPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	s.Append("one")
	require.NoError(t, s.SetPath(filepath.Join(dir, "b.txt")))
	s.Append("two")

	a, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(a), "one")
	assert.Contains(t, string(b), "two")
	assert.Equal(t, filepath.Join(dir, "b.txt"), s.Path())
}

func TestMulti(t *testing.T) {
	a, b := NewRing(10), NewRing(10)
	m := Multi(a, b)

	m.Append("x")
	assert.Equal(t, []string{"x"}, texts(a.Lines()))
	assert.Equal(t, []string{"x"}, texts(b.Lines()))

	m.Clear()
	assert.Empty(t, a.Lines())
	assert.Empty(t, b.Lines())
}
