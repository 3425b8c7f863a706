package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func init() {
	color.NoColor = true
}

// run executes the CLI against db and returns its output
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"hexagraph", "--db", db, "--log-level", "error"}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := run(t, db, args...)
	require.NoError(t, err, out)
	return out
}

func TestInsertQueryDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	assert.Equal(t, "inserted\n", mustRun(t, db, "insert", "alice", "knows", "bob"))
	assert.Equal(t, "already present\n", mustRun(t, db, "insert", "alice", "knows", "bob"))
	assert.Equal(t, "inserted\n", mustRun(t, db, "insert", "bob", "knows", "carol", "work"))
	assert.Equal(t, "2\n", mustRun(t, db, "count"))

	assert.Equal(t, "true\n", mustRun(t, db, "has-edge", "alice", "knows", "bob"))
	assert.Equal(t, "false\n", mustRun(t, db, "has-edge", "alice", "knows", "bo"))
	assert.Equal(t, "true\n", mustRun(t, db, "has-node", "carol", "work"))
	assert.Equal(t, "false\n", mustRun(t, db, "has-node", "knows"))
	assert.Equal(t, "true\n", mustRun(t, db, "adjacent", "bob", "alice"))
	assert.Equal(t, "true\n", mustRun(t, db, "has-graph", "work"))

	out := mustRun(t, db, "edges", "work")
	assert.Contains(t, out, "carol")
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "1 triples")

	assert.Equal(t, "deleted\n", mustRun(t, db, "delete", "alice", "knows", "bob"))
	assert.Equal(t, "not present\n", mustRun(t, db, "delete", "alice", "knows", "bob"))
	assert.Equal(t, "1\n", mustRun(t, db, "count"))

	assert.Contains(t, mustRun(t, db, "verify"), "consistent")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db")
	file := filepath.Join(dir, "data.nq")
	require.NoError(t, os.WriteFile(file, []byte(`<http://example.org/a> <http://example.org/p> "one" .
<http://example.org/a> <http://example.org/p> "two" <http://example.org/g> .
<http://example.org/a> <http://example.org/p> "one" .
`), 0o600))

	out := mustRun(t, db, "load", "--batch", "2", file)
	assert.Contains(t, out, "read 3 quads, inserted 2")
	assert.Equal(t, "2\n", mustRun(t, db, "count"))
	assert.Equal(t, "true\n", mustRun(t, db, "has-graph", "<http://example.org/g>"))
}

func TestResolveLookup(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	id := strings.TrimSpace(mustRun(t, db, "resolve", "term"))
	assert.Equal(t, "00", id)
	assert.Equal(t, "term\n", mustRun(t, db, "lookup", id))

	_, err := run(t, db, "lookup", "7f")
	assert.Error(t, err)
	_, err = run(t, db, "lookup", "zz")
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	mustRun(t, db, "insert", "a", "b", "c")

	_, err := run(t, db, "clear")
	assert.Error(t, err)
	assert.Equal(t, "1\n", mustRun(t, db, "count"))

	assert.Equal(t, "cleared\n", mustRun(t, db, "clear", "--yes"))
	assert.Equal(t, "0\n", mustRun(t, db, "count"))
}

func TestUsageAndMaxSize(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	out := mustRun(t, db, "--max-size", "1MiB", "usage")
	assert.Contains(t, out, "of 1.0 MiB used")

	_, err := run(t, db, "--max-size", "1KiB", "insert", strings.Repeat("s", 2048), "p", "o")
	assert.ErrorContains(t, err, "capacity exceeded")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hexagraph.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("path: "+filepath.Join(dir, "db")+"\nlog_level: error\n"), 0o600))

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	require.NoError(t, app.Run([]string{"hexagraph", "--config", cfg, "insert", "a", "b", "c"}))
	assert.Equal(t, "inserted\n", out.String())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestArgumentCount(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	_, err := run(t, db, "insert", "only", "two")
	assert.ErrorContains(t, err, "usage: hexagraph insert")
}
