package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type result struct {
	out string
	err string
}

// nook runs one command line against the library in dataDir.
func nook(t *testing.T, dataDir string, stdin string, args ...string) (result, error) {
	t.Helper()

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))

	err := root.Execute()
	return result{out: out.String(), err: errOut.String()}, err
}

func mustNook(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	res, err := nook(t, dataDir, "", args...)
	require.NoError(t, err, "nook %v\nstderr: %s", args, res.err)
	return res.out
}

// firstField returns the first whitespace-separated token, usually an id.
func firstField(t *testing.T, s string) string {
	t.Helper()
	f := strings.Fields(s)
	require.NotEmpty(t, f, "no output")
	return f[0]
}

func isolateHome(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

// scriptedReader feeds prepared lines to the reading shell.
type scriptedReader struct {
	lines   []string
	history []string
	closed  bool
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	l := r.lines[0]
	r.lines = r.lines[1:]
	return l, nil
}

func (r *scriptedReader) AppendHistory(item string) { r.history = append(r.history, item) }

func (r *scriptedReader) ReadHistory(io.Reader) (int, error) { return 0, nil }

func (r *scriptedReader) WriteHistory(w io.Writer) (int, error) {
	n, err := io.WriteString(w, strings.Join(r.history, "\n"))
	return n, err
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func stubLineReader(t *testing.T, r lineReader) {
	t.Helper()
	orig := newLineReader
	newLineReader = func() lineReader { return r }
	t.Cleanup(func() { newLineReader = orig })
}

func stubTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(io.Reader) bool { return tty }
	t.Cleanup(func() { isTerminal = orig })
}
