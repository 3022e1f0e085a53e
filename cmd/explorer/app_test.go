package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"explorer.pub/explorer/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const testCompilers = `[
	{"id": "g132", "name": "x86-64 gcc 13.2", "lang": "c++", "compilerType": "gcc", "semver": "13.2", "supportsExecute": true},
	{"id": "cl19", "name": "x64 msvc v19", "lang": "c++", "compilerType": "win32-vc", "supportsExecute": false}
]`

// recorder keeps the url of every request a test server received.
type recorder struct {
	mu   sync.Mutex
	urls []*url.URL
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, req.URL)
}

func (r *recorder) URLs() []*url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*url.URL(nil), r.urls...)
}

// newTestServer serves the compiler list and answers every compile request with compileBody.
func newTestServer(t *testing.T, compileBody string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/compilers/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		io.WriteString(w, testCompilers)
	})
	mux.HandleFunc("/api/compiler/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		io.WriteString(w, compileBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, rec
}

// runApp runs the CLI with args, returning stdout, stderr and the exit code it requested.
func runApp(t *testing.T, args ...string) (string, string, int, error) {
	t.Helper()
	for _, key := range []string{"EXPLORER_URL", "EXPLORER_LANGUAGE", "EXPLORER_FORMAT", "EXPLORER_HTTP_TIMEOUT_SECONDS", "EXPLORER_RESULT_CACHE_SIZE"} {
		t.Setenv(key, "")
	}

	var (
		stdout, stderr bytes.Buffer
		code           int
	)
	exiter := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = exiter })

	app := newApp(context.Background())
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"explorer"}, args...))
	return stdout.String(), stderr.String(), code, err
}

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))
	return path
}

func TestAppCompilers(t *testing.T) {
	srv, requests := newTestServer(t, "")

	stdout, _, code, err := runApp(t, "--url", srv.URL, "compilers", "--lang", "c++")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "g132")
	assert.Contains(t, lines[2], "cl19")
	assert.Contains(t, lines[2], "false")

	urls := requests.URLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "/api/compilers/c++", urls[0].Path)
	assert.Equal(t, "/api/compilers/c%2B%2B", urls[0].EscapedPath())
}

func TestAppCompilersJSON(t *testing.T) {
	srv, _ := newTestServer(t, "")

	stdout, _, _, err := runApp(t, "--url", srv.URL, "--json", "compilers")
	require.NoError(t, err)

	var descriptors []result.CompilerDescriptor
	require.NoError(t, json.Unmarshal([]byte(stdout), &descriptors))
	require.Len(t, descriptors, 2)
	assert.Equal(t, "g132", descriptors[0].ID)
}

func TestAppCompile(t *testing.T) {
	srv, requests := newTestServer(t, "main:\n  ret\n# Compiler exited with result code 0\n")
	path := writeSource(t, "int main() {}")

	stdout, stderr, code, err := runApp(t,
		"--url", srv.URL,
		"compile", "--format", "text", "--type", "gcc", "--version", "13.2", "--filter", "intel", "--arg", "-O2",
		path,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "main:\n  ret\n", stdout)
	assert.Contains(t, stderr, "compiler exited with code 0")

	urls := requests.URLs()
	require.Len(t, urls, 2)
	assert.Equal(t, "/api/compiler/g132/compile", urls[1].Path)
	assert.Equal(t, "intel", urls[1].Query().Get("filters"))
}

func TestAppCompileFailureExitCode(t *testing.T) {
	srv, _ := newTestServer(t, "# Compiler exited with result code 1\n# Standard error:\nerror: expected '}'\n")
	path := writeSource(t, "int main() {")

	_, stderr, code, err := runApp(t, "--url", srv.URL, "--format", "text", "compile", "--compiler", "g132", path)
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: expected '}'")
	assert.Contains(t, stderr, "compiler exited with code 1")
}

func TestAppCompileUnknownFilter(t *testing.T) {
	srv, requests := newTestServer(t, "")
	path := writeSource(t, "int main() {}")

	_, _, _, err := runApp(t, "--url", srv.URL, "compile", "--compiler", "g132", "--filter", "bogus", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown filter "bogus"`)
	assert.Empty(t, requests.URLs())
}

func TestAppCompileUnknownCompiler(t *testing.T) {
	srv, _ := newTestServer(t, "")
	path := writeSource(t, "int main() {}")

	_, _, _, err := runApp(t, "--url", srv.URL, "compile", "--compiler", "icc", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler not found")
}

func TestAppExecute(t *testing.T) {
	body := "# Compiler exited with result code 0\n" +
		"# Execution result with exit code 3\n" +
		"# Standard out:\n" +
		"hello\n"
	srv, requests := newTestServer(t, body)
	path := writeSource(t, "int main() { puts(\"hello\"); return 3; }")

	stdout, stderr, code, err := runApp(t,
		"--url", srv.URL, "--format", "text",
		"execute", "--compiler", "g132", "--exec-arg", "x",
		path,
	)
	require.Error(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "hello\n", stdout)
	assert.Contains(t, stderr, "build exited with code 0")
	assert.Contains(t, stderr, "program exited with code 3")

	urls := requests.URLs()
	require.Len(t, urls, 2)
	query := urls[1].Query()
	assert.Equal(t, "execute", query.Get("filters"))
	assert.Equal(t, "true", query.Get("skipAsm"))
	assert.Equal(t, "true", query.Get("executorRequest"))
}

func TestAppExecuteBuildFailure(t *testing.T) {
	srv, requests := newTestServer(t, "# Compiler exited with result code 1\n# Standard error:\nerror: expected '}'\n")
	path := writeSource(t, "int main() {")

	stdout, stderr, code, err := runApp(t,
		"--url", srv.URL, "--format", "text",
		"execute", "--compiler", "g132", "--arg", "-Wall", "--arg", "-O2",
		path,
	)
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error: expected '}'\n# build exited with code 1\n", stderr)
	assert.Len(t, requests.URLs(), 2)
}

func TestAppExecuteUnsupported(t *testing.T) {
	srv, requests := newTestServer(t, "")
	path := writeSource(t, "int main() {}")

	_, _, _, err := runApp(t, "--url", srv.URL, "execute", "--compiler", "cl19", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support execution")
	assert.Len(t, requests.URLs(), 1)
}

func TestAppConfigFile(t *testing.T) {
	srv, requests := newTestServer(t, "")
	cfgPath := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("url: "+srv.URL+"\nlanguage: c\n"), 0o600))

	_, _, _, err := runApp(t, "--config", cfgPath, "compilers")
	require.NoError(t, err)
	urls := requests.URLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "/api/compilers/c", urls[0].Path)

	// Flags override the file
	_, _, _, err = runApp(t, "--config", cfgPath, "--lang", "rust", "compilers")
	require.NoError(t, err)
	urls = requests.URLs()
	require.Len(t, urls, 2)
	assert.Equal(t, "/api/compilers/rust", urls[1].Path)
}

func TestFindCompilerRequiresSelection(t *testing.T) {
	_, err := findCompiler(context.Background(), nil, "", "gcc", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--compiler")
}

func TestReadSource(t *testing.T) {
	data, err := readSource("-", strings.NewReader("int main() {}"))
	require.NoError(t, err)
	assert.Equal(t, "int main() {}", string(data))

	data, err = readSource(writeSource(t, "int x;"), nil)
	require.NoError(t, err)
	assert.Equal(t, "int x;", string(data))

	_, err = readSource(filepath.Join(t.TempDir(), "missing.cpp"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
