//go:build unix

package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interpinfo/internal/adapter/cookie"
	"interpinfo/internal/adapter/script"
	"interpinfo/internal/domain"
)

const (
	startCookie = "StartCookieAAAAAAAAAAAAAAAAAAAA1"
	endCookie   = "EndCookieBBBBBBBBBBBBBBBBBBBBBB2"
)

// fixedCookies hands out the start cookie, then the end cookie.
type fixedCookies struct{ n int }

func (f *fixedCookies) Generate() string {
	f.n++
	if f.n%2 == 1 {
		return startCookie
	}
	return endCookie
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeInterpreter writes a shell script standing in for an interpreter. body
// runs after the argv check; $1 is the bootstrap path.
func fakeInterpreter(t *testing.T, body string) string {
	t.Helper()
	exe := filepath.Join(t.TempDir(), "python3")
	src := "#!/bin/sh\n" +
		"[ -f \"$1\" ] || exit 90\n" +
		"[ \"$2\" = '" + startCookie + "' ] || exit 91\n" +
		"[ \"$3\" = '" + endCookie + "' ] || exit 92\n" +
		body
	require.NoError(t, os.WriteFile(exe, []byte(src), 0755))
	return exe
}

func payloadJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(&domain.Info{
		Platform:           "linux",
		Implementation:     "CPython",
		VersionInfo:        domain.VersionInfo{Major: 3, Minor: 11, Micro: 4, ReleaseLevel: "final"},
		Architecture:       64,
		Version:            "3.11.4",
		VersionNodot:       "311",
		OS:                 "posix",
		Prefix:             "/usr",
		BasePrefix:         "/usr",
		ExecPrefix:         "/usr",
		BaseExecPrefix:     "/usr",
		Executable:         "/reported/by/child",
		OriginalExecutable: "/reported/by/child",
		SystemExecutable:   "/usr/bin/python3.11",
		Path:               []string{"/usr/lib/python3.11"},
		FileSystemEncoding: "utf-8",
		StdoutEncoding:     "utf-8",
		SysconfigPaths:     map[string]string{},
		MaxSize:            9223372036854775807,
	})
	require.NoError(t, err)
	return string(data)
}

func emit(text string) string {
	return "cat <<'EOF_PAYLOAD'\n" + text + "\nEOF_PAYLOAD\n"
}

func newTestRunner(t *testing.T, noise *bytes.Buffer) *ProcessRunner {
	t.Helper()
	scripts := script.NewMaterializer(t.TempDir(), "py_info.py", []byte("# bootstrap\n"), nopLogger{})
	return NewProcessRunner(scripts, &fixedCookies{}, noise, nopLogger{})
}

func TestInterrogate_DecodesFramedPayload(t *testing.T) {
	framed := "noise before\n" + cookie.Wrap(payloadJSON(t), startCookie, endCookie) + "noise after"
	exe := fakeInterpreter(t, emit(framed))

	var noise bytes.Buffer
	info, err := newTestRunner(t, &noise).Interrogate(exe, nil)
	require.NoError(t, err)

	assert.Equal(t, "CPython", info.Implementation)
	assert.Equal(t, 3, info.VersionInfo.Major)
	assert.Equal(t, int64(9223372036854775807), info.MaxSize)
	assert.Equal(t, exe, info.Executable, "executable is the requested path")
	assert.Equal(t, "/usr/bin/python3.11", info.SystemExecutable)
	assert.Equal(t, "noise before\nnoise after\n", noise.String())
}

func TestInterrogate_MissingMarkersTolerated(t *testing.T) {
	exe := fakeInterpreter(t, emit(payloadJSON(t)))

	var noise bytes.Buffer
	info, err := newTestRunner(t, &noise).Interrogate(exe, nil)
	require.NoError(t, err)
	assert.Equal(t, "CPython", info.Implementation)
	assert.Empty(t, noise.String())
}

func TestInterrogate_NonZeroExit(t *testing.T) {
	exe := fakeInterpreter(t, "echo partial\necho boom >&2\nexit 3\n")

	_, err := newTestRunner(t, &bytes.Buffer{}).Interrogate(exe, nil)
	require.Error(t, err)

	var ie *domain.InterrogationError
	require.True(t, errors.As(err, &ie), "got %T", err)
	assert.Equal(t, domain.NonZeroExit, ie.Kind)
	assert.Equal(t, 3, ie.Code)
	assert.Equal(t, exe, ie.Executable)
	assert.Equal(t, "partial\n", ie.Stdout)
	assert.Equal(t, "boom\n", ie.Stderr)
	assert.Equal(t, "failed to query "+exe+` with code 3 out: "partial\n" err: "boom\n"`, err.Error())
}

func TestInterrogate_SpawnFailure(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "missing-python")

	_, err := newTestRunner(t, &bytes.Buffer{}).Interrogate(exe, nil)
	require.Error(t, err)

	var ie *domain.InterrogationError
	require.True(t, errors.As(err, &ie), "got %T", err)
	assert.Equal(t, domain.SpawnFailure, ie.Kind)
	assert.Equal(t, int(syscall.ENOENT), ie.Code)
	assert.NotEmpty(t, ie.Stderr)
}

func TestInterrogate_UndecodablePayload(t *testing.T) {
	exe := fakeInterpreter(t, emit(cookie.Wrap("not json", startCookie, endCookie)))

	_, err := newTestRunner(t, &bytes.Buffer{}).Interrogate(exe, nil)
	require.Error(t, err)

	var de *domain.DecodeError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestInterrogate_StripsLauncherVariable(t *testing.T) {
	exe := fakeInterpreter(t, "echo \"launcher=${__PYVENV_LAUNCHER__:-unset} keep=$KEEP_ME\" >&2\nexit 4\n")

	env := []string{"PATH=/usr/bin:/bin", "__PYVENV_LAUNCHER__=/framework/python", "KEEP_ME=yes"}
	_, err := newTestRunner(t, &bytes.Buffer{}).Interrogate(exe, env)

	var ie *domain.InterrogationError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "launcher=unset keep=yes\n", ie.Stderr)
}

func TestChildEnv(t *testing.T) {
	got := childEnv([]string{"A=1", "__PYVENV_LAUNCHER__=x", "__PYVENV_LAUNCHER__X=y", "B=2"})
	assert.Equal(t, []string{"A=1", "__PYVENV_LAUNCHER__X=y", "B=2"}, got)

	t.Setenv("__PYVENV_LAUNCHER__", "inherited")
	for _, kv := range childEnv(nil) {
		assert.False(t, strings.HasPrefix(kv, "__PYVENV_LAUNCHER__="))
	}
}

func TestInterrogate_BootstrapUnavailable(t *testing.T) {
	// A file where the script directory should go makes extraction fail.
	base := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(base, nil, 0644))
	scripts := script.NewMaterializer(base, "py_info.py", []byte("x"), nopLogger{})
	r := NewProcessRunner(scripts, &fixedCookies{}, &bytes.Buffer{}, nopLogger{})

	_, err := r.Interrogate("/bin/true", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "materialize bootstrap script")
}
