package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"

	"interpinfo/internal/adapter/cookie"
	"interpinfo/internal/domain"
)

// launcherEnv is set by the macOS framework launcher. Inherited by a child
// interpreter it makes the child report the parent's prefix
// (https://bugs.python.org/issue22490).
const launcherEnv = "__PYVENV_LAUNCHER__"

// ProcessRunner interrogates an interpreter by running the bootstrap script
// in a child process and decoding the framed record from its stdout.
type ProcessRunner struct {
	scripts domain.ScriptProvider
	cookies domain.CookieGenerator
	noise   io.Writer
	logger  domain.Logger
}

// NewProcessRunner creates a runner. Output the child prints outside the
// framed payload is forwarded to noise.
func NewProcessRunner(scripts domain.ScriptProvider, cookies domain.CookieGenerator, noise io.Writer, logger domain.Logger) *ProcessRunner {
	if noise == nil {
		noise = os.Stdout
	}
	return &ProcessRunner{
		scripts: scripts,
		cookies: cookies,
		noise:   noise,
		logger:  logger,
	}
}

// Interrogate runs exe with the bootstrap script and blocks until it exits.
// The returned record's Executable is exe as given, not the path the child
// resolved itself to.
func (r *ProcessRunner) Interrogate(exe string, env []string) (*domain.Info, error) {
	start := r.cookies.Generate()
	end := r.cookies.Generate()

	script, release, err := r.scripts.Ensure()
	if err != nil {
		return nil, fmt.Errorf("materialize bootstrap script: %w", err)
	}
	defer release()

	argv := []string{exe, script, start, end}
	r.logger.Debug("get interpreter info via cmd", "cmd", shellquote.Join(argv...))

	res := run(argv, childEnv(env))
	if res.code != 0 {
		return nil, &domain.InterrogationError{
			Kind:       res.kind,
			Executable: exe,
			Code:       res.code,
			Stdout:     res.stdout,
			Stderr:     res.stderr,
		}
	}

	payload := cookie.Extract(res.stdout, start, end, r.noise)
	info, err := domain.FromJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", exe, err)
	}
	info.Executable = exe
	return info, nil
}

// childEnv copies env, dropping the launcher variable.
func childEnv(env []string) []string {
	if env == nil {
		env = os.Environ()
	}
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, launcherEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

type result struct {
	kind   domain.ErrorKind
	code   int
	stdout string
	stderr string
}

// run executes argv and captures its output. Failing to start the process is
// folded into the same shape as an abnormal exit: the OS error number becomes
// the code and its message becomes stderr.
func run(argv []string, env []string) result {
	cmd := exec.Command(argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = env
	cmd.SysProcAttr = sysProcAttr()

	err := cmd.Run()
	if err == nil {
		return result{stdout: stdout.String(), stderr: stderr.String()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result{
			kind:   domain.NonZeroExit,
			code:   exitErr.ExitCode(),
			stdout: stdout.String(),
			stderr: stderr.String(),
		}
	}

	res := result{kind: domain.SpawnFailure, code: -1, stderr: err.Error()}
	var errno syscall.Errno
	switch {
	case errors.Is(err, exec.ErrNotFound):
		res.code = int(syscall.ENOENT)
	case errors.As(err, &errno):
		res.code = int(errno)
		res.stderr = errno.Error()
	}
	return res
}
