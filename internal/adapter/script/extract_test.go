package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestEnsure_ExtractsOnce(t *testing.T) {
	base := t.TempDir()
	m := NewMaterializer(base, "probe.sh", []byte("#!/bin/sh\necho hi\n"), nopLogger{})

	path, release, err := m.Ensure()
	require.NoError(t, err)
	defer release()

	assert.Equal(t, m.ScriptPath(), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	before := info.ModTime()

	again, release2, err := m.Ensure()
	require.NoError(t, err)
	defer release2()
	assert.Equal(t, path, again)

	info, err = os.Stat(again)
	require.NoError(t, err)
	assert.Equal(t, before, info.ModTime(), "existing script should not be rewritten")
}

func TestEnsure_ContentChangesPath(t *testing.T) {
	base := t.TempDir()
	a := NewMaterializer(base, "probe.sh", []byte("v1"), nopLogger{})
	b := NewMaterializer(base, "probe.sh", []byte("v2"), nopLogger{})
	assert.NotEqual(t, a.ScriptPath(), b.ScriptPath())
	assert.Equal(t, base, filepath.Dir(filepath.Dir(a.ScriptPath())))
}

func TestEnsure_TemporaryWhenNoBaseDir(t *testing.T) {
	m := NewMaterializer("", "probe.sh", []byte("x"), nopLogger{})

	path, release, err := m.Ensure()
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "release should remove the temporary copy")
}

func TestBootstrap_Embedded(t *testing.T) {
	require.NotEmpty(t, Bootstrap)
	m := NewBootstrap(t.TempDir(), nopLogger{})
	assert.Equal(t, "py_info.py", filepath.Base(m.ScriptPath()))
}
