package script

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"interpinfo/internal/domain"
)

// Bootstrap is the interrogation script run inside the target interpreter.
//
//go:embed py_info.py
var Bootstrap []byte

// Materializer writes a script to disk so a child interpreter can run it.
type Materializer struct {
	baseDir string
	name    string
	content []byte
	logger  domain.Logger
}

// NewBootstrap creates a Materializer for the embedded bootstrap script,
// extracted under baseDir. An empty baseDir means no persistent location:
// every Ensure writes a temporary copy that release deletes.
func NewBootstrap(baseDir string, logger domain.Logger) *Materializer {
	return NewMaterializer(baseDir, "py_info.py", Bootstrap, logger)
}

// NewMaterializer creates a Materializer for an arbitrary script.
func NewMaterializer(baseDir, name string, content []byte, logger domain.Logger) *Materializer {
	return &Materializer{
		baseDir: baseDir,
		name:    name,
		content: content,
		logger:  logger,
	}
}

// ScriptPath returns where the script lives under baseDir. The directory is
// keyed by a content hash so upgraded scripts never reuse a stale copy.
func (m *Materializer) ScriptPath() string {
	return filepath.Join(m.baseDir, fmt.Sprintf("%016x", xxhash.Sum64(m.content)), m.name)
}

// Ensure returns the path of an on-disk copy of the script.
func (m *Materializer) Ensure() (string, func(), error) {
	if m.baseDir == "" {
		return m.ensureTemp()
	}

	target := m.ScriptPath()
	if info, err := os.Stat(target); err == nil && !info.IsDir() && info.Size() == int64(len(m.content)) {
		return target, func() {}, nil
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("create script dir: %w", err)
	}

	// Write next to the target and rename, so a concurrent reader never sees
	// a partial script.
	tmp, err := os.CreateTemp(dir, ".extract-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp script: %w", err)
	}
	if _, err := tmp.Write(m.content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("write script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close script: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("chmod script: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("rename script: %w", err)
	}

	m.logger.Debug("extracted bootstrap script", "path", target)
	return target, func() {}, nil
}

func (m *Materializer) ensureTemp() (string, func(), error) {
	dir, err := os.MkdirTemp("", "interpinfo-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	target := filepath.Join(dir, m.name)
	if err := os.WriteFile(target, m.content, 0755); err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("write script: %w", err)
	}
	return target, func() { os.RemoveAll(dir) }, nil
}
