package domain

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// VersionInfo mirrors the interpreter's structured version tuple.
type VersionInfo struct {
	Major        int    `json:"major" yaml:"major"`
	Minor        int    `json:"minor" yaml:"minor"`
	Micro        int    `json:"micro" yaml:"micro"`
	ReleaseLevel string `json:"releaselevel" yaml:"releaselevel"`
	Serial       int    `json:"serial" yaml:"serial"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Info describes one interpreter: its identity, installation layout and
// platform tags.
//
// Executable is the path the caller asked about. SystemExecutable is the real
// binary it resolves to, which may live in a different installation.
type Info struct {
	Platform           string            `json:"platform" yaml:"platform"`
	Implementation     string            `json:"implementation" yaml:"implementation"`
	VersionInfo        VersionInfo       `json:"version_info" yaml:"version_info"`
	Architecture       int               `json:"architecture" yaml:"architecture"`
	Version            string            `json:"version" yaml:"version"`
	VersionNodot       string            `json:"version_nodot" yaml:"version_nodot"`
	OS                 string            `json:"os" yaml:"os"`
	Prefix             string            `json:"prefix" yaml:"prefix"`
	BasePrefix         string            `json:"base_prefix" yaml:"base_prefix"`
	RealPrefix         string            `json:"real_prefix,omitempty" yaml:"real_prefix,omitempty"`
	ExecPrefix         string            `json:"exec_prefix" yaml:"exec_prefix"`
	BaseExecPrefix     string            `json:"base_exec_prefix" yaml:"base_exec_prefix"`
	Executable         string            `json:"executable" yaml:"executable"`
	OriginalExecutable string            `json:"original_executable" yaml:"original_executable"`
	SystemExecutable   string            `json:"system_executable,omitempty" yaml:"system_executable,omitempty"`
	HasVenv            bool              `json:"has_venv" yaml:"has_venv"`
	Path               []string          `json:"path" yaml:"path"`
	FileSystemEncoding string            `json:"file_system_encoding" yaml:"file_system_encoding"`
	StdoutEncoding     string            `json:"stdout_encoding" yaml:"stdout_encoding"`
	SysconfigScheme    string            `json:"sysconfig_scheme,omitempty" yaml:"sysconfig_scheme,omitempty"`
	SysconfigPaths     map[string]string `json:"sysconfig_paths" yaml:"sysconfig_paths"`
	MaxSize            int64             `json:"max_size" yaml:"max_size"`
}

// FromJSON decodes the textual payload emitted by the bootstrap script.
func FromJSON(text string) (*Info, error) {
	return decodeInfo([]byte(text))
}

// FromMap rebuilds a record from its exported mapping form.
func FromMap(m map[string]any) (*Info, error) {
	if m == nil {
		return nil, &DecodeError{Reason: "empty content"}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, &DecodeError{Reason: "encode mapping", Err: err}
	}
	return decodeInfo(data)
}

func decodeInfo(data []byte) (*Info, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.DisallowUnknownFields()

	var info Info
	if err := dec.Decode(&info); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}
	if err := info.validate(); err != nil {
		return nil, err
	}
	return &info, nil
}

func (i *Info) validate() error {
	switch {
	case i.Implementation == "":
		return &DecodeError{Reason: "missing implementation"}
	case i.VersionInfo.Major <= 0:
		return &DecodeError{Reason: "missing version_info"}
	case i.Executable == "":
		return &DecodeError{Reason: "missing executable"}
	}
	return nil
}

// ToMap exports the record as a plain mapping. Numbers are kept as
// json.Number so a FromMap round trip is lossless.
func (i *Info) ToMap() map[string]any {
	data, err := json.Marshal(i)
	if err != nil {
		// Info only holds strings, numbers, slices and string maps.
		panic(fmt.Sprintf("marshal info: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		panic(fmt.Sprintf("unmarshal info: %v", err))
	}
	return m
}

// Clone returns a deep copy.
func (i *Info) Clone() *Info {
	c := *i
	if i.Path != nil {
		c.Path = append([]string(nil), i.Path...)
	}
	if i.SysconfigPaths != nil {
		c.SysconfigPaths = make(map[string]string, len(i.SysconfigPaths))
		for k, v := range i.SysconfigPaths {
			c.SysconfigPaths[k] = v
		}
	}
	return &c
}

func (i *Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Implementation, i.VersionInfo, i.Executable)
}

// CurrentProcess describes the running process itself. It is the record the
// memory cache is seeded with, keyed by its Executable.
func CurrentProcess() *Info {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	sys := exe
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		sys = resolved
	}

	var v VersionInfo
	goVer := strings.TrimPrefix(runtime.Version(), "go")
	parts := strings.SplitN(goVer, ".", 3)
	nums := []*int{&v.Major, &v.Minor, &v.Micro}
	for idx, p := range parts {
		end := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' })
		if end == -1 {
			end = len(p)
		}
		n, err := strconv.Atoi(p[:end])
		if err != nil {
			break
		}
		*nums[idx] = n
	}
	v.ReleaseLevel = "final"
	if v.Major == 0 {
		// devel toolchains report "devel +hash"
		v.Major = 1
		v.ReleaseLevel = "alpha"
	}

	prefix := filepath.Dir(filepath.Dir(sys))
	return &Info{
		Platform:           runtime.GOOS,
		Implementation:     "go",
		VersionInfo:        v,
		Architecture:       strconv.IntSize,
		Version:            runtime.Version(),
		VersionNodot:       fmt.Sprintf("%d%d", v.Major, v.Minor),
		OS:                 runtime.GOOS + "/" + runtime.GOARCH,
		Prefix:             prefix,
		BasePrefix:         prefix,
		ExecPrefix:         prefix,
		BaseExecPrefix:     prefix,
		Executable:         exe,
		OriginalExecutable: exe,
		SystemExecutable:   sys,
		Path:               filepath.SplitList(os.Getenv("PATH")),
		FileSystemEncoding: "utf-8",
		StdoutEncoding:     "utf-8",
		SysconfigPaths:     map[string]string{},
		MaxSize:            int64(^uint(0) >> 1),
	}
}

// CacheEntry is the durable record kept per executable path.
type CacheEntry struct {
	Path    string         `json:"path"`
	STMtime float64        `json:"st_mtime"`
	Content map[string]any `json:"content"`
}
