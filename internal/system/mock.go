package system

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// MockFS is an in-memory FileSystem. Directories are implied by the files
// added below them.
type MockFS struct {
	mu      sync.RWMutex
	files   map[string][]byte
	dirs    map[string]bool
	tempSeq int

	// ReadFileErr and MkdirTempErr, when set, fail every call.
	ReadFileErr  error
	MkdirTempErr error
}

// NewMockFS returns an empty MockFS.
func NewMockFS() *MockFS {
	return &MockFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile stores data at p and records its parent directories. The mode
// is accepted for symmetry with WriteFile and not kept.
func (m *MockFS) AddFile(p string, data []byte, _ fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = data
	m.mkdirAll(path.Dir(p))
}

func (m *MockFS) mkdirAll(dir string) {
	for dir != "." && dir != "/" {
		m.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

func (m *MockFS) ReadFile(p string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *MockFS) WriteFile(p string, data []byte, perm fs.FileMode) error {
	m.AddFile(p, append([]byte(nil), data...), perm)
	return nil
}

// Remove deletes a file or a directory with nothing below it.
func (m *MockFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[p]; ok {
		delete(m.files, p)
		return nil
	}
	if !m.dirs[p] {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	for f := range m.files {
		if strings.HasPrefix(f, p+"/") {
			return &fs.PathError{Op: "remove", Path: p, Err: fmt.Errorf("directory not empty")}
		}
	}
	delete(m.dirs, p)
	return nil
}

func (m *MockFS) MkdirAll(p string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(path.Clean(p))
	return nil
}

// MkdirTemp replaces the last '*' of pattern, or appends, a sequence number.
func (m *MockFS) MkdirTemp(dir, pattern string) (string, error) {
	if m.MkdirTempErr != nil {
		return "", m.MkdirTempErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tempSeq++
	prefix, suffix := pattern, ""
	if i := strings.LastIndexByte(pattern, '*'); i >= 0 {
		prefix, suffix = pattern[:i], pattern[i+1:]
	}
	p := path.Join(dir, fmt.Sprintf("%s%d%s", prefix, m.tempSeq, suffix))
	m.mkdirAll(p)
	return p, nil
}

func (m *MockFS) IsDir(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[path.Clean(p)]
}

// MockExecutor records commands and answers them from Handler, or else
// from Responses.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Handler, when set, answers every command. In-memory fakes of the
	// zfs and zpool programs plug in here.
	Handler func(name string, args []string) ([]byte, error)

	// Responses is keyed by the full command line, then "name arg1", then
	// the bare name. Unmatched commands succeed with no output.
	Responses map[string]MockResponse
}

// MockCommand records an executed command.
type MockCommand struct {
	Name string
	Args []string
}

// String renders the command as a single space-joined line.
func (c MockCommand) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse is a canned command result.
type MockResponse struct {
	Output []byte
	Err    error
}

// NewMockExecutor returns a MockExecutor with no responses.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{Responses: make(map[string]MockResponse)}
}

// AddResponse answers commands matching key.
func (m *MockExecutor) AddResponse(key string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[key] = MockResponse{Output: output, Err: err}
}

func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	cmd := MockCommand{Name: name, Args: append([]string(nil), args...)}
	m.Commands = append(m.Commands, cmd)
	handler := m.Handler
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler != nil {
		return handler(name, args)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{cmd.String()}
	if len(args) > 0 {
		keys = append(keys, name+" "+args[0])
	}
	for _, key := range append(keys, name) {
		if resp, ok := m.Responses[key]; ok {
			return resp.Output, resp.Err
		}
	}
	return nil, nil
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// CommandLines returns every recorded command rendered with String.
func (m *MockExecutor) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.String()
	}
	return lines
}
