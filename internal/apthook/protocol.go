package apthook

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
)

// EnvSocket names the environment variable carrying the inherited socket
// descriptor.
const EnvSocket = "APT_HOOK_SOCKET"

// Methods of the JSON hook protocol, version 0.2.
const (
	MethodHello              = "org.debian.apt.hooks.hello"
	MethodBye                = "org.debian.apt.hooks.bye"
	MethodInstallPrePrompt   = "org.debian.apt.hooks.install.pre-prompt"
	MethodInstallPackageList = "org.debian.apt.hooks.install.package-list"
	MethodInstallStatistics  = "org.debian.apt.hooks.install.statistics"
	MethodInstallPost        = "org.debian.apt.hooks.install.post"
	MethodInstallFail        = "org.debian.apt.hooks.install.fail"
	MethodSearchPre          = "org.debian.apt.hooks.search.pre"
	MethodSearchPost         = "org.debian.apt.hooks.search.post"
	MethodSearchFail         = "org.debian.apt.hooks.search.fail"
)

const helloResponse = `{"jsonrpc":"2.0","id":0,"result":{"version":"0.2"}}`

var (
	ErrNoSocket      = errors.New(EnvSocket + " environment variable not set")
	ErrUnexpectedEOF = errors.New("unexpected EOF in RPC stream")
)

// ProtocolError reports a malformed or out-of-order message.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Message
}

// PackageVersion is one version of a package as APT describes it.
type PackageVersion struct {
	ID           uint32 `json:"id"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
	Pin          *int   `json:"pin,omitempty"`
	Origin       string `json:"origin,omitempty"`
}

// PackageVersions holds the candidate, install and remove versions.
type PackageVersions struct {
	Candidate *PackageVersion `json:"candidate,omitempty"`
	Install   *PackageVersion `json:"install,omitempty"`
	Remove    *PackageVersion `json:"remove,omitempty"`
}

// Package is an entry in the packages parameter.
type Package struct {
	Name         string           `json:"name"`
	Architecture string           `json:"architecture,omitempty"`
	Mode         string           `json:"mode"`
	Automatic    *bool            `json:"automatic,omitempty"`
	Versions     *PackageVersions `json:"versions,omitempty"`
}

// Params carries the parameters of every method this package understands.
type Params struct {
	Command         string            `json:"command,omitempty"`
	SearchTerms     []string          `json:"search-terms,omitempty"`
	UnknownPackages []string          `json:"unknown-packages,omitempty"`
	Packages        []Package         `json:"packages,omitempty"`
	Versions        []string          `json:"versions,omitempty"`
	Options         []json.RawMessage `json:"options,omitempty"`
}

// Request is a single JSON-RPC request or notification from APT.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  *Params         `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Message is a hook event delivered to callers after the handshake.
type Message struct {
	Method string
	Params Params
}

// Stream reads hook messages from APT. The hello handshake is answered
// automatically on the first call to Next.
type Stream struct {
	r        *bufio.Reader
	w        io.Writer
	sawHello bool
	done     bool
}

// NewStream creates a stream reading requests from r and writing responses
// to w.
func NewStream(r io.Reader, w io.Writer) *Stream {
	return &Stream{r: bufio.NewReader(r), w: w}
}

// Next returns the next install.statistics, install.post or install.fail
// message. It returns io.EOF after bye. Other methods are skipped. Any error
// ends the stream.
func (s *Stream) Next() (*Message, error) {
	if s.done {
		return nil, io.EOF
	}

	if !s.sawHello {
		if err := s.handshake(); err != nil {
			s.done = true
			return nil, err
		}
	}

	for {
		req, err := s.readRequest()
		if err != nil {
			s.done = true
			return nil, err
		}

		switch req.Method {
		case MethodBye:
			s.done = true
			return nil, io.EOF
		case MethodInstallStatistics, MethodInstallPost, MethodInstallFail:
			msg := &Message{Method: req.Method}
			if req.Params != nil {
				msg.Params = *req.Params
			}
			return msg, nil
		case MethodHello:
			s.done = true
			return nil, &ProtocolError{Message: "unexpected hello message after handshake"}
		default:
			// Search events, the pre-prompt and methods from newer revisions.
			continue
		}
	}
}

func (s *Stream) handshake() error {
	req, err := s.readRequest()
	if err != nil {
		return err
	}
	if req.Method != MethodHello {
		return &ProtocolError{Message: fmt.Sprintf("unexpected method %s before hello", req.Method)}
	}

	if _, err := io.WriteString(s.w, helloResponse+"\n\n"); err != nil {
		return fmt.Errorf("failed to send hello response: %w", err)
	}
	s.sawHello = true
	return nil
}

// readRequest reads one JSON line and the empty line that terminates it.
func (s *Stream) readRequest() (*Request, error) {
	line, err := s.r.ReadString('\n')
	if line == "" {
		if err == nil || err == io.EOF {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}

	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	empty, err := s.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if strings.TrimSpace(empty) != "" {
		return nil, &ProtocolError{Message: fmt.Sprintf("expected empty line, got: %s", empty)}
	}

	return &req, nil
}

// Socket opens the connection APT passes through $APT_HOOK_SOCKET.
func Socket() (net.Conn, error) {
	env := os.Getenv(EnvSocket)
	if env == "" {
		return nil, ErrNoSocket
	}

	fd, err := strconv.Atoi(env)
	if err != nil || fd < 0 {
		return nil, fmt.Errorf("%s is not a valid file descriptor: %q", EnvSocket, env)
	}

	f := os.NewFile(uintptr(fd), "apt-hook-socket")
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection: %w", err)
	}
	return conn, nil
}
