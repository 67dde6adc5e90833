// Package ssh manages SSH sessions owned by the editor host: device
// discovery, connection lifecycle, command execution and streaming, and
// file/folder upload staged through the host filesystem.
//
// A Session holds at most one open connection at a time, identified by a
// numeric handle the host assigns on Open. Operations that need a
// connection fail fast with ErrNotConnected before any host command is
// issued; Open while a connection is held fails fast with
// ErrAlreadyConnected.
package ssh

import (
	"context"
	"errors"
	"sync"

	"github.com/hostbridge/hostbridge/pkg/fsys"
	"github.com/hostbridge/hostbridge/pkg/host"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// DeviceInfo re-exports the discovery descriptor.
type DeviceInfo = protocol.DeviceInfo

var (
	// ErrAlreadyConnected is returned by Open when the session already
	// holds a connection. Close the current connection first.
	ErrAlreadyConnected = errors.New("ssh: connection already open, close the current connection first")

	// ErrNotConnected is returned by operations that require an open
	// connection when the session holds none.
	ErrNotConnected = errors.New("ssh: no open connection")
)

// Session owns at most one host-side SSH connection.
type Session struct {
	inv host.Invoker
	fs  *fsys.Client

	// mu guards connID, the only shared mutable state in the SDK.
	mu     sync.Mutex
	connID *int64
}

// NewSession returns a session over the given host connection. The session
// starts closed.
func NewSession(inv host.Invoker) *Session {
	return &Session{inv: inv, fs: fsys.New(inv)}
}

// Open establishes an SSH connection through the host. It fails with
// ErrAlreadyConnected, without issuing a host command, if the session
// already holds a connection.
func (s *Session) Open(ctx context.Context, hostname string, port int, user, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connID != nil {
		return ErrAlreadyConnected
	}

	var id int64
	if err := s.inv.Invoke(ctx, protocol.MethodSSHOpen, []any{hostname, port, user, password}, &id); err != nil {
		return err
	}

	s.connID = &id
	return nil
}

// Close closes the session's connection. Closing an already closed session
// is a no-op. On host failure the error is returned and the connection
// identifier is kept, matching the host's view of the connection.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connID == nil {
		return nil
	}

	if err := s.inv.Invoke(ctx, protocol.MethodSSHClose, []any{*s.connID}, nil); err != nil {
		return err
	}

	s.connID = nil
	return nil
}

// Connected reports whether the session holds an open connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID != nil
}

// connectionID returns the current connection identifier, or
// ErrNotConnected when the session is closed.
func (s *Session) connectionID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connID == nil {
		return 0, ErrNotConnected
	}
	return *s.connID, nil
}

// Exec runs a command over the open connection and returns its captured
// output as text.
func (s *Session) Exec(ctx context.Context, command string) (string, error) {
	id, err := s.connectionID()
	if err != nil {
		return "", err
	}

	var output string
	if err := s.inv.Invoke(ctx, protocol.MethodSSHExec, []any{id, command}, &output); err != nil {
		return "", err
	}
	return output, nil
}

// Discover asks the host to scan for reachable devices. No connection is
// required.
func Discover(ctx context.Context, inv host.Invoker) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	if err := inv.Invoke(ctx, protocol.MethodSSHDiscover, []any{}, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ClipboardCopy places text on the host clipboard. No connection is
// required.
func ClipboardCopy(ctx context.Context, inv host.Invoker, text string) error {
	return inv.Invoke(ctx, protocol.MethodClipboardCopy, []any{text}, nil)
}
