package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/exp/jsonrpc2"
)

// StdioDialer returns a dialer over the process's own stdin/stdout, the
// channel an editor-host-spawned extension is given.
func StdioDialer() jsonrpc2.Dialer {
	return &stdioDialer{}
}

type stdioDialer struct{}

var _ jsonrpc2.Dialer = &stdioDialer{}

func (d *stdioDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return &stdioConn{}, nil
}

type stdioConn struct{}

func (c *stdioConn) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (c *stdioConn) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (c *stdioConn) Close() error {
	// Close both ends to fully signal connection closure.
	stdinErr := os.Stdin.Close()
	stdoutErr := os.Stdout.Close()
	if stdinErr != nil {
		return stdinErr
	}
	return stdoutErr
}

// CommandDialer returns a dialer that starts cmd and speaks the command
// channel over its stdin/stdout pipes. Used by tools that drive a host
// broker binary directly.
func CommandDialer(cmd *exec.Cmd) jsonrpc2.Dialer {
	return &cmdDialer{cmd: cmd}
}

type cmdDialer struct {
	cmd *exec.Cmd
}

var _ jsonrpc2.Dialer = &cmdDialer{}

func (d *cmdDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start host broker: %w", err)
	}

	return &pipeConn{stdin: stdin, stdout: stdout}, nil
}

type pipeConn struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

var _ io.ReadWriteCloser = &pipeConn{}

func (c *pipeConn) Read(data []byte) (int, error) {
	return c.stdout.Read(data)
}

func (c *pipeConn) Write(data []byte) (int, error) {
	return c.stdin.Write(data)
}

func (c *pipeConn) Close() error {
	err := c.stdin.Close()
	return errors.Join(err, c.stdout.Close())
}

// ConnDialer returns a dialer over an existing connection, typically one end
// of a net.Pipe in tests.
func ConnDialer(rwc io.ReadWriteCloser) jsonrpc2.Dialer {
	return &connDialer{rwc: rwc}
}

type connDialer struct {
	rwc io.ReadWriteCloser
}

var _ jsonrpc2.Dialer = &connDialer{}

func (d *connDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return d.rwc, nil
}
