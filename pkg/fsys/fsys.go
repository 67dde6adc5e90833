// Package fsys exposes the host's filesystem commands: volume enumeration,
// single-file read/write/copy, existence checks, and chunked transfer of
// files and folders from the extension's execution sandbox to the host
// filesystem.
package fsys

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hostbridge/hostbridge/pkg/host"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// Volume re-exports the host mount descriptor.
type Volume = protocol.Volume

// Client forwards filesystem operations to the host.
type Client struct {
	inv host.Invoker
}

// New returns a filesystem client over the given host connection.
func New(inv host.Invoker) *Client {
	return &Client{inv: inv}
}

// ListVolumes enumerates the host's filesystem mounts.
func (c *Client) ListVolumes(ctx context.Context) ([]Volume, error) {
	var volumes []Volume
	if err := c.inv.Invoke(ctx, protocol.MethodFSListVolumes, []any{}, &volumes); err != nil {
		return nil, err
	}
	return volumes, nil
}

// ReadFile reads a host file. The host returns the contents base64-encoded;
// they are decoded to bytes locally.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var encoded string
	if err := c.inv.Invoke(ctx, protocol.MethodFSReadFile, []any{path}, &encoded); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file contents: %w", err)
	}
	return data, nil
}

// ReadFileText reads a host file and decodes the base64 payload locally to
// UTF-8 text.
func (c *Client) ReadFileText(ctx context.Context, path string) (string, error) {
	data, err := c.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CopyFile copies src to dst on the host filesystem.
func (c *Client) CopyFile(ctx context.Context, src, dst string) error {
	return c.inv.Invoke(ctx, protocol.MethodFSCopyFile, []any{src, dst}, nil)
}

// Exists reports whether path exists on the host filesystem.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	return c.check(ctx, protocol.MethodFSExists, path)
}

// IsDirectory reports whether path is a directory on the host filesystem.
func (c *Client) IsDirectory(ctx context.Context, path string) (bool, error) {
	return c.check(ctx, protocol.MethodFSIsDirectory, path)
}

// IsFile reports whether path is a regular file on the host filesystem.
func (c *Client) IsFile(ctx context.Context, path string) (bool, error) {
	return c.check(ctx, protocol.MethodFSIsFile, path)
}

// MkDir creates a directory on the host filesystem.
func (c *Client) MkDir(ctx context.Context, path string) error {
	return c.inv.Invoke(ctx, protocol.MethodFSMkDir, []any{path}, nil)
}

func (c *Client) check(ctx context.Context, method, path string) (bool, error) {
	var ok bool
	if err := c.inv.Invoke(ctx, method, []any{path}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
