// Package serial exposes the host's serial port commands: platform query,
// port enumeration, and open/send/close on a connection the host owns.
//
// The client is stateless; every call is one host command round trip.
// Failures are whatever the host raised, propagated verbatim: there is no
// local validation, retry, or reconnection policy.
package serial

import (
	"context"
	"encoding/base64"

	"github.com/hostbridge/hostbridge/pkg/host"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// PortOption re-exports the serial.open configuration record.
type PortOption = protocol.PortOption

// ComPort re-exports one serial.list entry.
type ComPort = protocol.ComPort

// Client forwards serial port operations to the host.
type Client struct {
	inv host.Invoker
}

// New returns a serial client over the given host connection.
func New(inv host.Invoker) *Client {
	return &Client{inv: inv}
}

// Platform returns the host's platform identifier, e.g. "linux" or "win32".
func (c *Client) Platform(ctx context.Context) (string, error) {
	var platform string
	if err := c.inv.Invoke(ctx, protocol.MethodSerialPlatform, []any{}, &platform); err != nil {
		return "", err
	}
	return platform, nil
}

// List enumerates the serial ports the host can see.
func (c *Client) List(ctx context.Context) ([]ComPort, error) {
	var list protocol.PortList
	if err := c.inv.Invoke(ctx, protocol.MethodSerialList, []any{}, &list); err != nil {
		return nil, err
	}
	return list.Ports, nil
}

// Open asks the host to open the serial connection described by opt.
func (c *Client) Open(ctx context.Context, opt PortOption) error {
	return c.inv.Invoke(ctx, protocol.MethodSerialOpen, []any{opt}, nil)
}

// Send writes data to the open serial connection. The payload crosses the
// boundary base64-encoded.
func (c *Client) Send(ctx context.Context, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	return c.inv.Invoke(ctx, protocol.MethodSerialSend, []any{encoded}, nil)
}

// SendText writes a text payload to the open serial connection.
func (c *Client) SendText(ctx context.Context, text string) error {
	return c.Send(ctx, []byte(text))
}

// Close asks the host to close the serial connection.
func (c *Client) Close(ctx context.Context) error {
	return c.inv.Invoke(ctx, protocol.MethodSerialClose, []any{}, nil)
}
