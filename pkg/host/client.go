package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hostbridge/hostbridge/pkg/host/protocol"
	"golang.org/x/exp/jsonrpc2"
)

// CallbackHandler receives one host-initiated call on a registered callback
// command. params is the raw positional argument array; decode it with
// protocol.CallbackEvent or json.Unmarshal.
type CallbackHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Invoker is the narrow surface the capability facades depend on. *Client
// implements it; tests substitute mocks.
type Invoker interface {
	// Invoke issues one host command and awaits its response. args must be
	// JSON serializable; by convention domain commands take a positional
	// []any. result may be nil when the response carries no payload.
	Invoke(ctx context.Context, method string, args, result any) error

	// Notify sends a one-way message to the host.
	Notify(ctx context.Context, method string, args any) error

	// RegisterCallback installs a handler for a host-initiated callback
	// command. Registering an already registered name replaces the handler.
	RegisterCallback(name string, handler CallbackHandler)

	// UnregisterCallback removes a callback handler. Unknown names are a
	// no-op.
	UnregisterCallback(name string)
}

// Options configures a connection to the host.
type Options struct {
	// Name and Version identify the extension in the initialize handshake.
	Name    string
	Version string

	// Dialer supplies the transport. Nil means the extension's own
	// stdin/stdout, the channel the editor host spawned us with.
	Dialer jsonrpc2.Dialer

	// LogHandler receives "log" notifications sent by the host.
	LogHandler func(level, message string, data map[string]any)
}

// Client is a connection to the editor host.
type Client struct {
	conn     *jsonrpc2.Connection
	manifest *protocol.Manifest
	opts     Options

	mux sync.Mutex // serializes outgoing calls

	cbMux     sync.RWMutex
	callbacks map[string]CallbackHandler
}

var _ Invoker = &Client{}

// Connect establishes the command channel and performs the initialize
// handshake. The returned client is ready for use.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	c := &Client{
		opts:      opts,
		callbacks: make(map[string]CallbackHandler),
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = StdioDialer()
	}

	var err error
	c.conn, err = jsonrpc2.Dial(ctx, dialer, &jsonrpc2.ConnectionOptions{
		Handler: c,
		Framer:  protocol.NewlineFramer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host: %w", err)
	}

	c.manifest, err = c.initialize(ctx)
	if err != nil {
		_ = c.conn.Close()
		return nil, fmt.Errorf("failed to initialize host connection: %w", err)
	}

	return c, nil
}

func (c *Client) initialize(ctx context.Context) (*protocol.Manifest, error) {
	params := &protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		Name:            c.opts.Name,
		Version:         c.opts.Version,
	}

	manifest := &protocol.Manifest{}
	if err := c.Invoke(ctx, protocol.MethodInitialize, params, manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

// Manifest returns the host manifest captured during the initialize
// handshake.
func (c *Client) Manifest() *protocol.Manifest {
	return c.manifest
}

// Invoke implements Invoker.
func (c *Client) Invoke(ctx context.Context, method string, args, result any) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	call := c.conn.Call(ctx, method, args)
	return call.Await(ctx, result)
}

// Notify implements Invoker.
func (c *Client) Notify(ctx context.Context, method string, args any) error {
	return c.conn.Notify(ctx, method, args)
}

// RegisterCallback implements Invoker.
func (c *Client) RegisterCallback(name string, handler CallbackHandler) {
	c.cbMux.Lock()
	defer c.cbMux.Unlock()
	c.callbacks[name] = handler
}

// UnregisterCallback implements Invoker.
func (c *Client) UnregisterCallback(name string) {
	c.cbMux.Lock()
	defer c.cbMux.Unlock()
	delete(c.callbacks, name)
}

// Handle processes host-initiated messages: "log" notifications and calls
// on registered callback commands.
func (c *Client) Handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	if req.Method == protocol.MethodLog {
		if c.opts.LogHandler != nil {
			var params protocol.LogParams
			if err := json.Unmarshal(req.Params, &params); err == nil {
				c.opts.LogHandler(params.Level, params.Message, params.Data)
			}
		}
		return nil, nil
	}

	c.cbMux.RLock()
	handler, ok := c.callbacks[req.Method]
	c.cbMux.RUnlock()

	if !ok {
		return nil, protocol.UnknownCommandError(fmt.Sprintf("no callback registered for %s", req.Method))
	}

	return handler(ctx, req.Params)
}

// Log sends a log notification to the host. Failures are returned but are
// safe to ignore; logging never affects the primary operation.
func (c *Client) Log(ctx context.Context, level, message string, data map[string]any) error {
	return c.Notify(ctx, protocol.MethodLog, protocol.LogParams{
		Level:   level,
		Message: message,
		Data:    data,
	})
}

// Close sends the shutdown command and closes the connection.
func (c *Client) Close(ctx context.Context) error {
	err := c.Invoke(ctx, protocol.MethodShutdown, struct{}{}, nil)
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	return err
}
