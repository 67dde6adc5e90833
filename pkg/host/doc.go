// Package host implements the command channel between an extension and the
// privileged editor-host process.
//
// Every capability the SDK exposes (serial I/O, filesystem access, SSH
// sessions, host-module members, the clipboard) is performed by the host;
// this package only marshals command invocations across the boundary and
// adapts the responses. Commands are JSON-RPC 2.0 requests with a string
// method name and positional arguments, framed as newline-delimited JSON.
//
// # Connecting
//
// An extension is normally spawned by the editor host with the command
// channel on its own stdin/stdout, so the zero-value options connect there:
//
//	client, err := host.Connect(ctx, host.Options{
//	    Name:    "my-extension",
//	    Version: "1.0.0",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
// Tools that drive a host broker directly (see cmd/hostbridge) spawn the
// broker binary instead and connect over its pipes with [CommandDialer].
// Tests connect over an in-memory pipe with [ConnDialer].
//
// # Callback commands
//
// Some operations are push-based: the host delivers streamed data or events
// by calling back into the extension on a uniquely named command the
// extension registered first. [Client.RegisterCallback] installs the handler
// for such a command; the owning operation unregisters it when the stream
// ends.
//
// # Capabilities
//
// The higher-level facades live in their own packages and accept anything
// satisfying [Invoker]: serial.New, fsys.New, module.Bind, ssh.NewSession.
package host
