package protocol

// NOTE: This package uses golang.org/x/exp/jsonrpc2, which is an experimental
// module. This dependency is intentionally used for its JSON-RPC 2.0
// implementation including error types (CodeCommandFailed, CodeUnknownCommand,
// CodeInvalidArgs). The module version is pinned in go.mod. If migrating to a
// different implementation, update all imports in protocol/ and host/
// accordingly.
import "golang.org/x/exp/jsonrpc2"

// Host-command error codes (reserved range -32000 to -32099).
const (
	CodeCommandFailed  int64 = -32000
	CodeUnknownCommand int64 = -32001
	CodeInvalidArgs    int64 = -32002
)

func CommandFailedError(msg string) error {
	return jsonrpc2.NewError(CodeCommandFailed, msg)
}

func UnknownCommandError(msg string) error {
	return jsonrpc2.NewError(CodeUnknownCommand, msg)
}

func InvalidArgsError(msg string) error {
	return jsonrpc2.NewError(CodeInvalidArgs, msg)
}
