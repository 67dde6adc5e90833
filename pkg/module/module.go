// Package module is a typed bridge to modules resolved inside the editor
// host. A member of a host-resident module is either a value or a function;
// which one is decided by the host at access time, and every access is a
// fresh round trip. Nothing is cached.
package module

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hostbridge/hostbridge/pkg/host"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// Kind re-exports the member kind returned by Resolve.
type Kind = protocol.MemberKind

const (
	KindFunction = protocol.MemberFunction
	KindValue    = protocol.MemberValue
)

// Module addresses one host-resident module by id.
type Module struct {
	inv host.Invoker
	id  string
}

// Bind returns a handle to the host module with the given id. No host call
// is made until a member is accessed.
func Bind(inv host.Invoker, moduleID string) *Module {
	return &Module{inv: inv, id: moduleID}
}

// ID returns the bound module id.
func (m *Module) ID() string {
	return m.id
}

// Resolve asks the host whether member is a function or a value. For value
// members the resolved value is carried in the result.
func (m *Module) Resolve(ctx context.Context, member string) (*protocol.MemberInfo, error) {
	info := &protocol.MemberInfo{}
	if err := m.inv.Invoke(ctx, protocol.MethodModuleResolve, []any{m.id, member}, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Get resolves a value member and decodes it into out. Resolving a function
// member with Get is an error; use Call instead.
func (m *Module) Get(ctx context.Context, member string, out any) error {
	info, err := m.Resolve(ctx, member)
	if err != nil {
		return err
	}

	if info.Kind == protocol.MemberFunction {
		return fmt.Errorf("module %s: member %s is a function, not a value", m.id, member)
	}

	if out == nil || len(info.Value) == 0 {
		return nil
	}

	if err := json.Unmarshal(info.Value, out); err != nil {
		return fmt.Errorf("module %s: failed to decode member %s: %w", m.id, member, err)
	}
	return nil
}

// Call invokes a function member with the given arguments and returns the
// host's raw result. args must be JSON serializable. Decode the result with
// [As] or json.Unmarshal.
func (m *Module) Call(ctx context.Context, member string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}

	var result json.RawMessage
	if err := m.inv.Invoke(ctx, protocol.MethodModuleCall, []any{m.id, member, args}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// As decodes a raw Call result into the given type.
func As[T any](raw json.RawMessage) (T, error) {
	var result T

	if len(raw) == 0 {
		return result, nil
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("failed to decode call result: %w", err)
	}

	return result, nil
}
