package protocol

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

const ProtocolVersion = "0.1.0"

// Lifecycle and notification methods shared with the host.
const (
	MethodInitialize = "initialize"
	MethodShutdown   = "shutdown"
	MethodLog        = "log" // notification only
)

// Serial port commands.
const (
	MethodSerialPlatform = "serial.platform"
	MethodSerialList     = "serial.list"
	MethodSerialOpen     = "serial.open"
	MethodSerialSend     = "serial.send"
	MethodSerialClose    = "serial.close"
)

// Filesystem commands.
const (
	MethodFSListVolumes   = "fs.listVolumes"
	MethodFSReadFile      = "fs.readFile"
	MethodFSCopyFile      = "fs.copyFile"
	MethodFSExists        = "fs.exists"
	MethodFSIsDirectory   = "fs.isDirectory"
	MethodFSIsFile        = "fs.isFile"
	MethodFSMkDir         = "fs.mkdir"
	MethodFSTransferBegin = "fs.transferBegin"
	MethodFSUnzip         = "fs.unzip"
)

// Host module reflection commands.
const (
	MethodModuleResolve = "module.resolve"
	MethodModuleCall    = "module.call"
)

// SSH and clipboard commands.
const (
	MethodSSHDiscover     = "ssh.discover"
	MethodSSHOpen         = "ssh.open"
	MethodSSHClose        = "ssh.close"
	MethodSSHSpawn        = "ssh.spawn"
	MethodSSHExec         = "ssh.exec"
	MethodSSHTempDir      = "ssh.tempDir"
	MethodSSHUploadFile   = "ssh.uploadFile"
	MethodSSHUploadFolder = "ssh.uploadFolder"
	MethodClipboardCopy   = "clipboard.copy"
)

// TransferEOF is the sentinel sent on a per-transfer command after the final
// data chunk.
const TransferEOF = "EOF"

// InitializeParams is sent with the "initialize" method.
type InitializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	Name            string `json:"name,omitempty"`
	Version         string `json:"version,omitempty"`
}

// Manifest is returned from the "initialize" method and describes the host
// and the commands it dispatches.
type Manifest struct {
	Name            string              `json:"name"`
	Version         string              `json:"version"`
	ProtocolVersion string              `json:"protocolVersion"`
	Description     string              `json:"description,omitempty"`
	Commands        map[string]*Command `json:"commands"`
}

// Command describes one host command in the manifest.
type Command struct {
	Description string            `json:"description,omitempty"`
	Params      jsonschema.Schema `json:"params"`

	mu     sync.Mutex
	params *jsonschema.Resolved
}

// ResolvedParams returns the resolved params schema for the command.
// The result is cached after the first successful call.
// This method is safe for concurrent use.
func (c *Command) ResolvedParams() (*jsonschema.Resolved, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params != nil {
		return c.params, nil
	}

	resolved, err := c.Params.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve params schema: %w", err)
	}

	c.params = resolved

	return c.params, nil
}

// LogParams is sent as a notification with the "log" method, in either
// direction.
type LogParams struct {
	Level   string         `json:"level"` // "debug", "info", "warn", "error"
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// DeviceInfo describes a device found by ssh.discover.
type DeviceInfo struct {
	ID           string `json:"id"`
	HardwareAddr string `json:"hardwareAddr"`
	IP           string `json:"ip,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	Network      string `json:"network,omitempty"`
}

// Volume describes a host filesystem mount.
type Volume struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// PortOption is the configuration for serial.open.
type PortOption struct {
	Path     string `json:"path"`
	BaudRate int    `json:"baudRate"`
	DataBits int    `json:"dataBits,omitempty"`
	StopBits int    `json:"stopBits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// ComPort is one entry returned by serial.list.
type ComPort struct {
	Path         string `json:"path"`
	Manufacturer string `json:"manufacturer,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	VendorID     string `json:"vendorId,omitempty"`
	ProductID    string `json:"productId,omitempty"`
}

// PortList is the serial.list result.
type PortList struct {
	Ports []ComPort `json:"ports"`
}

// TransferBegin is the fs.transferBegin result. Command is the host-assigned,
// per-transfer command name chunks are pushed to.
type TransferBegin struct {
	Command string `json:"command"`
}

// MemberKind reports whether a resolved host-module member is callable.
type MemberKind string

const (
	MemberFunction MemberKind = "function"
	MemberValue    MemberKind = "value"
)

// MemberInfo is the module.resolve result. Value is only set for value
// members.
type MemberInfo struct {
	Kind  MemberKind      `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// CallbackEvent decodes the positional [name, data] pair the host delivers
// on a registered callback command.
func CallbackEvent(params json.RawMessage) (string, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil {
		return "", nil, fmt.Errorf("invalid callback params: %w", err)
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("callback params missing event name")
	}

	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("invalid callback event name: %w", err)
	}

	var data json.RawMessage
	if len(args) > 1 {
		data = args[1]
	}

	return name, data, nil
}
