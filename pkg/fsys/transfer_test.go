package fsys

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hostbridge/hostbridge/pkg/host/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transferCommand = "fs.transfer.7"

// transferHost wires the fake invoker with the per-transfer command
// protocol: fs.transferBegin assigns transferCommand, chunk pushes are
// collected in order.
type transferHost struct {
	inv    *fakeInvoker
	begun  []string // remote paths passed to fs.transferBegin
	chunks []string // raw per-chunk arguments, including the EOF sentinel
}

func newTransferHost() *transferHost {
	h := &transferHost{inv: newFakeInvoker()}
	h.inv.handler = func(method string, args []any) (any, error) {
		switch method {
		case protocol.MethodFSTransferBegin:
			h.begun = append(h.begun, args[0].(string))
			return protocol.TransferBegin{Command: transferCommand}, nil
		case transferCommand:
			h.chunks = append(h.chunks, args[0].(string))
			return nil, nil
		default:
			return nil, nil
		}
	}
	return h
}

// payload returns the reassembled chunk data, failing the test if the EOF
// sentinel is missing, duplicated, or not last.
func (h *transferHost) payload(t *testing.T) []byte {
	t.Helper()

	require.NotEmpty(t, h.chunks, "no chunk invocations")
	require.Equal(t, protocol.TransferEOF, h.chunks[len(h.chunks)-1], "last invocation must be the EOF sentinel")

	var buf bytes.Buffer
	for _, chunk := range h.chunks[:len(h.chunks)-1] {
		require.NotEqual(t, protocol.TransferEOF, chunk, "EOF sent before the final chunk")
		data, err := base64.StdEncoding.DecodeString(chunk)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestTransferFile_ChunkOrder(t *testing.T) {
	tt := map[string]struct {
		size int
	}{
		"empty file":        {size: 0},
		"single chunk":      {size: 100},
		"exact chunk size":  {size: chunkSize},
		"multiple chunks":   {size: 3*chunkSize + 17},
		"chunk boundary +1": {size: chunkSize + 1},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			content := make([]byte, tc.size)
			_, err := rand.Read(content)
			require.NoError(t, err)

			local := filepath.Join(t.TempDir(), "src.bin")
			require.NoError(t, os.WriteFile(local, content, 0o644))

			h := newTransferHost()
			require.NoError(t, New(h.inv).TransferFile(context.Background(), "/remote/dst.bin", local))

			assert.Equal(t, []string{"/remote/dst.bin"}, h.begun)
			assert.Equal(t, content, h.payload(t), "chunks must reassemble to the source file in order")
		})
	}
}

func TestTransferFile_MissingLocalFile(t *testing.T) {
	h := newTransferHost()

	err := New(h.inv).TransferFile(context.Background(), "/remote/dst", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Empty(t, h.inv.invocations(), "no host command before the local file opens")
}

func TestTransferFile_ChunkFailureAborts(t *testing.T) {
	local := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(local, make([]byte, 2*chunkSize), 0o644))

	h := newTransferHost()
	pushErr := errors.New("host rejected chunk")
	sent := 0
	inner := h.inv.handler
	h.inv.handler = func(method string, args []any) (any, error) {
		if method == transferCommand {
			sent++
			if sent == 2 {
				return nil, pushErr
			}
		}
		return inner(method, args)
	}

	err := New(h.inv).TransferFile(context.Background(), "/remote/dst.bin", local)
	assert.ErrorIs(t, err, pushErr)
	assert.NotContains(t, h.chunks, protocol.TransferEOF, "no EOF after a failed chunk")
}

func TestWriteFile_SingleChunk(t *testing.T) {
	h := newTransferHost()

	data := []byte("boot.py contents")
	require.NoError(t, New(h.inv).WriteFile(context.Background(), "/remote/boot.py", data))

	require.Len(t, h.chunks, 2, "exactly one data chunk and one EOF")
	assert.Equal(t, data, h.payload(t))
}

func TestTransferFolder(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(filepath.Join(localDir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "main.py"), []byte("print()"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "lib", "util.py"), []byte("x = 1"), 0o644))

	h := newTransferHost()
	var unzipArgs []any
	inner := h.inv.handler
	h.inv.handler = func(method string, args []any) (any, error) {
		if method == protocol.MethodFSUnzip {
			unzipArgs = args
			return nil, nil
		}
		return inner(method, args)
	}

	dest, err := New(h.inv).TransferFolder(context.Background(), "/remote/tmp", localDir)
	require.NoError(t, err)

	// The destination is the transferred archive path minus ".zip".
	require.Len(t, h.begun, 1)
	remoteArchive := h.begun[0]
	assert.True(t, strings.HasPrefix(remoteArchive, "/remote/tmp/project"), "archive lands in the remote dir")
	assert.True(t, strings.HasSuffix(remoteArchive, ".zip"))
	assert.Equal(t, strings.TrimSuffix(remoteArchive, ".zip"), dest)

	require.Len(t, unzipArgs, 2)
	assert.Equal(t, remoteArchive, unzipArgs[0])
	assert.Equal(t, dest, unzipArgs[1])

	// The local archive was cleaned up.
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(localDir), "*.zip"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestTransferFolder_CleanupFailureIsSwallowed(t *testing.T) {
	parent := t.TempDir()
	localDir := filepath.Join(parent, "project")
	require.NoError(t, os.MkdirAll(localDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "main.py"), []byte("print()"), 0o644))

	h := newTransferHost()
	inner := h.inv.handler
	h.inv.handler = func(method string, args []any) (any, error) {
		if method == protocol.MethodFSUnzip {
			// Remove the local archive out from under the client so its own
			// cleanup fails.
			archives, globErr := filepath.Glob(filepath.Join(parent, "*.zip"))
			if globErr == nil {
				for _, a := range archives {
					_ = os.Remove(a)
				}
			}
			return nil, nil
		}
		return inner(method, args)
	}

	dest, err := New(h.inv).TransferFolder(context.Background(), "/remote/tmp", localDir)
	require.NoError(t, err, "cleanup failure never surfaces")
	assert.Equal(t, strings.TrimSuffix(h.begun[0], ".zip"), dest)

	require.Len(t, h.inv.notifies, 1, "cleanup failure is logged to the host")
	assert.Equal(t, protocol.MethodLog, h.inv.notifies[0].method)
}

func TestTransferFolder_TransferFailurePropagates(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(localDir, 0o755))

	h := newTransferHost()
	beginErr := errors.New("no transfer slots")
	h.inv.errs[protocol.MethodFSTransferBegin] = beginErr

	_, err := New(h.inv).TransferFolder(context.Background(), "/remote/tmp", localDir)
	assert.ErrorIs(t, err, beginErr)
}
