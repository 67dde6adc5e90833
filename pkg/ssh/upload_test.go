package ssh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hostbridge/hostbridge/pkg/host/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageHost extends the fake invoker with the transfer protocol uploads
// stage through: tempDir assignment, per-transfer chunk commands, unzip.
func stageHost(inv *fakeInvoker) {
	inv.responses[protocol.MethodSSHTempDir] = "/host/tmp/stage"
	inv.responses[protocol.MethodFSTransferBegin] = protocol.TransferBegin{Command: "fs.transfer.1"}
}

func methods(calls []invocation) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.method
	}
	return out
}

func TestSession_UploadFile(t *testing.T) {
	local := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(local, []byte("binary"), 0o644))

	inv := newFakeInvoker()
	s := openSession(t, inv, 6)
	stageHost(inv)

	require.NoError(t, s.UploadFile(context.Background(), local, "/device/firmware.bin"))

	calls := inv.invocations()
	seq := methods(calls)

	// tempDir, transferBegin, one chunk, EOF, then the upload command.
	assert.Equal(t, []string{
		protocol.MethodSSHOpen,
		protocol.MethodSSHTempDir,
		protocol.MethodFSTransferBegin,
		"fs.transfer.1",
		"fs.transfer.1",
		protocol.MethodSSHUploadFile,
	}, seq)

	// The transfer stages into the host temp dir under the local base name.
	begin := calls[2]
	assert.Equal(t, []any{"/host/tmp/stage/firmware.bin"}, begin.args)

	upload := calls[len(calls)-1]
	assert.Equal(t, []any{int64(6), "/host/tmp/stage/firmware.bin", "/device/firmware.bin"}, upload.args)
}

func TestSession_UploadFolder(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "app")
	require.NoError(t, os.MkdirAll(localDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "main.py"), []byte("print()"), 0o644))

	inv := newFakeInvoker()
	s := openSession(t, inv, 6)
	stageHost(inv)

	require.NoError(t, s.UploadFolder(context.Background(), localDir, "/device/app"))

	calls := inv.invocations()
	upload := calls[len(calls)-1]
	require.Equal(t, protocol.MethodSSHUploadFolder, upload.method)
	require.Len(t, upload.args, 3)
	assert.Equal(t, int64(6), upload.args[0])

	staged, ok := upload.args[1].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(staged, "/host/tmp/stage/app"), "staged path is inside the host temp dir")
	assert.False(t, strings.HasSuffix(staged, ".zip"), "staged path is the unpacked folder")
	assert.Equal(t, "/device/app", upload.args[2])
}

func TestSession_UploadFolder_WrapsStagingError(t *testing.T) {
	localDir := filepath.Join(t.TempDir(), "app")
	require.NoError(t, os.MkdirAll(localDir, 0o755))

	inv := newFakeInvoker()
	s := openSession(t, inv, 6)
	stageHost(inv)

	transferErr := errors.New("disk full")
	inv.mu.Lock()
	inv.errs[protocol.MethodFSTransferBegin] = transferErr
	inv.mu.Unlock()

	err := s.UploadFolder(context.Background(), localDir, "/device/app")
	require.Error(t, err)
	assert.ErrorIs(t, err, transferErr)
	assert.Contains(t, err.Error(), "failed to stage folder", "staging failures carry upload context")
}

func TestSession_UploadFile_TransferFailureNotWrapped(t *testing.T) {
	local := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	inv := newFakeInvoker()
	s := openSession(t, inv, 6)
	stageHost(inv)

	transferErr := errors.New("chunk rejected")
	inv.mu.Lock()
	inv.errs["fs.transfer.1"] = transferErr
	inv.mu.Unlock()

	err := s.UploadFile(context.Background(), local, "/device/f.bin")
	assert.ErrorIs(t, err, transferErr)

	seq := methods(inv.invocations())
	assert.NotContains(t, seq, protocol.MethodSSHUploadFile, "upload command is not issued after a failed transfer")
}
