package ssh

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// UploadFile uploads a local file to remotePath on the connected device.
// The file is first staged into a host-provided temporary directory via the
// filesystem transfer primitive, then the host pushes the staged file over
// the SSH connection.
func (s *Session) UploadFile(ctx context.Context, localPath, remotePath string) error {
	id, err := s.connectionID()
	if err != nil {
		return err
	}

	tmpDir, err := s.tempDir(ctx)
	if err != nil {
		return err
	}

	staged := path.Join(tmpDir, filepath.Base(localPath))
	if err := s.fs.TransferFile(ctx, staged, localPath); err != nil {
		return err
	}

	return s.inv.Invoke(ctx, protocol.MethodSSHUploadFile, []any{id, staged, remotePath}, nil)
}

// UploadFolder uploads a local folder to remoteDir on the connected device.
// The folder is staged into a host-provided temporary directory via the
// zipped folder transfer, then the host pushes the staged tree over the SSH
// connection. Staging failures are wrapped with upload context.
func (s *Session) UploadFolder(ctx context.Context, localDir, remoteDir string) error {
	id, err := s.connectionID()
	if err != nil {
		return err
	}

	tmpDir, err := s.tempDir(ctx)
	if err != nil {
		return err
	}

	staged, err := s.fs.TransferFolder(ctx, tmpDir, localDir)
	if err != nil {
		return fmt.Errorf("ssh: failed to stage folder %s for upload: %w", localDir, err)
	}

	return s.inv.Invoke(ctx, protocol.MethodSSHUploadFolder, []any{id, staged, remoteDir}, nil)
}

func (s *Session) tempDir(ctx context.Context) (string, error) {
	var tmpDir string
	if err := s.inv.Invoke(ctx, protocol.MethodSSHTempDir, []any{}, &tmpDir); err != nil {
		return "", err
	}
	return tmpDir, nil
}
