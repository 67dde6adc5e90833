package fsys

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hostbridge/hostbridge/pkg/host/protocol"
)

// chunkSize is the number of raw bytes pushed per transfer chunk, before
// base64 encoding.
const chunkSize = 4096

// TransferFile streams the local file at localPath to remotePath on the
// host filesystem.
//
// The host assigns a per-transfer command name; the file is pushed to it in
// base64-encoded chunks, each awaited before the next is sent, followed by
// exactly one "EOF" sentinel. A local read failure aborts the transfer and
// is returned as-is; there is no partial-transfer cleanup or resumption.
func (c *Client) TransferFile(ctx context.Context, remotePath, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.transfer(ctx, remotePath, f)
}

// WriteFile writes data to remotePath on the host filesystem using the same
// chunked command protocol as TransferFile, always as a single chunk.
func (c *Client) WriteFile(ctx context.Context, remotePath string, data []byte) error {
	begin, err := c.transferBegin(ctx, remotePath)
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if err := c.inv.Invoke(ctx, begin.Command, []any{encoded}, nil); err != nil {
		return err
	}

	return c.inv.Invoke(ctx, begin.Command, []any{protocol.TransferEOF}, nil)
}

// TransferFolder compresses the local folder at localDir into a uniquely
// named zip archive, transfers the archive into remoteDir, and asks the
// host to unzip it there. The local archive is deleted best-effort
// afterwards; a deletion failure is logged to the host and swallowed.
//
// The returned path is the remote destination of the unpacked folder: the
// transferred archive path with its ".zip" extension stripped.
func (c *Client) TransferFolder(ctx context.Context, remoteDir, localDir string) (string, error) {
	stamp := time.Now().UnixMilli()
	archive := fmt.Sprintf("%s%d.zip", strings.TrimRight(localDir, "/\\"), stamp)

	if err := zipFolder(archive, localDir); err != nil {
		return "", fmt.Errorf("failed to compress %s: %w", localDir, err)
	}

	remoteArchive := path.Join(remoteDir, filepath.Base(archive))
	if err := c.TransferFile(ctx, remoteArchive, archive); err != nil {
		return "", err
	}

	dest := strings.TrimSuffix(remoteArchive, ".zip")
	if err := c.inv.Invoke(ctx, protocol.MethodFSUnzip, []any{remoteArchive, dest}, nil); err != nil {
		return "", err
	}

	if err := os.Remove(archive); err != nil {
		// Cleanup is best-effort: the transfer already completed.
		_ = c.inv.Notify(ctx, protocol.MethodLog, protocol.LogParams{
			Level:   "warn",
			Message: "failed to remove local archive after folder transfer",
			Data:    map[string]any{"archive": archive, "error": err.Error()},
		})
	}

	return dest, nil
}

func (c *Client) transferBegin(ctx context.Context, remotePath string) (*protocol.TransferBegin, error) {
	begin := &protocol.TransferBegin{}
	if err := c.inv.Invoke(ctx, protocol.MethodFSTransferBegin, []any{remotePath}, begin); err != nil {
		return nil, err
	}
	if begin.Command == "" {
		return nil, errors.New("host assigned no transfer command")
	}
	return begin, nil
}

func (c *Client) transfer(ctx context.Context, remotePath string, r io.Reader) error {
	begin, err := c.transferBegin(ctx, remotePath)
	if err != nil {
		return err
	}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			encoded := base64.StdEncoding.EncodeToString(buf[:n])
			if err := c.inv.Invoke(ctx, begin.Command, []any{encoded}, nil); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	return c.inv.Invoke(ctx, begin.Command, []any{protocol.TransferEOF}, nil)
}

// zipFolder writes a zip archive of the folder rooted at dir. Entry names
// are relative to dir, using forward slashes.
func zipFolder(archive, dir string) error {
	out, err := os.Create(archive)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			_, err = zw.Create(rel + "/")
			return err
		}

		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})

	closeErr := errors.Join(zw.Close(), out.Close())
	if walkErr != nil {
		return walkErr
	}
	return closeErr
}
