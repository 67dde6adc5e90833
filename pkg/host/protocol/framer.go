package protocol

import (
	"bufio"
	"context"
	"io"
	"sync"

	"golang.org/x/exp/jsonrpc2"
)

// Frame sizing for the scanner. Most frames are small, but fs.readFile
// carries a whole file base64-encoded in a single response, so the cap has
// to be generous; the default 64K token limit would reject those.
const (
	initialFrameBuffer = 64 << 10
	maxFrameSize       = 64 << 20
)

// NewlineFramer frames JSON-RPC messages as newline-delimited JSON, the wire
// format the editor host speaks on its command channel.
func NewlineFramer() jsonrpc2.Framer {
	return &newlineFramer{}
}

type newlineFramer struct{}

func (f *newlineFramer) Reader(r io.Reader) jsonrpc2.Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialFrameBuffer), maxFrameSize)
	return &newlineReader{scanner: scanner}
}

func (f *newlineFramer) Writer(w io.Writer) jsonrpc2.Writer {
	return &newlineWriter{w: w}
}

type frame struct {
	data []byte
	err  error
}

// newlineReader reads newline-delimited JSON-RPC messages. A persistent
// goroutine feeds frames through a channel so a canceled context abandons
// the read without leaking a goroutine blocked in Scan.
type newlineReader struct {
	scanner *bufio.Scanner
	frames  chan frame
	once    sync.Once
}

// start launches the frame-scanning goroutine on first read. It exits when
// the scanner hits an error or EOF; a nil-data, nil-err frame marks clean
// EOF.
func (r *newlineReader) start() {
	r.once.Do(func() {
		r.frames = make(chan frame)
		go func() {
			defer close(r.frames)
			for r.scanner.Scan() {
				// Scan reuses its buffer; copy before handing off.
				line := r.scanner.Bytes()
				data := make([]byte, len(line))
				copy(data, line)
				r.frames <- frame{data: data}
			}
			r.frames <- frame{err: r.scanner.Err()}
		}()
	})
}

func (r *newlineReader) Read(ctx context.Context) (jsonrpc2.Message, int64, error) {
	r.start()

	var f frame
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case next, ok := <-r.frames:
		if !ok {
			return nil, 0, io.EOF
		}
		f = next
	}

	if f.err != nil {
		return nil, 0, f.err
	}
	if f.data == nil {
		return nil, 0, io.EOF
	}

	msg, err := jsonrpc2.DecodeMessage(f.data)
	if err != nil {
		return nil, 0, err
	}
	return msg, int64(len(f.data)), nil
}

type newlineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *newlineWriter) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	data, err := jsonrpc2.EncodeMessage(msg)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	// Only the write itself needs serializing; encoding happens outside
	// the lock.
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.w.Write(data)
	return int64(n), err
}
