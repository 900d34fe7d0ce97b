package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt is appended to the file name of compressed logs.
const CompressedExt = ".zst"

// maxLineSize bounds a single snapshot line when reading.
const maxLineSize = 16 * 1024 * 1024

// Writer appends one JSON document per line to a replay log.
type Writer struct {
	lock sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	zw   *zstd.Encoder
}

// NewWriter creates the log at path, truncating any existing file. When
// compress is set the log is zstd compressed and CompressedExt is added to
// the path unless already present.
func NewWriter(path string, compress bool) (*Writer, error) {
	if compress && !strings.HasSuffix(path, CompressedExt) {
		path += CompressedExt
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create replay log %s: %w", path, err)
	}

	w := &Writer{path: path, file: file}
	var out io.Writer = file
	if compress {
		zw, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w.zw = zw
		out = zw
	}
	w.buf = bufio.NewWriter(out)

	return w, nil
}

// Path returns the location of the log file.
func (w *Writer) Path() string {
	return w.path
}

// Append writes v as a single line and flushes it.
func (w *Writer) Append(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal replay entry: %w", err)
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if w.file == nil {
		return fmt.Errorf("replay log %s is closed", w.path)
	}
	if _, err := w.buf.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to write replay entry: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush replay entry: %w", err)
	}
	if w.zw != nil {
		if err := w.zw.Flush(); err != nil {
			return fmt.Errorf("failed to flush zstd frame: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the log. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.file == nil {
		return nil
	}
	defer func() { w.file = nil }()

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush replay log: %w", err)
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			w.file.Close()
			return fmt.Errorf("failed to close zstd writer: %w", err)
		}
	}
	return w.file.Close()
}

// Reader reads a replay log line by line.
type Reader struct {
	file    *os.File
	zr      *zstd.Decoder
	scanner *bufio.Scanner
}

// Open opens a replay log for reading. Files ending in CompressedExt are
// decompressed transparently.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay log %s: %w", path, err)
	}

	r := &Reader{file: file}
	var in io.Reader = file
	if strings.HasSuffix(path, CompressedExt) {
		zr, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		r.zr = zr
		in = zr
	}

	r.scanner = bufio.NewScanner(in)
	r.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return r, nil
}

// Next decodes the next line into v. It returns io.EOF after the last line.
func (r *Reader) Next(v interface{}) error {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return fmt.Errorf("failed to decode replay entry: %w", err)
		}
		return nil
	}
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("failed to read replay log: %w", err)
	}
	return io.EOF
}

func (r *Reader) Close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	return r.file.Close()
}
