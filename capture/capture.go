// Package capture records raw inbound gateway frames to a
// zstd-compressed JSONL file and reads them back. Useful for
// debugging a live session and replaying its stream through the
// decoder offline.
package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Record is one captured frame with its receipt time.
type Record struct {
	At    int64           `json:"at"` // unix milliseconds
	Frame json.RawMessage `json:"frame"`
}

// Recorder appends frames to a capture file. Safe for use from the
// gateway read loop; writes are serialized.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	zw   *zstd.Encoder

	now func() time.Time
}

// NewRecorder creates (or truncates) a capture file at path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}

	return &Recorder{file: f, zw: zw, now: time.Now}, nil
}

// Record appends one raw frame.
func (r *Recorder) Record(data []byte) error {
	rec := Record{
		At:    r.now().UnixMilli(),
		Frame: json.RawMessage(data),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal capture record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.zw.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write capture record: %w", err)
	}
	return nil
}

// Close flushes and closes the capture file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.zw.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Reader iterates the records of a capture file in write order.
type Reader struct {
	file    *os.File
	zr      *zstd.Decoder
	scanner *bufio.Scanner
}

// NewReader opens a capture file for reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}

	scanner := bufio.NewScanner(zr)
	// Grow the line buffer; Ready frames can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	return &Reader{file: f, zr: zr, scanner: scanner}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return Record{}, fmt.Errorf("decode capture record: %w", err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// Close releases the reader.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.file.Close()
}

// ReadAll loads every record from a capture file.
func ReadAll(path string) ([]Record, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
