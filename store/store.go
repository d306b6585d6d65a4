// Package store provides the buffered byte-oriented file writer/reader pair
// used to persist index structures. The byte layouts themselves are owned by
// the callers; this package only handles the I/O mechanics.
package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const defaultBufferSize = 64 * 1024

// FileWriter is a buffered, append-only file writer with explicit
// durability via Sync.
type FileWriter struct {
	f    *os.File
	w    *bufio.Writer
	path string
	off  int64
}

// NewFileWriter creates (or truncates) the file at path. Parent directories
// are created as needed. bufSize <= 0 selects the default buffer size.
func NewFileWriter(path string, bufSize int) (*FileWriter, error) {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &FileWriter{f: f, w: bufio.NewWriterSize(f, bufSize), path: path}, nil
}

// Write implements io.Writer.
func (fw *FileWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.off += int64(n)
	return n, err
}

// WriteByte implements io.ByteWriter.
func (fw *FileWriter) WriteByte(b byte) error {
	if err := fw.w.WriteByte(b); err != nil {
		return err
	}
	fw.off++
	return nil
}

// WriteUvarint writes v in unsigned varint encoding.
func (fw *FileWriter) WriteUvarint(v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := fw.Write(buf[:n])
	return err
}

// WriteUint32 writes v in little-endian fixed width.
func (fw *FileWriter) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := fw.Write(buf[:])
	return err
}

// Offset returns the number of bytes written so far.
func (fw *FileWriter) Offset() int64 {
	return fw.off
}

// Sync flushes the buffer and forces the file contents to stable storage.
func (fw *FileWriter) Sync() error {
	if err := fw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", fw.path, err)
	}
	if err := fw.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", fw.path, err)
	}
	return nil
}

// Close flushes and closes the file.
func (fw *FileWriter) Close() error {
	if err := fw.w.Flush(); err != nil {
		_ = fw.f.Close()
		return fmt.Errorf("failed to flush %s: %w", fw.path, err)
	}
	return fw.f.Close()
}

// FileReader is a buffered sequential file reader.
type FileReader struct {
	f    *os.File
	r    *bufio.Reader
	path string
}

// NewFileReader opens the file at path for sequential reading.
// bufSize <= 0 selects the default buffer size.
func NewFileReader(path string, bufSize int) (*FileReader, error) {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &FileReader{f: f, r: bufio.NewReaderSize(f, bufSize), path: path}, nil
}

// Read implements io.Reader.
func (fr *FileReader) Read(p []byte) (int, error) {
	return fr.r.Read(p)
}

// ReadByte implements io.ByteReader.
func (fr *FileReader) ReadByte() (byte, error) {
	return fr.r.ReadByte()
}

// ReadUvarint reads an unsigned varint.
func (fr *FileReader) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(fr.r)
}

// ReadUint32 reads a little-endian fixed-width uint32.
func (fr *FileReader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(fr.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Close closes the file.
func (fr *FileReader) Close() error {
	return fr.f.Close()
}
