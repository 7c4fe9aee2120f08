// Package data reads and writes capture files: recordings of sensor frame sets stored as
// length-delimited protobuf messages.
package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matttproud/golang_protobuf_extensions/pbutil"
	"github.com/pkg/errors"
	v1 "go.viam.com/api/app/datasync/v1"
	"go.uber.org/multierr"
)

const (
	// InProgressCaptureFileExt defines the file extension for capture files which are currently
	// being written to.
	InProgressCaptureFileExt = ".prog"
	// CompletedCaptureFileExt defines the file extension for capture files which are no longer
	// being written to.
	CompletedCaptureFileExt = ".capture"
)

// ErrNotCaptureFile is returned when opening a file that is not a completed capture file.
var ErrNotCaptureFile = errors.New("not a data capture file")

// CaptureFilePaths returns the in-progress and completed paths a recording to destination is
// written to. Any extension on destination is replaced.
func CaptureFilePaths(destination string) (string, string) {
	base := strings.TrimSuffix(destination, filepath.Ext(destination))
	return base + InProgressCaptureFileExt, base + CompletedCaptureFileExt
}

// CaptureFile is a completed capture file opened for reading. The first message in the file is
// the DataCaptureMetadata for the file, and ensuing messages contain the captured frames.
type CaptureFile struct {
	Metadata          *v1.DataCaptureMetadata
	path              string
	size              int64
	initialReadOffset int64

	lock       sync.Mutex
	file       *os.File
	readOffset int64
}

// OpenCaptureFile opens the completed capture file at path.
func OpenCaptureFile(path string) (*CaptureFile, error) {
	if filepath.Ext(path) != CompletedCaptureFileExt {
		return nil, errors.Wrapf(ErrNotCaptureFile, "%s", path)
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	cf, err := NewCaptureFile(f)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	return cf, nil
}

// NewCaptureFile creates a CaptureFile from an already opened os.File.
func NewCaptureFile(f *os.File) (*CaptureFile, error) {
	if !IsDataCaptureFile(f) {
		return nil, errors.Wrapf(ErrNotCaptureFile, "%s", f.Name())
	}
	finfo, err := f.Stat()
	if err != nil {
		return nil, err
	}

	md := &v1.DataCaptureMetadata{}
	initOffset, err := pbutil.ReadDelimited(f, md)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to read DataCaptureMetadata from %s", f.Name()))
	}
	if md.GetType() == v1.DataType_DATA_TYPE_UNSPECIFIED {
		return nil, errors.Errorf("file %s does not contain valid metadata", f.Name())
	}

	return &CaptureFile{
		path:              f.Name(),
		file:              f,
		size:              finfo.Size(),
		Metadata:          md,
		initialReadOffset: int64(initOffset),
		readOffset:        int64(initOffset),
	}, nil
}

// ReadMetadata returns the metadata in f.
func (f *CaptureFile) ReadMetadata() *v1.DataCaptureMetadata {
	return f.Metadata
}

// ReadNext returns the next SensorData reading. It returns io.EOF at the end of the file.
func (f *CaptureFile) ReadNext() (*v1.SensorData, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if _, err := f.file.Seek(f.readOffset, io.SeekStart); err != nil {
		return nil, err
	}
	r := v1.SensorData{}
	read, err := pbutil.ReadDelimited(f.file, &r)
	if err != nil {
		return nil, err
	}
	f.readOffset += int64(read)

	return &r, nil
}

// Reset moves the read pointer of f back to the first reading.
func (f *CaptureFile) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.readOffset = f.initialReadOffset
}

// Size returns the size of the file.
func (f *CaptureFile) Size() int64 {
	return f.size
}

// GetPath returns the path of the underlying os.File.
func (f *CaptureFile) GetPath() string {
	return f.path
}

// Close closes the file.
func (f *CaptureFile) Close() error {
	return f.file.Close()
}

// IsDataCaptureFile returns whether or not f is a completed data capture file.
func IsDataCaptureFile(f *os.File) bool {
	return filepath.Ext(f.Name()) == CompletedCaptureFileExt
}

// SensorDataFromCaptureFile returns all readings in f.
func SensorDataFromCaptureFile(f *CaptureFile) ([]*v1.SensorData, error) {
	f.Reset()
	var ret []*v1.SensorData
	for {
		next, err := f.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		ret = append(ret, next)
	}
	return ret, nil
}

// CaptureFileWriter appends readings to an in-progress capture file. Close finalizes the file by
// renaming it to its completed path.
type CaptureFileWriter struct {
	lock        sync.Mutex
	file        *os.File
	writer      *bufio.Writer
	path        string
	finalPath   string
	size        int64
	hasMetadata bool
	closed      bool
}

// NewCaptureFileWriter creates the in-progress file for destination and writes md to it.
func NewCaptureFileWriter(destination string, md *v1.DataCaptureMetadata) (*CaptureFileWriter, error) {
	w, err := CreateCaptureFile(destination)
	if err != nil {
		return nil, err
	}
	if err := w.WriteMetadata(md); err != nil {
		return nil, multierr.Combine(err, w.file.Close(), os.Remove(w.path))
	}
	return w, nil
}

// CreateCaptureFile creates the in-progress file for destination. WriteMetadata must be called
// before any reading is written.
func CreateCaptureFile(destination string) (*CaptureFileWriter, error) {
	progPath, finalPath := CaptureFilePaths(destination)
	if dir := filepath.Dir(progPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	//nolint:gosec
	f, err := os.Create(progPath)
	if err != nil {
		return nil, err
	}
	return &CaptureFileWriter{
		file:      f,
		writer:    bufio.NewWriter(f),
		path:      progPath,
		finalPath: finalPath,
	}, nil
}

// WriteMetadata writes the file's header. It can only be written once.
func (w *CaptureFileWriter) WriteMetadata(md *v1.DataCaptureMetadata) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return errors.New("capture file already closed")
	}
	if w.hasMetadata {
		return errors.New("capture file metadata already written")
	}
	n, err := pbutil.WriteDelimited(w.writer, md)
	if err != nil {
		return err
	}
	w.hasMetadata = true
	w.size += int64(n)
	return nil
}

// HasMetadata reports whether the header was written.
func (w *CaptureFileWriter) HasMetadata() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.hasMetadata
}

// WriteNext appends one reading.
func (w *CaptureFileWriter) WriteNext(reading *v1.SensorData) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return errors.New("capture file already closed")
	}
	if !w.hasMetadata {
		return errors.New("capture file metadata must be written first")
	}

	n, err := pbutil.WriteDelimited(w.writer, reading)
	if err != nil {
		return err
	}
	w.size += int64(n)
	return nil
}

// Size returns the number of bytes written so far.
func (w *CaptureFileWriter) Size() int64 {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.size
}

// GetPath returns the path the completed file will have after Close.
func (w *CaptureFileWriter) GetPath() string {
	return w.finalPath
}

// Close flushes buffered readings and renames the file to its completed path. Calling Close
// more than once is a no-op.
func (w *CaptureFileWriter) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		return multierr.Combine(err, w.file.Close())
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	return os.Rename(w.path, w.finalPath)
}
