package fakes

import (
	"bytes"
	"io"
	"time"
)

// UploadedFile is an in-memory file handed to file-input components under
// test.
type UploadedFile struct {
	Name         string
	ContentType  string
	LastModified time.Time
	data         []byte
}

// NewUploadedFile creates a file with the given content. A zero
// LastModified is normalized to the current time.
func NewUploadedFile(name, contentType string, data []byte) *UploadedFile {
	return &UploadedFile{
		Name:         name,
		ContentType:  contentType,
		LastModified: time.Now(),
		data:         append([]byte(nil), data...),
	}
}

// Size returns the file's length in bytes.
func (f *UploadedFile) Size() int64 { return int64(len(f.data)) }

// Open returns a fresh reader over the file's content.
func (f *UploadedFile) Open() io.Reader { return bytes.NewReader(f.data) }

// FileChangeArgs is the event payload a test dispatches to a file input's
// change binding.
type FileChangeArgs struct {
	Files []*UploadedFile
}
