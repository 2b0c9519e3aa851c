package sender

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/python-bale-bot/balego/bale"
)

// MaxUploadSize is the largest file the Bot API accepts for upload (50MB).
const MaxUploadSize = 50 * 1024 * 1024

// InputFile is a file to upload or a reference to one Bale already has.
// Use one of the constructors: FromFileID, FromURL, FromBytes, FromReader, FromPath.
type InputFile struct {
	// FileID references an existing file on Bale servers.
	FileID string

	// URL references a file by HTTP URL.
	URL string

	// Reader provides file content for upload. It can be read only once,
	// so a retried request would send an empty file. Prefer Source.
	Reader io.Reader

	// Source returns a fresh reader for every attempt. It takes priority
	// over Reader.
	Source func() (io.Reader, error)

	// FileName is required when Reader or Source is set.
	FileName string

	// MediaType is the item type inside a media group ("photo", "video", ...).
	MediaType string

	// Caption of a media group item.
	Caption string
}

// FromFileID creates an InputFile referencing an existing Bale file.
func FromFileID(fileID string) InputFile {
	return InputFile{FileID: fileID}
}

// FromURL creates an InputFile Bale downloads from url.
func FromURL(url string) InputFile {
	return InputFile{URL: url}
}

// FromReader creates a single-use upload from r.
func FromReader(r io.Reader, filename string) InputFile {
	return InputFile{Reader: r, FileName: filename}
}

// FromBytes creates a retry-safe upload from in-memory bytes.
func FromBytes(data []byte, filename string) InputFile {
	return InputFile{
		Source: func() (io.Reader, error) {
			return bytes.NewReader(data), nil
		},
		FileName: filename,
	}
}

// FromPath creates a retry-safe upload of a local file. The path is
// reopened on every attempt. Paths with a ".." element are rejected when
// the request is built.
func FromPath(path string) InputFile {
	return InputFile{
		Source: func() (io.Reader, error) {
			if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
				return nil, bale.ErrPathTraversal
			}
			return os.Open(filepath.Clean(path))
		},
		FileName: filepath.Base(path),
	}
}

// IsUpload reports whether the file content must be uploaded.
func (f InputFile) IsUpload() bool {
	return f.Reader != nil || f.Source != nil
}

// IsEmpty reports whether no value is set.
func (f InputFile) IsEmpty() bool {
	return f.FileID == "" && f.URL == "" && !f.IsUpload()
}

// OpenReader returns the content to upload.
func (f InputFile) OpenReader() (io.Reader, error) {
	if f.Source != nil {
		return f.Source()
	}
	return f.Reader, nil
}

// Value returns the FileID or URL used when no upload is needed.
func (f InputFile) Value() string {
	if f.FileID != "" {
		return f.FileID
	}
	return f.URL
}

// WithCaption returns a copy with the caption set.
func (f InputFile) WithCaption(caption string) InputFile {
	f.Caption = caption
	return f
}

// WithMediaType returns a copy with the media type set.
func (f InputFile) WithMediaType(mediaType string) InputFile {
	f.MediaType = mediaType
	return f
}

// MarshalJSON encodes the FileID or URL. Uploads are sent as multipart.
func (f InputFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value())
}
