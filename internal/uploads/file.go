package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is a file-like upload input.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ogv":  "video/ogg",
	".ts":   "video/mp2t",
}

type localFile struct {
	path        string
	name        string
	size        int64
	contentType string
}

// OpenLocalFile describes a file on disk. The content type is sniffed from
// the file's leading bytes; generic results fall back to the extension.
func OpenLocalFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect content type of %s: %w", path, err)
	}

	return &localFile{
		path:        path,
		name:        filepath.Base(path),
		size:        info.Size(),
		contentType: resolveContentType(detected.String(), path),
	}, nil
}

func resolveContentType(sniffed, path string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(sniffed, ";", 2)[0]))
	switch base {
	case "", "application/octet-stream", "text/plain":
		if byExt, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			return byExt
		}
		return base
	}
	return base
}

func (f *localFile) Name() string        { return f.name }
func (f *localFile) Size() int64         { return f.size }
func (f *localFile) ContentType() string { return f.contentType }

func (f *localFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
