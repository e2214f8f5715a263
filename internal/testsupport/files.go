package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// mp4Header is an ftyp box with the isom brand, enough for content sniffing
// to classify the file as video/mp4.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

// WriteFile creates path with size bytes of filler. A size <= 0 writes a
// single byte. Filler sniffs as plain text, so the extension decides the type.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	writeSized(t, path, nil, size)
}

// WriteMP4 creates path with an MP4 signature followed by filler up to size.
func WriteMP4(t testing.TB, path string, size int64) {
	t.Helper()
	writeSized(t, path, mp4Header, max(size, int64(len(mp4Header))))
}

func writeSized(t testing.TB, path string, header []byte, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	remaining := size - int64(len(header))
	chunk := bytes.Repeat([]byte{0x42}, 32*1024)
	for remaining > 0 {
		n := min(remaining, int64(len(chunk)))
		if _, err := f.Write(chunk[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= n
	}
}
