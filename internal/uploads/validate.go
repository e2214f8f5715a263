package uploads

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultMaxSize is the largest accepted file, 500 MiB.
	DefaultMaxSize int64 = 500 * 1024 * 1024
	// DefaultTypePrefix is the required MIME type prefix.
	DefaultTypePrefix = "video/"
)

var (
	ErrNotVideo = errors.New("not a video file")
	ErrTooLarge = errors.New("file too large")
)

// Limits are the client-side acceptance rules for a file.
type Limits struct {
	MaxSize    int64
	TypePrefix string
}

// DefaultLimits returns the 500 MiB / video/* limits.
func DefaultLimits() Limits {
	return Limits{MaxSize: DefaultMaxSize, TypePrefix: DefaultTypePrefix}
}

func (l Limits) normalized() Limits {
	if l.MaxSize <= 0 {
		l.MaxSize = DefaultMaxSize
	}
	if strings.TrimSpace(l.TypePrefix) == "" {
		l.TypePrefix = DefaultTypePrefix
	}
	l.TypePrefix = strings.ToLower(l.TypePrefix)
	return l
}

// ValidationError is returned for a rejected file; its message is the text shown to the user.
type ValidationError struct {
	Name   string
	Reason error
	Max    int64
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Reason, ErrTooLarge) {
		return fmt.Sprintf("%s is too large (max %s)", e.Name, formatLimit(e.Max))
	}
	return fmt.Sprintf("%s is not a video file", e.Name)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// Check validates type first, then size. Size equal to the limit is accepted.
func (l Limits) Check(f File) error {
	l = l.normalized()
	contentType := strings.ToLower(strings.TrimSpace(f.ContentType()))
	if !strings.HasPrefix(contentType, l.TypePrefix) {
		return &ValidationError{Name: f.Name(), Reason: ErrNotVideo}
	}
	if f.Size() > l.MaxSize {
		return &ValidationError{Name: f.Name(), Reason: ErrTooLarge, Max: l.MaxSize}
	}
	return nil
}

// formatLimit prints whole mebibytes as "500MB" and anything else in IEC units.
func formatLimit(limit int64) string {
	const mib = 1024 * 1024
	if limit > 0 && limit%mib == 0 {
		return fmt.Sprintf("%dMB", limit/mib)
	}
	return humanize.IBytes(uint64(limit))
}
