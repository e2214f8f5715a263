package messages

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

// ConsoleSink prints messages one per line, colorized on terminals.
type ConsoleSink struct {
	mu       sync.Mutex
	writer   io.Writer
	colorize bool
	// BeforeWrite runs under the sink lock before each line, e.g. to clear a progress bar.
	BeforeWrite func()
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{writer: w, colorize: ShouldColorize(w)}
}

func (c *ConsoleSink) Post(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BeforeWrite != nil {
		c.BeforeWrite()
	}
	fmt.Fprintln(c.writer, Render(msg, c.colorize))
}

// Render formats a message as "[KIND] text".
func Render(msg Message, colorize bool) string {
	label, color := "INFO", ansiBlue
	switch msg.Kind {
	case KindSuccess:
		label, color = "OK", ansiGreen
	case KindError:
		label, color = "ERROR", ansiRed
	}
	line := fmt.Sprintf("[%s] %s", label, msg.Text)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
