package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const maxLineBytes = 1024 * 1024

// TailOptions controls a Tail call. A negative Offset means "the last Limit
// lines"; otherwise reading resumes at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. With Follow set and nothing new to read, it
// polls for up to Wait before returning an empty result.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result.Lines, result.Offset, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated underneath us.
			offset = 0
		}
		result.Lines, result.Offset, err = readFrom(path, offset)
	}
	if err != nil {
		return result, err
	}
	if len(result.Lines) > 0 || !opts.Follow || opts.Wait == 0 {
		return result, nil
	}
	return poll(ctx, path, result.Offset, opts.Wait)
}

func lastLines(path string, limit int) ([]string, int64, error) {
	if limit <= 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, 0, fmt.Errorf("stat log file: %w", err)
		}
		return nil, info.Size(), nil
	}

	var ring []string
	offset, err := scanFrom(path, 0, func(line string) {
		if len(ring) == limit {
			ring = ring[1:]
		}
		ring = append(ring, line)
	})
	if err != nil {
		return nil, 0, err
	}
	return ring, offset, nil
}

func readFrom(path string, offset int64) ([]string, int64, error) {
	var lines []string
	next, err := scanFrom(path, offset, func(line string) {
		lines = append(lines, line)
	})
	return lines, next, err
}

// scanFrom feeds every complete line after offset to fn and returns the
// offset just past the last complete line.
func scanFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	pos := offset
	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// Skip oversized lines rather than failing the whole read.
			skipped := int64(len(line))
			for errors.Is(err, bufio.ErrBufferFull) && skipped < maxLineBytes {
				line, err = reader.ReadSlice('\n')
				skipped += int64(len(line))
			}
			if err == nil {
				pos += skipped
				continue
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A partial trailing line is left for the next read.
				return pos, nil
			}
			return pos, fmt.Errorf("read log file: %w", err)
		}
		pos += int64(len(line))
		fn(string(line[:len(line)-1]))
	}
}

func poll(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		offset = next
	}
}
