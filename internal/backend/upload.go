package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"rafcdn/internal/logging"
	"rafcdn/internal/uploads"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload sends one file as multipart/form-data. Progress events report file
// bytes handed to the connection; the terminal event carries nil only for
// HTTP 200.
func (c *Client) Upload(ctx context.Context, req uploads.UploadRequest) <-chan uploads.TransferEvent {
	events := make(chan uploads.TransferEvent, 8)
	go func() {
		defer close(events)
		err := c.upload(ctx, req, func(loaded, total int64) {
			select {
			case events <- uploads.TransferEvent{Loaded: loaded, Total: total}:
			case <-ctx.Done():
			}
		})
		events <- uploads.TransferEvent{Done: true, Err: err}
	}()
	return events
}

func (c *Client) upload(ctx context.Context, req uploads.UploadRequest, progress func(loaded, total int64)) error {
	logger := logging.WithContext(logging.WithUploadID(ctx, req.ID), c.logger)
	if req.File == nil {
		return fmt.Errorf("upload %s: no file", req.Name)
	}

	file, err := req.File.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", req.Name, err)
	}
	defer file.Close()

	source := &exactReader{reader: file, remaining: req.File.Size()}
	body, contentType, length, err := c.multipartBody(req, source, progress)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.uploadPath), body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	httpReq.ContentLength = length
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Upload-Id", req.ID)
	c.authorize(httpReq)

	logger.Debug("upload request sending",
		logging.String("url", httpReq.URL.String()),
		logging.Int64("content_length", length),
	)
	resp, err := c.do(httpReq, "upload "+req.Name)
	if failure := source.failure(); failure != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("upload %s: %w", req.Name, failure)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("upload "+req.Name, resp)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

// multipartBody assembles the form as preamble + file + trailer so the
// request has an exact Content-Length without buffering the file.
func (c *Client) multipartBody(req uploads.UploadRequest, file io.Reader, progress func(loaded, total int64)) (io.Reader, string, int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("upload_id", req.ID); err != nil {
		return nil, "", 0, fmt.Errorf("write upload_id field: %w", err)
	}
	if err := mw.WriteField("timestamp", req.Timestamp); err != nil {
		return nil, "", 0, fmt.Errorf("write timestamp field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(c.formField), quoteEscaper.Replace(req.Name)))
	partType := req.File.ContentType()
	if partType == "" {
		partType = "application/octet-stream"
	}
	header.Set("Content-Type", partType)
	if _, err := mw.CreatePart(header); err != nil {
		return nil, "", 0, fmt.Errorf("write file part header: %w", err)
	}
	preamble := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, "", 0, fmt.Errorf("close multipart writer: %w", err)
	}
	trailer := bytes.Clone(buf.Bytes())

	size := req.File.Size()
	counted := &progressReader{reader: file, total: size, report: progress}
	length := int64(len(preamble)) + size + int64(len(trailer))
	body := io.MultiReader(bytes.NewReader(preamble), counted, bytes.NewReader(trailer))
	return body, mw.FormDataContentType(), length, nil
}

type progressReader struct {
	reader io.Reader
	total  int64
	loaded int64
	report func(loaded, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.report != nil {
			p.report(p.loaded, p.total)
		}
	}
	return n, err
}

// exactReader yields exactly remaining bytes and records ErrFileChanged when
// the source ends early or still has data once they are consumed. The
// transport reads it on its own goroutine, so the failure is guarded.
type exactReader struct {
	reader    io.Reader
	remaining int64

	mu  sync.Mutex
	err error
}

func (e *exactReader) Read(b []byte) (int, error) {
	if err := e.failure(); err != nil {
		return 0, err
	}
	if e.remaining <= 0 {
		var probe [1]byte
		if n, _ := e.reader.Read(probe[:]); n > 0 {
			return 0, e.fail(fmt.Errorf("%w: file grew after it was measured", ErrFileChanged))
		}
		return 0, io.EOF
	}
	if int64(len(b)) > e.remaining {
		b = b[:e.remaining]
	}
	n, err := e.reader.Read(b)
	e.remaining -= int64(n)
	switch {
	case errors.Is(err, io.EOF) && e.remaining > 0:
		return n, e.fail(fmt.Errorf("%w: %d bytes missing", ErrFileChanged, e.remaining))
	case err != nil && !errors.Is(err, io.EOF):
		return n, e.fail(err)
	}
	return n, nil
}

func (e *exactReader) fail(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
	return err
}

func (e *exactReader) failure() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
