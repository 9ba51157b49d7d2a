package htx

import (
	"fmt"
	"strconv"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// Writer serializes a Response onto an AsyncConn. Grounded on
// chunk_writer.go's chunked-framing shape, rewritten against the
// cooperative AsyncConn.Write instead of a bufio.Writer chain.
type Writer struct {
	conn *reactor.AsyncConn
	cfg  Config
}

// NewWriter returns a Writer for conn using cfg's ReadBlock as the
// chunk size.
func NewWriter(conn *reactor.AsyncConn, cfg Config) *Writer {
	return &Writer{conn: conn, cfg: cfg}
}

// WriteResponse emits resp in full. A short write on the underlying
// connection is returned to the caller, which should close the
// connection rather than retry.
func (w *Writer) WriteResponse(y *task.Yielder, resp *Response) error {
	if resp.Version == VersionUnknown {
		resp.Version = HTTP11
	}
	if resp.UseChunked {
		return w.writeChunked(y, resp)
	}
	return w.writeFixedLength(y, resp)
}

func (w *Writer) writeFixedLength(y *task.Yielder, resp *Response) error {
	if !resp.Headers.Has("Content-Length") {
		resp.Headers.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	if !resp.Headers.Has("Connection") {
		resp.Headers.Set("Connection", "close")
	}
	head := serializeHead(resp)
	if _, err := w.conn.Write(y, append(head, resp.Body...)); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeChunked(y *task.Yielder, resp *Response) error {
	resp.Headers.Erase("Content-Length")
	resp.Headers.Set("Transfer-Encoding", "chunked")
	resp.Headers.Set("Connection", "keep-alive")

	head := serializeHead(resp)
	if _, err := w.conn.Write(y, head); err != nil {
		return err
	}

	body := resp.Body
	chunkSize := w.cfg.ReadBlock
	if chunkSize <= 0 {
		chunkSize = len(body)
	}
	for len(body) > 0 {
		n := chunkSize
		if n > len(body) {
			n = len(body)
		}
		frame := fmt.Appendf(nil, "%x\r\n", n)
		frame = append(frame, body[:n]...)
		frame = append(frame, "\r\n"...)
		if _, err := w.conn.Write(y, frame); err != nil {
			return err
		}
		body = body[n:]
	}
	_, err := w.conn.Write(y, []byte("0\r\n\r\n"))
	return err
}

// serializeHead formats the status line and headers as
// "{version} {status} {reason}\r\n", then each header, then a blank
// line.
func serializeHead(resp *Response) []byte {
	var buf []byte
	buf = append(buf, resp.Version.String()...)
	buf = append(buf, ' ')
	buf = append(buf, strconv.Itoa(int(resp.Status))...)
	buf = append(buf, ' ')
	buf = append(buf, resp.Status.Reason()...)
	buf = append(buf, "\r\n"...)
	resp.Headers.Range(func(name, value string) {
		buf = append(buf, name...)
		buf = append(buf, ": "...)
		buf = append(buf, value...)
		buf = append(buf, "\r\n"...)
	})
	buf = append(buf, "\r\n"...)
	return buf
}
