package htx

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// Reader performs the phase-by-phase HTTP/1.1 request parse over an
// AsyncConn. Grounded on the line-oriented scanning in
// utils_chunks.go's readChunkLine (Go's net/http chunk reader), but
// reworked around the reactor's cooperative Read instead of a
// bufio.Reader: a non-blocking socket cannot block inside ReadSlice,
// so accumulation happens explicitly in acc.
//
// A Reader is built once per connection and reused across the
// keep-alive loop: acc is the persistent header-read accumulator
// that makes pipelining work — bytes of a next request already
// delivered alongside a prior one are re-sliced off the front of acc
// rather than discarded.
type Reader struct {
	conn *reactor.AsyncConn
	cfg  Config
	acc  []byte
}

// NewReader returns a Reader for conn using cfg's limits.
func NewReader(conn *reactor.AsyncConn, cfg Config) *Reader {
	return &Reader{conn: conn, cfg: cfg}
}

// fill reads up to cfg.ReadBlock more bytes from the connection and
// appends them to acc. It returns io.EOF-shaped behavior via a bool:
// closed is true when the peer has closed the connection (a zero-byte
// read with no error).
func (r *Reader) fill(y *task.Yielder) (closed bool, err error) {
	buf := make([]byte, r.cfg.ReadBlock)
	n, err := r.conn.Read(y, buf)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}
	r.acc = append(r.acc, buf[:n]...)
	return false, nil
}

// ReadRequest parses a header block, then a body framed by
// Content-Length, chunked transfer-coding, or no body at all, and
// returns a fully parsed Request, or the no-request sentinel (use
// IsNoRequest) when the peer closed with nothing pending.
func (r *Reader) ReadRequest(y *task.Yielder) (Request, error) {
	headerBlock, after, err := r.readHeaderBlock(y)
	if err != nil {
		return Request{}, err
	}
	if headerBlock == nil {
		return Request{}, errNoRequest
	}

	req, err := parseStartAndHeaders(headerBlock, r.cfg)
	if err != nil {
		return Request{}, err
	}

	body, err := r.readBody(y, req.Headers, after)
	if err != nil {
		return Request{}, err
	}
	req.Body = body
	req.KeepAlive = keepAlive(req.Headers, req.Version, r.cfg.DefaultKeepAliveHTTP11)
	return req, nil
}

// readHeaderBlock accumulates reads until the CRLFCRLF delimiter
// appears, then returns the bytes up to (not including) it and the
// bytes following it. A nil headerBlock with a nil error means "no
// request" (peer closed with an empty accumulator).
func (r *Reader) readHeaderBlock(y *task.Yielder) (headerBlock, after []byte, err error) {
	for {
		if i := indexHeaderEnd(r.acc); i >= 0 {
			if i > r.cfg.MaxHeaderBytes {
				return nil, nil, ErrHeadersTooLarge
			}
			headerBlock = r.acc[:i]
			after = r.acc[i+4:]
			r.acc = nil
			return headerBlock, after, nil
		}
		if len(r.acc) > r.cfg.MaxHeaderBytes {
			return nil, nil, ErrHeadersTooLarge
		}
		closed, err := r.fill(y)
		if err != nil {
			return nil, nil, err
		}
		if closed {
			if len(r.acc) == 0 {
				return nil, nil, nil
			}
			return nil, nil, errors.Wrap(ErrRequestParse, "peer closed mid-headers")
		}
	}
}

// indexHeaderEnd returns the index of the first byte of "\r\n\r\n" in
// b, or -1 if not present.
func indexHeaderEnd(b []byte) int {
	return bytes.Index(b, []byte("\r\n\r\n"))
}

// parseStartAndHeaders parses the start line and header lines over an
// already delimited header block (no trailing CRLFCRLF).
func parseStartAndHeaders(block []byte, cfg Config) (Request, error) {
	lines := splitLines(block)
	if len(lines) == 0 {
		return Request{}, ErrRequestParse
	}

	method, path, version, err := parseStartLine(lines[0])
	if err != nil {
		return Request{}, err
	}
	if len(path) > cfg.MaxStartLine {
		return Request{}, ErrRequestPath
	}

	headers := NewHeader()
	lastName := ""
	parsedLines := 0
	for _, line := range lines[1:] {
		parsedLines++
		if parsedLines > cfg.MaxHeaderLines {
			return Request{}, ErrRequestParse
		}
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if lastName == "" {
				continue
			}
			cont := strings.TrimSpace(line)
			headers.Set(lastName, headers.Get(lastName)+" "+cont)
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		headers.Add(name, value)
		lastName = name
	}

	return Request{
		Method:  method,
		Path:    path,
		Version: version,
		Headers: headers,
	}, nil
}

func parseStartLine(line string) (Method, string, Version, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return MethodUnknown, "", VersionUnknown, ErrRequestParse
	}
	method := ParseMethod(fields[0])
	if method == MethodUnknown {
		return MethodUnknown, "", VersionUnknown, ErrRequestParse
	}
	version := ParseVersion(fields[2])
	if version == VersionUnknown {
		return MethodUnknown, "", VersionUnknown, ErrRequestParse
	}
	return method, fields[1], version, nil
}

// splitLines splits block on CRLF, dropping the line terminators
// themselves. A trailing empty element from a final CRLF is dropped.
func splitLines(block []byte) []string {
	raw := strings.Split(string(block), "\r\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	return raw
}

// readBody picks the body framing in priority order: Content-Length,
// then chunked transfer-coding, then no body.
func (r *Reader) readBody(y *task.Yielder, headers Header, after []byte) ([]byte, error) {
	if cl := headers.Get("Content-Length"); cl != "" {
		return r.readFixedLength(y, cl, after)
	}
	if strings.EqualFold(headers.Get("Transfer-Encoding"), "chunked") {
		return r.readChunked(y, after)
	}
	r.acc = append(after, r.acc...)
	return nil, nil
}

func (r *Reader) readFixedLength(y *task.Yielder, clHeader string, after []byte) ([]byte, error) {
	n, err := strconv.ParseInt(clHeader, 10, 64)
	if err != nil || n < 0 {
		return nil, errors.Wrap(ErrBody, "invalid content-length")
	}
	if n > int64(r.cfg.MaxBodyBytes) {
		return nil, errors.Wrap(ErrBody, "content-length exceeds max body size")
	}

	for int64(len(after)) < n {
		closed, err := r.fill(y)
		if err != nil {
			return nil, err
		}
		after = append(after, r.acc...)
		r.acc = nil
		if closed && int64(len(after)) < n {
			return nil, errors.Wrap(ErrBody, "peer closed mid-body")
		}
	}

	body := after[:n]
	r.acc = append(append([]byte(nil), after[n:]...), r.acc...)
	return body, nil
}

// readChunked decodes chunks from after plus further reads, skipping
// (not rejecting) any trailer lines between the zero chunk and its
// terminating blank line.
func (r *Reader) readChunked(y *task.Yielder, after []byte) ([]byte, error) {
	r.acc = append(after, r.acc...)
	var body []byte
	for {
		line, err := r.readLine(y)
		if err != nil {
			return nil, err
		}
		size, err := parseChunkSize(line)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			if err := r.skipTrailers(y); err != nil {
				return nil, err
			}
			return body, nil
		}
		data, err := r.readExact(y, size)
		if err != nil {
			return nil, err
		}
		if len(body)+len(data) > r.cfg.MaxBodyBytes {
			return nil, errors.Wrap(ErrChunk, "chunked body exceeds max body size")
		}
		body = append(body, data...)
		if _, err := r.readLine(y); err != nil { // trailing CRLF after chunk data
			return nil, err
		}
	}
}

// skipTrailers discards trailer header lines up to and including the
// blank line that ends them.
func (r *Reader) skipTrailers(y *task.Yielder) error {
	for {
		line, err := r.readLine(y)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func parseChunkSize(line string) (int, error) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	n, err := strconv.ParseInt(line, 16, 64)
	if err != nil || n < 0 {
		return 0, errors.Wrap(ErrChunk, "invalid chunk size")
	}
	return int(n), nil
}

// readLine returns the next CRLF-delimited line from acc, filling
// from the connection as needed, with the CRLF stripped.
func (r *Reader) readLine(y *task.Yielder) (string, error) {
	for {
		if i := indexCRLF(r.acc); i >= 0 {
			line := string(r.acc[:i])
			r.acc = r.acc[i+2:]
			return line, nil
		}
		closed, err := r.fill(y)
		if err != nil {
			return "", err
		}
		if closed {
			return "", errors.Wrap(ErrChunk, "peer closed mid-chunk")
		}
	}
}

// readExact returns exactly n bytes from acc, filling as needed.
func (r *Reader) readExact(y *task.Yielder, n int) ([]byte, error) {
	for len(r.acc) < n {
		closed, err := r.fill(y)
		if err != nil {
			return nil, err
		}
		if closed {
			return nil, errors.Wrap(ErrChunk, "peer closed mid-chunk-data")
		}
	}
	data := append([]byte(nil), r.acc[:n]...)
	r.acc = r.acc[n:]
	return data, nil
}

func indexCRLF(b []byte) int {
	return bytes.Index(b, []byte("\r\n"))
}

func keepAlive(headers Header, version Version, defaultHTTP11 bool) bool {
	if v := headers.Get("Connection"); v != "" {
		return strings.EqualFold(strings.TrimSpace(v), "keep-alive")
	}
	return version == HTTP11 && defaultHTTP11
}
