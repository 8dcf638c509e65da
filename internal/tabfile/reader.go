package tabfile

// reader.go wraps upload streams before they reach a parser:
//
//   - sizeLimitReader fails with core.ErrFileTooLarge past MaxSize
//   - textReader decodes the chosen charset; for UTF-8 it drops a leading
//     BOM and replaces invalid bytes with U+FFFD
//
// Nothing here buffers the whole file.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/tabedit/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sizeLimitReader reads at most limit bytes and reports ErrFileTooLarge
// when the source holds more.
type sizeLimitReader struct {
	r         io.Reader
	limit     int64
	remaining int64
}

// limitSize wraps r when limit is positive.
func limitSize(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &sizeLimitReader{r: r, limit: limit, remaining: limit}
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.remaining <= 0 {
		var extra [1]byte
		n, err := l.r.Read(extra[:])
		if n > 0 {
			return 0, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, l.limit)
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

// utf8Sanitizer copies valid UTF-8 through and turns each invalid byte into
// U+FFFD. Replaced counts the substitutions.
type utf8Sanitizer struct {
	r        *bufio.Reader
	out      []byte
	err      error
	Replaced int
}

func newUTF8Sanitizer(r *bufio.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 && s.err == nil {
		s.fill(len(p))
	}
	if len(s.out) == 0 {
		return 0, s.err
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *utf8Sanitizer) fill(want int) {
	s.out = s.out[:0]
	for len(s.out) < want {
		r, size, err := s.r.ReadRune()
		if err != nil {
			s.err = err
			return
		}
		if r == utf8.RuneError && size == 1 {
			s.Replaced++
		}
		s.out = utf8.AppendRune(s.out, r)
	}
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// lookupCharset resolves a WHATWG encoding label such as "utf-8",
// "windows-1252" or "latin1". An empty label means UTF-8.
func lookupCharset(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown charset %q", core.ErrEncoding, label)
	}
	return enc, nil
}

func isUTF8(enc encoding.Encoding) bool {
	if enc == unicode.UTF8 {
		return true
	}
	name, err := htmlindex.Name(enc)
	return err == nil && name == "utf-8"
}

// textReader returns r decoded to UTF-8. The returned sanitizer is nil for
// non-UTF-8 charsets, which cannot produce invalid output.
func textReader(r io.Reader, charset string) (io.Reader, *utf8Sanitizer, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, nil, err
	}
	if !isUTF8(enc) {
		return enc.NewDecoder().Reader(r), nil, nil
	}

	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, nil, err
	}
	s := newUTF8Sanitizer(br)
	return s, s, nil
}
