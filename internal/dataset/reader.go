package dataset

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// readBufferSize is the read-ahead used while normalizing input.
const readBufferSize = 64 << 10

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sourceReader normalizes upload bytes before encoding/csv sees them. It
// drops a leading UTF-8 byte order mark, which Excel writes and which would
// otherwise stick to the first header name, and rewrites every byte that is
// not valid UTF-8 as '?' so Latin-1 exports still parse.
type sourceReader struct {
	src     *bufio.Reader
	counter *byteCounter
	started bool

	// carry holds the tail of an encoded rune that did not fit in p.
	carry []byte
}

func newSourceReader(r io.Reader) *sourceReader {
	c := &byteCounter{r: r}
	return &sourceReader{src: bufio.NewReaderSize(c, readBufferSize), counter: c}
}

// BytesRead is the number of raw input bytes consumed so far.
func (s *sourceReader) BytesRead() int64 {
	return s.counter.n
}

func (s *sourceReader) skipBOM() error {
	s.started = true
	head, err := s.src.Peek(len(utf8BOM))
	if bytes.Equal(head, utf8BOM) {
		_, err = s.src.Discard(len(utf8BOM))
		return err
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// Read implements io.Reader. It decodes rune by rune, so a multi-byte
// sequence split across source reads is reassembled by the buffer rather
// than mistaken for garbage.
func (s *sourceReader) Read(p []byte) (int, error) {
	if !s.started {
		if err := s.skipBOM(); err != nil {
			return 0, err
		}
	}

	n := copy(p, s.carry)
	s.carry = s.carry[n:]

	var enc [utf8.UTFMax]byte
	for n < len(p) {
		// Hand back what we have rather than block on the source.
		if n > 0 && s.src.Buffered() == 0 {
			break
		}
		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		var b []byte
		if r == utf8.RuneError && size == 1 {
			enc[0] = '?'
			b = enc[:1]
		} else {
			b = enc[:utf8.EncodeRune(enc[:], r)]
		}
		k := copy(p[n:], b)
		n += k
		s.carry = append(s.carry, b[k:]...)
	}
	return n, nil
}

type byteCounter struct {
	r io.Reader
	n int64
}

func (c *byteCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
