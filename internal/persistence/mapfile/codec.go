package mapfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// encoder writes little-endian values and keeps the first error.
type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriterSize(w, 256*1024)}
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) i32(v int32) {
	binary.LittleEndian.PutUint32(e.buf[:4], uint32(v))
	e.write(e.buf[:4])
}

func (e *encoder) f64(v float64) {
	binary.LittleEndian.PutUint64(e.buf[:], math.Float64bits(v))
	e.write(e.buf[:])
}

func (e *encoder) f64s(vs []float64) {
	for _, v := range vs {
		e.f64(v)
	}
}

// text writes s padded with spaces to exactly width bytes.
func (e *encoder) text(s string, width int) {
	if len(s) > width {
		s = s[:width]
	}
	e.write([]byte(s + strings.Repeat(" ", width-len(s))))
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// decoder reads little-endian values and keeps the first error. Truncated
// input is reported as ErrFormat.
type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReaderSize(r, 256*1024)}
}

func (d *decoder) read(b []byte) bool {
	if d.err != nil {
		return false
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: truncated", ErrFormat)
		}
		d.err = err
		return false
	}
	return true
}

func (d *decoder) i32() int32 {
	if !d.read(d.buf[:4]) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(d.buf[:4]))
}

func (d *decoder) f64() float64 {
	if !d.read(d.buf[:]) {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(d.buf[:]))
}

func (d *decoder) f64s(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.f64()
	}
	return out
}

func (d *decoder) text(width int) string {
	b := make([]byte, width)
	if !d.read(b) {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// fail records a format error unless an earlier error is pending.
func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
	}
}
