package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version        byte = 1
	KindStructural byte = 1
	KindFixed      byte = 2
)

var (
	ErrCorrupt = errors.New("cqlmap: corrupt fingerprint")
	magic4     = [...]byte{'C', 'Q', 'L', 'K'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Fingerprint layout:
//
//	magic(4) | ver(1) | kind(1) | field*
//
// string: len(u32 be) | bytes(len)
// list:   n(u32 be) | string*n
// bool:   0 | 1
//
// Every field is length-prefixed, so no two distinct field sequences share an
// encoding whatever bytes the strings contain.
type Writer struct {
	buf bytes.Buffer
	u4  [4]byte
}

func NewWriter(kind byte, sizeHint int) *Writer {
	w := &Writer{}
	w.buf.Grow(4 + 1 + 1 + sizeHint)
	w.buf.Write(magic4[:])
	w.buf.WriteByte(version)
	w.buf.WriteByte(kind)
	return w
}

func (w *Writer) String(s string) {
	binary.BigEndian.PutUint32(w.u4[:], uint32(len(s)))
	w.buf.Write(w.u4[:])
	w.buf.WriteString(s)
}

func (w *Writer) Strings(ss []string) {
	binary.BigEndian.PutUint32(w.u4[:], uint32(len(ss)))
	w.buf.Write(w.u4[:])
	for _, s := range ss {
		w.String(s)
	}
}

func (w *Writer) Bool(b bool) {
	if b {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// Len writes a bare count, for repeated groups of fields.
func (w *Writer) Len(n int) {
	binary.BigEndian.PutUint32(w.u4[:], uint32(n))
	w.buf.Write(w.u4[:])
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader decodes a fingerprint written by Writer. The first failure sticks:
// later calls return zero values and Err reports it.
type Reader struct {
	b    []byte
	off  int
	kind byte
	err  error
}

func NewReader(b []byte) (*Reader, error) {
	const hdr = 4 + 1 + 1
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}
	return &Reader{b: b, off: hdr, kind: b[5]}, nil
}

func (r *Reader) Kind() byte { return r.kind }

func (r *Reader) Len() int {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.b) {
		r.err = ErrCorrupt
		return 0
	}
	n := int(binary.BigEndian.Uint32(r.b[r.off : r.off+4]))
	r.off += 4
	return n
}

func (r *Reader) String() string {
	n := r.Len()
	if r.err != nil {
		return ""
	}
	if n < 0 || n > len(r.b)-r.off { // overflow-safe bound check
		r.err = ErrCorrupt
		return ""
	}
	s := string(r.b[r.off : r.off+n])
	r.off += n
	return s
}

func (r *Reader) Strings() []string {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	// every string needs at least its 4-byte length
	if n < 0 || n > (len(r.b)-r.off)/4 {
		r.err = ErrCorrupt
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.String())
	}
	if r.err != nil {
		return nil
	}
	return out
}

func (r *Reader) Bool() bool {
	if r.err != nil {
		return false
	}
	if r.off >= len(r.b) || r.b[r.off] > 1 {
		r.err = ErrCorrupt
		return false
	}
	v := r.b[r.off] == 1
	r.off++
	return v
}

// OK reports whether every read so far succeeded.
func (r *Reader) OK() bool { return r.err == nil }

// Err returns the first decoding error, or ErrCorrupt when bytes remain
// after the last field.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.b) {
		return ErrCorrupt
	}
	return nil
}
