package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeSample(kind byte) []byte {
	w := NewWriter(kind, 64)
	w.String("update")
	w.Strings([]string{"a", "b"})
	w.Bool(true)
	w.Len(1)
	w.String("")
	return w.Bytes()
}

// readSample consumes every field encodeSample writes.
func readSample(r *Reader) {
	_ = r.String()
	r.Strings()
	r.Bool()
	r.Len()
	_ = r.String()
}

func TestRoundTrip(t *testing.T) {
	r, err := NewReader(encodeSample(KindStructural))
	require.NoError(t, err)
	assert.Equal(t, KindStructural, r.Kind())
	assert.Equal(t, "update", r.String())
	assert.Equal(t, []string{"a", "b"}, r.Strings())
	assert.True(t, r.Bool())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "", r.String())
	assert.NoError(t, r.Err())
}

func TestEmptyList(t *testing.T) {
	w := NewWriter(KindFixed, 0)
	w.Strings(nil)
	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	ss := r.Strings()
	assert.NotNil(t, ss)
	assert.Empty(t, ss)
	assert.NoError(t, r.Err())
}

// Length prefixes keep field boundaries unambiguous.
func TestNoBoundaryCollisions(t *testing.T) {
	enc := func(ss ...string) []byte {
		w := NewWriter(KindStructural, 0)
		for _, s := range ss {
			w.String(s)
		}
		return w.Bytes()
	}
	pairs := [][2][]string{
		{{"ab", "c"}, {"a", "bc"}},
		{{"a:b", ""}, {"a", ":b"}},
		{{"", ""}, {""}},
	}
	for _, p := range pairs {
		assert.NotEqual(t, enc(p[0]...), enc(p[1]...), "%q and %q", p[0], p[1])
	}

	list := func(ss ...string) []byte {
		w := NewWriter(KindStructural, 0)
		w.Strings(ss)
		w.Bool(false)
		return w.Bytes()
	}
	assert.NotEqual(t, list("x", "y"), list("x,y"))
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := append(encodeSample(KindStructural), 0xDE, 0xAD)
	r, err := NewReader(enc)
	require.NoError(t, err)
	readSample(r)
	assert.ErrorIs(t, r.Err(), ErrCorrupt)
}

func TestCorruptHeaders(t *testing.T) {
	enc := encodeSample(KindStructural)

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	_, err := NewReader(badMagic)
	assert.ErrorIs(t, err, ErrCorrupt, "bad magic")

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	_, err = NewReader(badVer)
	assert.ErrorIs(t, err, ErrCorrupt, "bad version")

	_, err = NewReader(enc[:5])
	assert.ErrorIs(t, err, ErrCorrupt, "short header")
}

func TestCorruptLengths(t *testing.T) {
	enc := encodeSample(KindStructural)

	// first string length is at offset 6 (4 magic + 1 ver + 1 kind)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[6:10], uint32(len(enc)))
	r, err := NewReader(tooLong)
	require.NoError(t, err)
	_ = r.String()
	assert.Error(t, r.Err(), "length beyond buffer")

	// bogus list count, and the error sticks
	var buf bytes.Buffer
	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(KindStructural)
	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], ^uint32(0))
	buf.Write(u4[:])
	r, err = NewReader(buf.Bytes())
	require.NoError(t, err)
	assert.Nil(t, r.Strings())
	assert.Error(t, r.Err())
	assert.False(t, r.OK())
	assert.Equal(t, "", r.String())
	assert.False(t, r.Bool())
	assert.Zero(t, r.Len())

	// bool byte out of range
	w := NewWriter(KindFixed, 0)
	w.Bool(true)
	b := w.Bytes()
	b[len(b)-1] = 7
	r, err = NewReader(b)
	require.NoError(t, err)
	r.Bool()
	assert.Error(t, r.Err(), "bad bool")

	r, err = NewReader(enc[:len(enc)-1])
	require.NoError(t, err)
	readSample(r)
	assert.Error(t, r.Err(), "truncated buffer")
}
