// Byte codec: variable-length integer encode/decode and fixed-width
// field writers shared by every on-disk record format in this package.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHY A CUSTOM CODEC?
// ═══════════════════════════════════════════════════════════════════════════════
// Every on-disk store (document table, document data, term dictionary) needs
// compact variable-length integers: most doc IDs, term counts and offsets are
// small, so a fixed 4 or 8 byte field would waste space at index-build scale.
// varuint/varsint give us LEB128-style "small values are short" encoding; the
// fixed-width writers exist only where the format is a constant-size row
// (the document-table record) and random access depends on every row being
// the same length.
// ═══════════════════════════════════════════════════════════════════════════════

package ferret

import (
	"encoding/binary"
	"errors"

	varint "github.com/multiformats/go-varint"
)

// ErrBufferTooSmall is returned when a read cursor runs past the end of its
// backing slice while decoding a varuint/varsint/fixed-width field.
var ErrBufferTooSmall = errors.New("codec: buffer too small")

// Cursor is a read position over a byte slice. It never copies the slice;
// callers own the backing array for the lifetime of the cursor.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential reads starting at offset 0.
func NewCursor(buf []byte) *Cursor { return &Cursor{buf: buf} }

// Pos reports the current read offset.
func (c *Cursor) Pos() int { return c.pos }

// Remaining reports the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// ReadUvarint decodes an unsigned varuint and advances the cursor.
func (c *Cursor) ReadUvarint() (uint64, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrBufferTooSmall
	}
	v, n, err := varint.FromUvarint(c.buf[c.pos:])
	if err != nil {
		return 0, ErrBufferTooSmall
	}
	c.pos += n
	return v, nil
}

// ReadVarsint decodes a signed varsint (zig-zag over varuint) and advances
// the cursor.
func (c *Cursor) ReadVarsint() (int64, error) {
	u, err := c.ReadUvarint()
	if err != nil {
		return 0, err
	}
	return zigZagDecode(u), nil
}

// ReadU32 decodes a fixed-width big-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, ErrBufferTooSmall
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

// ReadU64 decodes a fixed-width big-endian uint64.
func (c *Cursor) ReadU64() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, ErrBufferTooSmall
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

// ReadCString reads bytes up to and including the next NUL and returns the
// bytes before it (without the terminator).
func (c *Cursor) ReadCString() ([]byte, error) {
	for i := c.pos; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			s := c.buf[c.pos:i]
			c.pos = i + 1
			return s, nil
		}
	}
	return nil, ErrBufferTooSmall
}

// ReadBytes reads exactly n raw bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, ErrBufferTooSmall
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances the cursor past one varuint without materializing its
// value; it consumes exactly as many bytes as ReadUvarint would.
func (c *Cursor) Skip() error {
	_, err := c.ReadUvarint()
	return err
}

func zigZagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigZagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// PutUvarint appends v to buf in varuint form and returns the result.
func PutUvarint(buf []byte, v uint64) []byte {
	return append(buf, varint.ToUvarint(v)...)
}

// PutVarsint appends v to buf in zig-zag varsint form and returns the result.
func PutVarsint(buf []byte, v int64) []byte {
	return PutUvarint(buf, zigZagEncode(v))
}

// PutU32 appends v to buf as fixed-width big-endian.
func PutU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutU64 appends v to buf as fixed-width big-endian.
func PutU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutCString appends s followed by a NUL terminator.
func PutCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// UvarintSize reports the encoded length of v in varuint form, used to
// pre-size record buffers without a throwaway encode.
func UvarintSize(v uint64) int {
	return varint.UvarintSize(v)
}
