package ferret

import "testing"

// ═══════════════════════════════════════════════════════════════════════════════
// ROUND-TRIP TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestCursor_UvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1}
	var buf []byte
	for _, v := range values {
		buf = PutUvarint(buf, v)
	}
	c := NewCursor(buf)
	for _, want := range values {
		got, err := c.ReadUvarint()
		if err != nil {
			t.Fatalf("ReadUvarint: %v", err)
		}
		if got != want {
			t.Errorf("ReadUvarint = %d, want %d", got, want)
		}
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", c.Remaining())
	}
}

func TestCursor_VarsintRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -128, 128, -1 << 40, 1 << 40}
	var buf []byte
	for _, v := range values {
		buf = PutVarsint(buf, v)
	}
	c := NewCursor(buf)
	for _, want := range values {
		got, err := c.ReadVarsint()
		if err != nil {
			t.Fatalf("ReadVarsint: %v", err)
		}
		if got != want {
			t.Errorf("ReadVarsint = %d, want %d", got, want)
		}
	}
}

func TestCursor_FixedWidthRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutU32(buf, 0xdeadbeef)
	buf = PutU64(buf, 0x0102030405060708)

	c := NewCursor(buf)
	u32, err := c.ReadU32()
	if err != nil || u32 != 0xdeadbeef {
		t.Fatalf("ReadU32 = %x, %v, want deadbeef", u32, err)
	}
	u64, err := c.ReadU64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("ReadU64 = %x, %v, want 0102030405060708", u64, err)
	}
}

func TestCursor_CStringRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutCString(buf, "hello")
	buf = PutCString(buf, "")
	buf = PutCString(buf, "world")

	c := NewCursor(buf)
	for _, want := range []string{"hello", "", "world"} {
		got, err := c.ReadCString()
		if err != nil {
			t.Fatalf("ReadCString: %v", err)
		}
		if string(got) != want {
			t.Errorf("ReadCString = %q, want %q", got, want)
		}
	}
}

func TestCursor_ReadBytesExact(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	c := NewCursor(buf)
	got, err := c.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("ReadBytes = %v, want [1 2 3]", got)
	}
	if c.Remaining() != 2 {
		t.Errorf("Remaining = %d, want 2", c.Remaining())
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// SHORT-BUFFER ERROR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestCursor_ReadUvarintPastEndFails(t *testing.T) {
	c := NewCursor(nil)
	if _, err := c.ReadUvarint(); err != ErrBufferTooSmall {
		t.Errorf("error = %v, want ErrBufferTooSmall", err)
	}
}

func TestCursor_ReadU32PastEndFails(t *testing.T) {
	c := NewCursor([]byte{1, 2})
	if _, err := c.ReadU32(); err != ErrBufferTooSmall {
		t.Errorf("error = %v, want ErrBufferTooSmall", err)
	}
}

func TestCursor_ReadCStringWithoutTerminatorFails(t *testing.T) {
	c := NewCursor([]byte("no terminator here"))
	if _, err := c.ReadCString(); err != ErrBufferTooSmall {
		t.Errorf("error = %v, want ErrBufferTooSmall", err)
	}
}

func TestCursor_ReadBytesPastEndFails(t *testing.T) {
	c := NewCursor([]byte{1, 2})
	if _, err := c.ReadBytes(5); err != ErrBufferTooSmall {
		t.Errorf("error = %v, want ErrBufferTooSmall", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// SKIP / SIZE TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestCursor_SkipAdvancesPastOneVaruint(t *testing.T) {
	var buf []byte
	buf = PutUvarint(buf, 12345)
	buf = PutUvarint(buf, 99)
	c := NewCursor(buf)
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	got, err := c.ReadUvarint()
	if err != nil || got != 99 {
		t.Fatalf("ReadUvarint after Skip = %d, %v, want 99", got, err)
	}
}

func TestUvarintSize_MatchesEncodedLength(t *testing.T) {
	for _, v := range []uint64{0, 127, 128, 1 << 20, 1 << 40} {
		encoded := PutUvarint(nil, v)
		if got := UvarintSize(v); got != len(encoded) {
			t.Errorf("UvarintSize(%d) = %d, want %d", v, got, len(encoded))
		}
	}
}
