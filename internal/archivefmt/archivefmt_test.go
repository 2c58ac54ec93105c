package archivefmt

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	entries := []Entry{
		{Path: "a.txt", Size: 5, ModNanos: 1000, DataOffset: 0},
		{Path: "dir/b.txt", Size: 12, ModNanos: 2000, DataOffset: 5},
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatal("write failed:", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if len(got.Entries) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got.Entries), len(entries))
	}
	for i, want := range entries {
		if got.Entries[i] != want {
			t.Errorf("entry %d = %+v, want %+v", i, got.Entries[i], want)
		}
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not-an-archive-at-all")))
	if err != ErrBadMagic {
		t.Errorf("Read on garbage input = %v, want ErrBadMagic", err)
	}
}

func TestHeaderSizeMatchesWrittenOffset(t *testing.T) {
	entries := []Entry{
		{Path: "one.txt", Size: 3, ModNanos: 0, DataOffset: 0},
	}
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatal("write failed:", err)
	}
	if int64(buf.Len()) != HeaderSize(entries) {
		t.Errorf("HeaderSize = %d, want %d (actual written bytes)", HeaderSize(entries), buf.Len())
	}
}
