// Package archivefmt implements the binary layout consumed by the
// read-only archive VFS backend: a header, a string table, and an
// entry table, each read and written positionally with encoding/binary.
//
// Layout:
//
//	magic       [4]byte   "HAFA"
//	version     uint32
//	stringBytes uint32    length in bytes of the string table
//	entryCount  uint32
//	strings     stringBytes bytes: entryCount length-prefixed (uint32) UTF-8 strings
//	entries     entryCount fixed-size records
//
// Each entry record is:
//
//	pathIndex  uint32  index into the string table
//	size       uint64
//	mtimeNs    int64
//	dataOffset uint64
package archivefmt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var magic = [4]byte{'H', 'A', 'F', 'A'}

const formatVersion = 1

const entryRecordSize = 4 + 8 + 8 + 8

// ErrBadMagic indicates the archive's header does not begin with the
// expected magic bytes.
var ErrBadMagic = errors.New("archivefmt: not an archive (bad magic)")

// ErrUnsupportedVersion indicates the archive's format version is not
// one this reader understands.
var ErrUnsupportedVersion = errors.New("archivefmt: unsupported archive version")

// Entry is one file record in the entry table.
type Entry struct {
	Path       string
	Size       uint64
	ModNanos   int64
	DataOffset uint64
}

// Archive is the fully-parsed contents of an archive's header, string
// table, and entry table. It does not hold the backing file open; the
// caller pairs it with its own *os.File for positional reads of file
// content past the entry table.
type Archive struct {
	Entries []Entry
}

// Read parses an archive's header, string table, and entry table from r,
// which must be positioned at the start of the archive.
func Read(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("archivefmt: unable to read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}

	var version, stringBytes, entryCount uint32
	for _, field := range []*uint32{&version, &stringBytes, &entryCount} {
		if err := binary.Read(br, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("archivefmt: unable to read header: %w", err)
		}
	}
	if version != formatVersion {
		return nil, ErrUnsupportedVersion
	}

	stringTable := make([]byte, stringBytes)
	if _, err := io.ReadFull(br, stringTable); err != nil {
		return nil, fmt.Errorf("archivefmt: unable to read string table: %w", err)
	}
	strs, err := splitStringTable(stringTable, int(entryCount))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, entryCount)
	for i := range entries {
		var pathIndex uint32
		var size uint64
		var modNanos int64
		var dataOffset uint64
		if err := binary.Read(br, binary.LittleEndian, &pathIndex); err != nil {
			return nil, fmt.Errorf("archivefmt: unable to read entry %d: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("archivefmt: unable to read entry %d: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &modNanos); err != nil {
			return nil, fmt.Errorf("archivefmt: unable to read entry %d: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &dataOffset); err != nil {
			return nil, fmt.Errorf("archivefmt: unable to read entry %d: %w", i, err)
		}
		if int(pathIndex) >= len(strs) {
			return nil, fmt.Errorf("archivefmt: entry %d references out-of-range string %d", i, pathIndex)
		}
		entries[i] = Entry{
			Path:       strs[pathIndex],
			Size:       size,
			ModNanos:   modNanos,
			DataOffset: dataOffset,
		}
	}

	return &Archive{Entries: entries}, nil
}

func splitStringTable(table []byte, count int) ([]string, error) {
	strs := make([]string, 0, count)
	for len(table) > 0 {
		if len(table) < 4 {
			return nil, fmt.Errorf("archivefmt: truncated string length prefix")
		}
		n := binary.LittleEndian.Uint32(table[:4])
		table = table[4:]
		if uint32(len(table)) < n {
			return nil, fmt.Errorf("archivefmt: truncated string data")
		}
		strs = append(strs, string(table[:n]))
		table = table[n:]
	}
	if len(strs) != count {
		return nil, fmt.Errorf("archivefmt: string table has %d entries, header declared %d", len(strs), count)
	}
	return strs, nil
}

// Write serializes entries into the archive header/string-table/entry-
// table layout and writes it to w. Entries are written in the order
// given, and entry i's Path is written to string-table slot i; Path
// values are not deduplicated.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)

	stringTable := make([]byte, 0, len(entries)*16)
	for _, e := range entries {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Path)))
		stringTable = append(stringTable, lenBuf[:]...)
		stringTable = append(stringTable, e.Path...)
	}

	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	header := []uint32{formatVersion, uint32(len(stringTable)), uint32(len(entries))}
	for _, field := range header {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("archivefmt: unable to write header: %w", err)
		}
	}
	if _, err := bw.Write(stringTable); err != nil {
		return fmt.Errorf("archivefmt: unable to write string table: %w", err)
	}

	for i, e := range entries {
		if err := binary.Write(bw, binary.LittleEndian, uint32(i)); err != nil {
			return fmt.Errorf("archivefmt: unable to write entry %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, e.Size); err != nil {
			return fmt.Errorf("archivefmt: unable to write entry %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, e.ModNanos); err != nil {
			return fmt.Errorf("archivefmt: unable to write entry %d: %w", i, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, e.DataOffset); err != nil {
			return fmt.Errorf("archivefmt: unable to write entry %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// HeaderSize returns the number of bytes occupied by the header, string
// table, and entry table for an archive with the given entries, i.e. the
// offset at which file content begins.
func HeaderSize(entries []Entry) int64 {
	size := int64(4 + 4 + 4 + 4)
	for _, e := range entries {
		size += 4 + int64(len(e.Path))
	}
	size += int64(len(entries)) * entryRecordSize
	return size
}
