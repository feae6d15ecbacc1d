package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/likedex/core"
	"github.com/klauspost/compress/s2"
)

// Row snapshot format, inside an s2-compressed stream:
//
//	[Magic: 4 bytes] [Version: 4 bytes] [NumColumns: 4 bytes] [Count: 8 bytes]
//	then per record: [ID: 8 bytes] and per column [Len: 4 bytes][Data]
//
// Only live rows are written and only rows are written — never the
// bitmap structures, which are always rebuilt from the rows.
const (
	snapshotMagic   = 0x4c444b53 // "LDKS"
	snapshotVersion = 1
)

// ErrBadSnapshot indicates a snapshot stream with an unexpected magic
// number or version.
var ErrBadSnapshot = errors.New("malformed row snapshot")

// Save writes the live rows to w as an s2-compressed snapshot.
func (s *Store) Save(w io.Writer) error {
	zw := s2.NewWriter(w)
	bw := bufio.NewWriter(zw)

	header := []uint32{snapshotMagic, snapshotVersion, uint32(s.numColumns)}
	for _, h := range header {
		if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(s.live)); err != nil {
		return err
	}

	for slot := 0; slot < len(s.ids); slot++ {
		if s.tombstones.Contains(core.Slot(slot)) {
			continue
		}
		if err := binary.Write(bw, binary.LittleEndian, s.ids[slot]); err != nil {
			return err
		}
		for c := 0; c < s.numColumns; c++ {
			val := s.values[c][slot]
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(val))); err != nil {
				return err
			}
			if _, err := bw.WriteString(val); err != nil {
				return err
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// LoadRows decodes a snapshot written by Save and invokes fn once per
// row. It returns the snapshot's column count; fn receives rows in the
// order they were written.
func LoadRows(r io.Reader, fn func(id uint64, vals []string) error) (numColumns int, err error) {
	br := bufio.NewReader(s2.NewReader(r))

	var magic, version, cols uint32
	for _, p := range []*uint32{&magic, &version, &cols} {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return 0, err
		}
	}
	if magic != snapshotMagic {
		return 0, fmt.Errorf("%w: bad magic %#x", ErrBadSnapshot, magic)
	}
	if version != snapshotVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, version)
	}

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return 0, err
	}

	for i := uint64(0); i < count; i++ {
		var id uint64
		if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
			return int(cols), err
		}
		vals := make([]string, cols)
		for c := range vals {
			var n uint32
			if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
				return int(cols), err
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(br, buf); err != nil {
				return int(cols), err
			}
			vals[c] = string(buf)
		}
		if err := fn(id, vals); err != nil {
			return int(cols), err
		}
	}

	return int(cols), nil
}
