package grib2jma

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// sectionReader reads fields addressed by 1-based inclusive byte ranges
// relative to the start of one section. There is no cursor: every read names
// its own range, so reads are idempotent and may happen in any order.
type sectionReader struct {
	src     io.ReaderAt
	base    int64 // absolute offset of section byte 1
	section int
}

func newSectionReader(src io.ReaderAt, base int64, section int) *sectionReader {
	return &sectionReader{src: src, base: base, section: section}
}

// abs converts a 1-based section position to an absolute 0-based offset.
func (r *sectionReader) abs(pos int) int64 { return r.base + int64(pos) - 1 }

// sizer is implemented by bytes.Reader, strings.Reader and io.SectionReader.
// Sources that know their size are bounds-checked before allocating.
type sizer interface{ Size() int64 }

// reachable fails with ErrOutOfRange unless byte end of the range exists.
// Sources without Size are probed by reading that last byte.
func (r *sectionReader) reachable(start, end int, field string) error {
	if sz, ok := r.src.(sizer); ok {
		if avail := sz.Size() - r.abs(start); avail < int64(end-start+1) {
			return newError(ErrOutOfRange, r.section, field, r.abs(start),
				"need %d bytes, stream has %d", end-start+1, max(avail, 0))
		}
		return nil
	}
	var last [1]byte
	n, err := r.src.ReadAt(last[:], r.abs(end))
	if n == 1 {
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("section %d %s: read at %d: %w", r.section, field, r.abs(end), err)
	}
	return newError(ErrOutOfRange, r.section, field, r.abs(start),
		"need %d bytes, stream ends before %d", end-start+1, r.abs(end))
}

// bytes returns exactly end-start+1 bytes.
func (r *sectionReader) bytes(start, end int, field string) ([]byte, error) {
	if start < 1 || end < start {
		return nil, newError(ErrOutOfRange, r.section, field, r.abs(start),
			"invalid range [%d, %d]", start, end)
	}
	if err := r.reachable(start, end, field); err != nil {
		return nil, err
	}
	buf := make([]byte, end-start+1)
	n, err := r.src.ReadAt(buf, r.abs(start))
	if n == len(buf) {
		return buf, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("section %d %s: read at %d: %w", r.section, field, r.abs(start), err)
	}
	return nil, newError(ErrOutOfRange, r.section, field, r.abs(start),
		"need %d bytes, stream has %d", len(buf), n)
}

// uint decodes an unsigned big-endian integer of width end-start+1 (at most 8).
func (r *sectionReader) uint(start, end int, field string) (uint64, error) {
	if end-start+1 > 8 {
		return 0, newError(ErrOutOfRange, r.section, field, r.abs(start),
			"%d-byte integer exceeds 64 bits", end-start+1)
	}
	b, err := r.bytes(start, end, field)
	if err != nil {
		return 0, err
	}
	return beUint(b), nil
}

// ascii decodes a fixed-length ASCII string.
func (r *sectionReader) ascii(start, end int, field string) (string, error) {
	b, err := r.bytes(start, end, field)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c > 0x7F {
			return "", newError(ErrInvalidEncoding, r.section, field, r.abs(start+i),
				"non-ASCII byte 0x%02X", c)
		}
	}
	return string(b), nil
}

// timestamp decodes the 7-byte GRIB2 time layout starting at start:
// year (2 bytes), month, day, hour, minute, second. The result is UTC.
func (r *sectionReader) timestamp(start int, field string) (time.Time, error) {
	b, err := r.bytes(start, start+6, field)
	if err != nil {
		return time.Time{}, err
	}
	year := int(beUint(b[0:2]))
	month, day := int(b[2]), int(b[3])
	hour, minute, second := int(b[4]), int(b[5]), int(b[6])

	bad := func(what string, v int) error {
		return newError(ErrInvalidTimestamp, r.section, field, r.abs(start),
			"%s %d out of range", what, v)
	}
	switch {
	case year < 1:
		return time.Time{}, bad("year", year)
	case month < 1 || month > 12:
		return time.Time{}, bad("month", month)
	case day < 1 || day > daysIn(year, time.Month(month)):
		return time.Time{}, bad("day", day)
	case hour > 23:
		return time.Time{}, bad("hour", hour)
	case minute > 59:
		return time.Time{}, bad("minute", minute)
	case second > 59:
		return time.Time{}, bad("second", second)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// beUint decodes a big-endian integer of 1 to 8 bytes.
func beUint(b []byte) uint64 {
	switch len(b) {
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
