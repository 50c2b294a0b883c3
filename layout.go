package grib2jma

import (
	"math/bits"
	"time"
)

type fieldKind int

const (
	kindUint fieldKind = iota
	kindASCII
	kindTime
)

// timestampLen is the byte width of a GRIB2 year..second timestamp.
const timestampLen = 7

// field is one row of a section's offset table: a 1-based inclusive byte
// range relative to the section start, how to decode it, and where to store it.
type field[S any] struct {
	start, end int
	name       string
	kind       fieldKind
	size       int // capacity of the destination in bytes (integers only)
	set        func(*S, *value)
}

type value struct {
	u uint64
	s string
	t time.Time
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func uintField[S any, T unsigned](start, end int, name string, ptr func(*S) *T) field[S] {
	return field[S]{
		start: start,
		end:   end,
		name:  name,
		kind:  kindUint,
		size:  bits.Len64(uint64(^T(0))) / 8,
		set:   func(s *S, v *value) { *ptr(s) = T(v.u) },
	}
}

func asciiField[S any](start, end int, name string, ptr func(*S) *string) field[S] {
	return field[S]{
		start: start,
		end:   end,
		name:  name,
		kind:  kindASCII,
		set:   func(s *S, v *value) { *ptr(s) = v.s },
	}
}

func timeField[S any](start int, name string, ptr func(*S) *time.Time) field[S] {
	return field[S]{
		start: start,
		end:   start + timestampLen - 1,
		name:  name,
		kind:  kindTime,
		set:   func(s *S, v *value) { *ptr(s) = v.t },
	}
}

type layout[S any] []field[S]

// minLength is the smallest section length that holds every field.
func (l layout[S]) minLength() int {
	n := 0
	for _, f := range l {
		if f.end > n {
			n = f.end
		}
	}
	return n
}

// decode reads every field of the table into s.
func (l layout[S]) decode(r *sectionReader, s *S) error {
	for _, f := range l {
		var (
			v   value
			err error
		)
		switch f.kind {
		case kindUint:
			v.u, err = r.uint(f.start, f.end, f.name)
		case kindASCII:
			v.s, err = r.ascii(f.start, f.end, f.name)
		case kindTime:
			v.t, err = r.timestamp(f.start, f.name)
		}
		if err != nil {
			return err
		}
		f.set(s, &v)
	}
	return nil
}
