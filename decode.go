package grib2jma

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// Mode selects how the decoder treats a section whose number is not the one
// expected at its position.
type Mode int

const (
	// Strict aborts the decode with ErrSectionMismatch. Unknown Mode values
	// behave as Strict.
	Strict Mode = iota
	// Lenient logs the mismatch, leaves that section nil and skips it by its
	// declared length. A product decoded this way may lack sections and, when
	// Section 5 or 7 is absent, its grid.
	Lenient
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "strict" or "lenient", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown decode mode %q (want strict or lenient)", s)
}

// SectionSpan records where a section sat in the message. Number 8 is the
// "7777" end marker.
type SectionSpan struct {
	Number int
	Offset int64
	Length int64
}

// endMarkerNumber is the span number used for the "7777" marker.
const endMarkerNumber = 8

// Product is a fully decoded radar message.
type Product struct {
	Section0 *Section0
	Section1 *Section1
	Section3 *Section3
	Section4 *Section4
	Section5 *Section5
	Section6 *Section6
	Section7 *Section7
	Grid     *Grid
	Spans    []SectionSpan
}

// Lookup returns the nearest-neighbour value at (lat°N, lon°E), or NaN when
// the point is off the grid or the product has no usable geometry.
func (p *Product) Lookup(lat, lon float64) float64 {
	if p.Section3 == nil || p.Grid == nil {
		return math.NaN()
	}
	g, err := p.Section3.Geometry()
	if err != nil {
		return math.NaN()
	}
	return g.Lookup(lat, lon, p.Grid)
}

// Decoder decodes radar messages. The zero value decodes strictly into the
// default 3360x2560 grid without logging.
type Decoder struct {
	Mode    Mode
	Rows    int // 0 means DefaultRows
	Columns int // 0 means DefaultColumns
	Logger  logrus.FieldLogger
}

// DecodeMessage decodes a complete in-memory message with a zero Decoder.
func DecodeMessage(raw []byte) (*Product, error) {
	var d Decoder
	return d.Decode(bytes.NewReader(raw))
}

var sectionOrder = []int{1, 3, 4, 5, 6, 7}

// Decode reads one message from src. Offsets in errors are relative to
// src's byte 0.
func (d *Decoder) Decode(src io.ReaderAt) (*Product, error) {
	rows, cols := d.shape()
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("decoder: invalid grid shape %dx%d", rows, cols)
	}
	log := d.logger()

	s0, err := decodeSection0(newSectionReader(src, 0, 0))
	if err != nil {
		return nil, err
	}
	if s0.Tag != "GRIB" {
		mismatch := newError(ErrSectionMismatch, 0, "tag", 0, "got %q, want \"GRIB\"", s0.Tag)
		if d.Mode != Lenient {
			return nil, mismatch
		}
		log.WithError(mismatch).Warn("ignoring unexpected indicator tag")
	}
	p := &Product{Section0: s0}
	p.Spans = append(p.Spans, SectionSpan{Number: 0, Offset: 0, Length: section0Len})

	off := int64(section0Len)
	var dataOff int64
	for _, want := range sectionOrder {
		r := newSectionReader(src, off, want)
		length, err := r.uint(1, 4, "length")
		if err != nil {
			return nil, err
		}
		number, err := r.uint(5, 5, "number")
		if err != nil {
			return nil, err
		}
		if length < sectionHeadLen {
			return nil, newError(ErrOutOfRange, want, "length", off,
				"declared length %d shorter than the section header", length)
		}
		if int(number) != want {
			mismatch := newError(ErrSectionMismatch, want, "number", r.abs(5),
				"got section %d", number)
			if d.Mode != Lenient {
				return nil, mismatch
			}
			log.WithError(mismatch).WithFields(logrus.Fields{
				"offset": off,
				"length": length,
			}).Warn("skipping section")
			p.Spans = append(p.Spans, SectionSpan{Number: int(number), Offset: off, Length: int64(length)})
			off += int64(length)
			continue
		}

		if err := p.decodeSection(r, want, uint32(length)); err != nil {
			return nil, err
		}
		if want == 7 {
			dataOff = r.abs(sectionHeadLen + 1)
		}
		log.WithFields(logrus.Fields{
			"section": want,
			"offset":  off,
			"length":  length,
		}).Debug("decoded section")
		p.Spans = append(p.Spans, SectionSpan{Number: want, Offset: off, Length: int64(length)})
		off += int64(length)
	}

	if p.Section5 != nil && p.Section7 != nil {
		p.Grid, err = decodeGrid(p.Section5, p.Section6, p.Section7, dataOff, rows, cols)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("grid not decoded: section 5 or 7 missing")
	}

	if err := checkEndMarker(src, off); err != nil {
		return nil, err
	}
	p.Spans = append(p.Spans, SectionSpan{Number: endMarkerNumber, Offset: off, Length: int64(len(endMarker))})
	return p, nil
}

func (p *Product) decodeSection(r *sectionReader, number int, length uint32) (err error) {
	switch number {
	case 1:
		p.Section1, err = decodeSection1(r, length)
	case 3:
		p.Section3, err = decodeSection3(r, length)
	case 4:
		p.Section4, err = decodeSection4(r, length)
	case 5:
		p.Section5, err = decodeSection5(r, length)
	case 6:
		p.Section6, err = decodeSection6(r, length)
	case 7:
		p.Section7, err = decodeSection7(r, length)
	}
	return err
}

// decodeGrid expands the Section 7 stream to rows*cols cells and maps level
// indices to values. With a Section 6 bitmap the stream only covers the
// cells whose bit is set.
func decodeGrid(s5 *Section5, s6 *Section6, s7 *Section7, dataOff int64, rows, cols int) (*Grid, error) {
	total := rows * cols
	n := total
	withBitmap := s6 != nil && s6.BitmapIndicator == bitmapFollows
	if withBitmap {
		n = bitmap(s6.Bitmap).count(total)
	}
	symbols, err := decodeRunLength(s7.Data, int(s5.BitsPerValue), int(s5.MaxLevel), n, dataOff)
	if err != nil {
		return nil, err
	}
	vals, err := mapLevels(symbols, levelLookup(s5.Levels), dataOff)
	if err != nil {
		return nil, err
	}
	if withBitmap {
		vals, err = bitmap(s6.Bitmap).expand(vals, total)
		if err != nil {
			return nil, fmt.Errorf("section 6: %w", err)
		}
	}
	return &Grid{Rows: rows, Columns: cols, Vals: vals}, nil
}

// checkEndMarker verifies the 4 bytes at off spell "7777".
func checkEndMarker(src io.ReaderAt, off int64) error {
	r := newSectionReader(src, off, endMarkerNumber)
	b, err := r.bytes(1, len(endMarker), "end marker")
	if errors.Is(err, ErrOutOfRange) {
		return newError(ErrMissingTerminator, -1, "", off, "message truncated")
	}
	if err != nil {
		return err
	}
	if string(b) != endMarker {
		return newError(ErrMissingTerminator, -1, "", off, "found %q", b)
	}
	return nil
}

func (d *Decoder) shape() (rows, cols int) {
	rows, cols = d.Rows, d.Columns
	if rows == 0 {
		rows = DefaultRows
	}
	if cols == 0 {
		cols = DefaultColumns
	}
	return rows, cols
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (d *Decoder) logger() logrus.FieldLogger {
	if d.Logger != nil {
		return d.Logger
	}
	return discardLogger
}
