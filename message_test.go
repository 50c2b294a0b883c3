package grib2jma

import (
	"time"
)

// testMessage describes a synthetic radar message. Zero fields get the
// values of a plausible 2x2 product.
type testMessage struct {
	refTime     time.Time
	intervalEnd time.Time
	ni, nj      uint32
	scanMode    uint8
	nbit        uint8
	maxv        uint16
	scale       uint8
	levels      []uint16
	bitmapInd   uint8
	bitmap      []byte
	data        []byte
	// section number overrides, keyed by the real number
	numbers map[int]uint8
	marker  string
}

func defaultMessage() testMessage {
	return testMessage{
		refTime:     time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC),
		intervalEnd: time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC),
		ni:          2,
		nj:          2,
		scanMode:    ScanNorthToSouth,
		nbit:        8,
		maxv:        191,
		scale:       1,
		levels:      []uint16{1, 5, 10, 20, 40}, // 0.1 0.5 1.0 2.0 4.0
		bitmapInd:   noBitmap,
		data:        []byte{5, 5, 5, 5},
		marker:      endMarker,
	}
}

// put writes v big-endian into the 1-based inclusive range [start, end] of b.
func put(b []byte, start, end int, v uint64) {
	for i := end; i >= start; i-- {
		b[i-1] = byte(v)
		v >>= 8
	}
}

func putTime(b []byte, start int, t time.Time) {
	put(b, start, start+1, uint64(t.Year()))
	put(b, start+2, start+2, uint64(t.Month()))
	put(b, start+3, start+3, uint64(t.Day()))
	put(b, start+4, start+4, uint64(t.Hour()))
	put(b, start+5, start+5, uint64(t.Minute()))
	put(b, start+6, start+6, uint64(t.Second()))
}

func (m testMessage) number(n int) uint64 {
	if v, ok := m.numbers[n]; ok {
		return uint64(v)
	}
	return uint64(n)
}

func (m testMessage) header(b []byte, n int) []byte {
	put(b, 1, 4, uint64(len(b)))
	put(b, 5, 5, m.number(n))
	return b
}

func (m testMessage) section1() []byte {
	b := m.header(make([]byte, 21), 1)
	put(b, 6, 7, 34)
	put(b, 10, 10, 2)
	put(b, 11, 11, 1)
	putTime(b, 13, m.refTime)
	return b
}

func (m testMessage) section3() []byte {
	b := m.header(make([]byte, 72), 3)
	put(b, 7, 10, uint64(m.ni)*uint64(m.nj))
	put(b, 15, 15, 4)
	put(b, 31, 34, uint64(m.ni))
	put(b, 35, 38, uint64(m.nj))
	put(b, 47, 50, 36_000_000)
	put(b, 51, 54, 140_000_000)
	put(b, 55, 55, 0x30)
	put(b, 56, 59, 35_990_000)
	put(b, 60, 63, 140_010_000)
	put(b, 64, 67, 10_000)
	put(b, 68, 71, 10_000)
	put(b, 72, 72, uint64(m.scanMode))
	return b
}

func (m testMessage) section4() []byte {
	b := m.header(make([]byte, 82), 4)
	put(b, 8, 9, 50008)
	put(b, 10, 10, 1)
	put(b, 11, 11, 203)
	putTime(b, 35, m.intervalEnd)
	put(b, 42, 42, 1)
	put(b, 50, 53, 10)
	put(b, 59, 66, 0x0102030405060708)
	return b
}

func (m testMessage) section5() []byte {
	b := m.header(make([]byte, 17+2*len(m.levels)), 5)
	put(b, 6, 9, uint64(m.ni)*uint64(m.nj))
	put(b, 10, 11, 200)
	put(b, 12, 12, uint64(m.nbit))
	put(b, 13, 14, uint64(m.maxv))
	put(b, 15, 16, uint64(len(m.levels)))
	put(b, 17, 17, uint64(m.scale))
	for k, v := range m.levels {
		put(b, 18+2*k, 19+2*k, uint64(v))
	}
	return b
}

func (m testMessage) section6() []byte {
	b := make([]byte, 6+len(m.bitmap))
	copy(b[6:], m.bitmap)
	m.header(b, 6)
	put(b, 6, 6, uint64(m.bitmapInd))
	return b
}

func (m testMessage) section7() []byte {
	b := make([]byte, 5+len(m.data))
	copy(b[5:], m.data)
	return m.header(b, 7)
}

// parts returns Section 0, the numbered sections and the end marker in order.
func (m testMessage) parts() [][]byte {
	body := [][]byte{m.section1(), m.section3(), m.section4(), m.section5(), m.section6(), m.section7()}
	total := 16 + len(m.marker)
	for _, s := range body {
		total += len(s)
	}
	s0 := make([]byte, 16)
	copy(s0, "GRIB")
	put(s0, 8, 8, 2)
	put(s0, 9, 16, uint64(total))

	parts := append([][]byte{s0}, body...)
	return append(parts, []byte(m.marker))
}

func (m testMessage) bytes() []byte {
	var out []byte
	for _, p := range m.parts() {
		out = append(out, p...)
	}
	return out
}

// encodeRuns run-length packs level indices the way the decoder expects:
// each run is its level followed by the little-endian base-radix digits of
// run length - 1, each offset by maxv+1.
func encodeRuns(levels []int, nbit, maxv int) []byte {
	radix := 1<<nbit - 1 - maxv
	var out []byte
	for i := 0; i < len(levels); {
		j := i
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		out = append(out, byte(levels[i]))
		for extra := j - i - 1; extra > 0; extra /= radix {
			out = append(out, byte(extra%radix+maxv+1))
		}
		i = j
	}
	return out
}
