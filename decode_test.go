package grib2jma

import (
	"bytes"
	"math"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallDecoder() *Decoder { return &Decoder{Rows: 2, Columns: 2} }

func TestDecodeSingleLevelFillsGrid(t *testing.T) {
	for name, data := range map[string][]byte{
		"literals":   {5, 5, 5, 5},
		"run-length": {5, 195},
	} {
		t.Run(name, func(t *testing.T) {
			m := defaultMessage()
			m.data = data
			p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
			require.NoError(t, err)
			require.NotNil(t, p.Grid)
			assert.Equal(t, 2, p.Grid.Rows)
			assert.Equal(t, 2, p.Grid.Columns)
			assert.Equal(t, []float64{4.0, 4.0, 4.0, 4.0}, p.Grid.Vals)
		})
	}
}

func TestDecodeMapsMissingAndLevels(t *testing.T) {
	m := defaultMessage()
	m.data = []byte{0, 1, 3, 5}
	p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p.Grid.At(0, 0)))
	assert.InDelta(t, 0.1, p.Grid.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, p.Grid.At(1, 0), 1e-12)
	assert.InDelta(t, 4.0, p.Grid.At(1, 1), 1e-12)
}

func TestDecodePopulatesSections(t *testing.T) {
	m := defaultMessage()
	p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)
	require.NotNil(t, p.Section0)
	assert.Equal(t, "GRIB", p.Section0.Tag)
	require.NotNil(t, p.Section1)
	assert.Equal(t, m.refTime, p.Section1.ReferenceTime)
	require.NotNil(t, p.Section3)
	assert.Equal(t, uint32(2), p.Section3.Ni)
	require.NotNil(t, p.Section4)
	assert.Equal(t, m.intervalEnd, p.Section4.IntervalEnd)
	require.NotNil(t, p.Section5)
	assert.Equal(t, uint16(191), p.Section5.MaxLevel)
	require.NotNil(t, p.Section6)
	assert.Equal(t, uint8(noBitmap), p.Section6.BitmapIndicator)
	require.NotNil(t, p.Section7)
	assert.Equal(t, m.data, p.Section7.Data)
}

func TestDecodeSpansCoverMessage(t *testing.T) {
	m := defaultMessage()
	m.data = encodeRuns([]int{1, 1, 2, 3}, 8, 191)
	parts := m.parts()
	raw := m.bytes()

	p, err := smallDecoder().Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, p.Spans, len(parts))

	wantNumbers := []int{0, 1, 3, 4, 5, 6, 7, 8}
	var off int64
	for i, span := range p.Spans {
		assert.Equal(t, wantNumbers[i], span.Number)
		assert.Equal(t, off, span.Offset, "section %d offset", span.Number)
		assert.Equal(t, int64(len(parts[i])), span.Length, "section %d length", span.Number)
		off += span.Length
	}
	assert.Equal(t, int64(len(raw)), off)
	assert.Equal(t, uint64(len(raw)), p.Section0.TotalLength)
}

func TestDecodeDefaultShape(t *testing.T) {
	n := DefaultRows * DefaultColumns
	levels := make([]int, n)
	for i := range levels {
		// bands of rain in an otherwise missing field
		if (i/DefaultColumns)%100 < 10 {
			levels[i] = 1 + (i/DefaultColumns)%5
		}
	}
	m := defaultMessage()
	m.ni, m.nj = DefaultColumns, DefaultRows
	m.data = encodeRuns(levels, 8, 191)

	p, err := DecodeMessage(m.bytes())
	require.NoError(t, err)
	require.Len(t, p.Grid.Vals, 8_601_600)
	assert.True(t, math.IsNaN(p.Grid.At(10, 0)))
	assert.InDelta(t, 0.5, p.Grid.At(1, 7), 1e-12)
}

func TestDecodeGridSizeMismatch(t *testing.T) {
	for name, data := range map[string][]byte{
		"short": {5, 5, 5},
		"long":  {5, 5, 5, 5, 5},
		"empty": nil,
	} {
		t.Run(name, func(t *testing.T) {
			m := defaultMessage()
			m.data = data
			_, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
			assert.ErrorIs(t, err, ErrGridSizeMismatch)
		})
	}
}

func TestDecodeMissingTerminator(t *testing.T) {
	m := defaultMessage()
	m.marker = "7778"
	_, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	assert.ErrorIs(t, err, ErrMissingTerminator)

	m = defaultMessage()
	raw := m.bytes()
	_, err = smallDecoder().Decode(bytes.NewReader(raw[:len(raw)-2]))
	assert.ErrorIs(t, err, ErrMissingTerminator)
}

func TestDecodeMissingTerminatorInLenientMode(t *testing.T) {
	m := defaultMessage()
	m.marker = "0000"
	d := smallDecoder()
	d.Mode = Lenient
	_, err := d.Decode(bytes.NewReader(m.bytes()))
	assert.ErrorIs(t, err, ErrMissingTerminator)
}

func TestDecodeStrictSectionMismatch(t *testing.T) {
	m := defaultMessage()
	m.numbers = map[int]uint8{4: 2}
	p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrSectionMismatch)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Section)
	assert.Equal(t, int64(16+21+72+4), de.Offset)
}

func TestDecodeUnknownModeIsStrict(t *testing.T) {
	m := defaultMessage()
	m.numbers = map[int]uint8{4: 2}
	d := smallDecoder()
	d.Mode = Mode(7)
	p, err := d.Decode(bytes.NewReader(m.bytes()))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrSectionMismatch)
}

// A data section claiming ~4 GiB in a tiny file must fail without
// allocating the declared length, even when the source cannot report its size.
func TestDecodeHugeDeclaredLengthFromPlainReaderAt(t *testing.T) {
	raw := defaultMessage().bytes()
	s7 := 16 + 21 + 72 + 82 + (17 + 2*5) + 6
	put(raw[s7:], 1, 4, 0xF0000000)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := smallDecoder().Decode(readerAtOnly{bytes.NewReader(raw)})
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestDecodeStrictBadTag(t *testing.T) {
	raw := defaultMessage().bytes()
	copy(raw, "BIRG")
	_, err := smallDecoder().Decode(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrSectionMismatch)
}

func TestDecodeLenientSkipsMismatchedSection(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := defaultMessage()
	m.numbers = map[int]uint8{4: 2}

	d := smallDecoder()
	d.Mode = Lenient
	d.Logger = logger
	p, err := d.Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)
	assert.Nil(t, p.Section4)
	require.NotNil(t, p.Section5)
	require.NotNil(t, p.Grid)
	assert.Equal(t, []float64{4.0, 4.0, 4.0, 4.0}, p.Grid.Vals)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "skipping section", hook.LastEntry().Message)
	// The skipped span is still recorded under the number it declared.
	assert.Equal(t, 2, p.Spans[3].Number)
}

func TestDecodeLenientWithoutDataSection(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := defaultMessage()
	m.numbers = map[int]uint8{7: 9}

	d := smallDecoder()
	d.Mode = Lenient
	d.Logger = logger
	p, err := d.Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)
	assert.Nil(t, p.Section7)
	assert.Nil(t, p.Grid)
	assert.Equal(t, "grid not decoded: section 5 or 7 missing", hook.LastEntry().Message)
}

func TestDecodeLenientBadTag(t *testing.T) {
	raw := defaultMessage().bytes()
	copy(raw, "BIRG")
	d := smallDecoder()
	d.Mode = Lenient
	p, err := d.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "BIRG", p.Section0.Tag)
}

func TestDecodeLogsSectionsAtDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	d := smallDecoder()
	d.Logger = logger
	_, err := d.Decode(bytes.NewReader(defaultMessage().bytes()))
	require.NoError(t, err)

	var sections []int
	for _, e := range hook.AllEntries() {
		if e.Message == "decoded section" {
			sections = append(sections, e.Data["section"].(int))
		}
	}
	assert.Equal(t, []int{1, 3, 4, 5, 6, 7}, sections)
}

func TestDecodeTruncatedSection(t *testing.T) {
	raw := defaultMessage().bytes()
	_, err := smallDecoder().Decode(bytes.NewReader(raw[:16+21+30]))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecodeHeaderShorterThanFive(t *testing.T) {
	m := defaultMessage()
	raw := m.bytes()
	put(raw[16:], 1, 4, 3)
	_, err := smallDecoder().Decode(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDecodeInvalidShape(t *testing.T) {
	_, err := (&Decoder{Rows: -1}).Decode(bytes.NewReader(defaultMessage().bytes()))
	assert.Error(t, err)
}

func TestDecodeWithBitmap(t *testing.T) {
	m := defaultMessage()
	m.bitmapInd = bitmapFollows
	m.bitmap = []byte{0x90} // cells 0 and 3
	m.data = []byte{2, 4}
	p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Grid.Vals[0], 1e-12)
	assert.True(t, math.IsNaN(p.Grid.Vals[1]))
	assert.True(t, math.IsNaN(p.Grid.Vals[2]))
	assert.InDelta(t, 2.0, p.Grid.Vals[3], 1e-12)
}

func TestDecodeWithBitmapCountMismatch(t *testing.T) {
	m := defaultMessage()
	m.bitmapInd = bitmapFollows
	m.bitmap = []byte{0x90}
	m.data = []byte{2, 4, 4}
	_, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	assert.ErrorIs(t, err, ErrGridSizeMismatch)
}

func TestDecodeLevelBeyondTable(t *testing.T) {
	m := defaultMessage()
	m.data = []byte{6, 6, 6, 6}
	_, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestProductLookup(t *testing.T) {
	m := defaultMessage()
	m.data = []byte{1, 2, 3, 4}
	p, err := smallDecoder().Decode(bytes.NewReader(m.bytes()))
	require.NoError(t, err)

	assert.InDelta(t, 0.1, p.Lookup(36.0, 140.0), 1e-12)
	assert.InDelta(t, 0.5, p.Lookup(36.0, 140.01), 1e-12)
	assert.InDelta(t, 1.0, p.Lookup(35.99, 140.0), 1e-12)
	assert.InDelta(t, 2.0, p.Lookup(35.991, 140.009), 1e-12)
	assert.True(t, math.IsNaN(p.Lookup(40, 140)))

	p.Section3 = nil
	assert.True(t, math.IsNaN(p.Lookup(36.0, 140.0)))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"strict": Strict, "LENIENT": Lenient, " lenient ": Lenient, "": Strict} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("loose")
	assert.Error(t, err)
	assert.Equal(t, "lenient", Lenient.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
