package grib2jma

import (
	"fmt"
	"time"
)

// Section0 is the 16-byte Indicator Section.
type Section0 struct {
	Tag         string // "GRIB"
	Reserved    uint16
	Discipline  uint8 // 0 = meteorological products
	Edition     uint8 // GRIB edition, 2
	TotalLength uint64
}

// Header is the length/number prefix shared by Sections 1 to 7.
type Header struct {
	Length uint32
	Number uint8
}

// Section1 is the Identification Section.
type Section1 struct {
	Header
	Center                    uint16 // 34 = Tokyo
	SubCenter                 uint16
	MasterTablesVersion       uint8
	LocalTablesVersion        uint8
	ReferenceTimeSignificance uint8 // 0 = analysis
	ReferenceTime             time.Time
	ProductionStatus          uint8 // 0 = operational
	DataType                  uint8 // 0 = analysis products
}

// Section3 is the Grid Definition Section, template 3.0 (latitude/longitude).
// Angles are in units of BasicAngle/Subdivisions degrees, 1e-6 when unset.
type Section3 struct {
	Header
	Source                     uint8
	NumPoints                  uint32
	OptionalListOctets         uint8
	OptionalListInterpretation uint8
	TemplateNumber             uint16
	EarthShape                 uint8
	RadiusScaleFactor          uint8
	RadiusScaledValue          uint32
	MajorAxisScaleFactor       uint8
	MajorAxisScaledValue       uint32
	MinorAxisScaleFactor       uint8
	MinorAxisScaledValue       uint32
	Ni                         uint32 // points along a parallel (columns)
	Nj                         uint32 // points along a meridian (rows)
	BasicAngle                 uint32
	Subdivisions               uint32
	La1                        uint32
	Lo1                        uint32
	ResolutionFlags            uint8
	La2                        uint32
	Lo2                        uint32
	Di                         uint32
	Dj                         uint32
	ScanningMode               uint8
}

// Section4 is the Product Definition Section for the radar composite
// (statistically processed over a time interval, with radar operating info).
type Section4 struct {
	Header
	CoordinateValues         uint16
	TemplateNumber           uint16
	ParameterCategory        uint8
	ParameterNumber          uint8
	GeneratingProcessType    uint8
	BackgroundProcess        uint8
	ForecastProcess          uint8
	CutoffHours              uint16
	CutoffMinutes            uint8
	TimeRangeUnit            uint8
	ForecastTime             uint32
	FirstSurfaceType         uint8
	FirstSurfaceScaleFactor  uint8
	FirstSurfaceScaledValue  uint32
	SecondSurfaceType        uint8
	SecondSurfaceScaleFactor uint8
	SecondSurfaceScaledValue uint32
	IntervalEnd              time.Time
	TimeRangeCount           uint8
	MissingValues            uint32
	StatisticalProcess       uint8
	TimeIncrementType        uint8
	StatisticalUnit          uint8
	StatisticalLength        uint32
	TimeIncrementUnit        uint8
	TimeIncrement            uint32
	RadarOperation           uint64
	RadarOperationExtra      uint64
	RainGaugeOperation       uint64
}

// Section5 is the Data Representation Section for run-length packing with
// level values.
type Section5 struct {
	Header
	NumPoints      uint32
	TemplateNumber uint16
	BitsPerValue   uint8  // nbit
	MaxLevel       uint16 // maxv: symbols above it are run-length digits
	LevelCount     uint16
	DecimalScale   uint8
	RawLevels      []uint16
	// Levels holds RawLevels / 10^DecimalScale, one per level index 1..n.
	Levels []float64
}

// Section6 is the Bit-Map Section.
type Section6 struct {
	Header
	BitmapIndicator uint8 // 255 = no bitmap, 0 = bitmap follows
	Bitmap          []byte
}

// Section7 is the Data Section: the packed run-length symbol stream.
type Section7 struct {
	Header
	Data []byte
}

const (
	section0Len     = 16
	sectionHeadLen  = 5
	endMarker       = "7777"
	noBitmap        = 255
	bitmapFollows   = 0
	maxDecimalScale = 18 // 10^18 still fits int64
)

var section0Layout = layout[Section0]{
	asciiField(1, 4, "tag", func(s *Section0) *string { return &s.Tag }),
	uintField(5, 6, "reserved", func(s *Section0) *uint16 { return &s.Reserved }),
	uintField(7, 7, "discipline", func(s *Section0) *uint8 { return &s.Discipline }),
	uintField(8, 8, "edition", func(s *Section0) *uint8 { return &s.Edition }),
	uintField(9, 16, "total length", func(s *Section0) *uint64 { return &s.TotalLength }),
}

func headerFields[S any](hdr func(*S) *Header) layout[S] {
	return layout[S]{
		uintField(1, 4, "length", func(s *S) *uint32 { return &hdr(s).Length }),
		uintField(5, 5, "number", func(s *S) *uint8 { return &hdr(s).Number }),
	}
}

var section1Layout = append(headerFields(func(s *Section1) *Header { return &s.Header }),
	uintField(6, 7, "center", func(s *Section1) *uint16 { return &s.Center }),
	uintField(8, 9, "sub-center", func(s *Section1) *uint16 { return &s.SubCenter }),
	uintField(10, 10, "master tables version", func(s *Section1) *uint8 { return &s.MasterTablesVersion }),
	uintField(11, 11, "local tables version", func(s *Section1) *uint8 { return &s.LocalTablesVersion }),
	uintField(12, 12, "reference time significance", func(s *Section1) *uint8 { return &s.ReferenceTimeSignificance }),
	timeField(13, "reference time", func(s *Section1) *time.Time { return &s.ReferenceTime }),
	uintField(20, 20, "production status", func(s *Section1) *uint8 { return &s.ProductionStatus }),
	uintField(21, 21, "data type", func(s *Section1) *uint8 { return &s.DataType }),
)

var section3Layout = append(headerFields(func(s *Section3) *Header { return &s.Header }),
	uintField(6, 6, "source", func(s *Section3) *uint8 { return &s.Source }),
	uintField(7, 10, "number of points", func(s *Section3) *uint32 { return &s.NumPoints }),
	uintField(11, 11, "optional list octets", func(s *Section3) *uint8 { return &s.OptionalListOctets }),
	uintField(12, 12, "optional list interpretation", func(s *Section3) *uint8 { return &s.OptionalListInterpretation }),
	uintField(13, 14, "template number", func(s *Section3) *uint16 { return &s.TemplateNumber }),
	uintField(15, 15, "earth shape", func(s *Section3) *uint8 { return &s.EarthShape }),
	uintField(16, 16, "radius scale factor", func(s *Section3) *uint8 { return &s.RadiusScaleFactor }),
	uintField(17, 20, "radius scaled value", func(s *Section3) *uint32 { return &s.RadiusScaledValue }),
	uintField(21, 21, "major axis scale factor", func(s *Section3) *uint8 { return &s.MajorAxisScaleFactor }),
	uintField(22, 25, "major axis scaled value", func(s *Section3) *uint32 { return &s.MajorAxisScaledValue }),
	uintField(26, 26, "minor axis scale factor", func(s *Section3) *uint8 { return &s.MinorAxisScaleFactor }),
	uintField(27, 30, "minor axis scaled value", func(s *Section3) *uint32 { return &s.MinorAxisScaledValue }),
	uintField(31, 34, "Ni", func(s *Section3) *uint32 { return &s.Ni }),
	uintField(35, 38, "Nj", func(s *Section3) *uint32 { return &s.Nj }),
	uintField(39, 42, "basic angle", func(s *Section3) *uint32 { return &s.BasicAngle }),
	uintField(43, 46, "subdivisions", func(s *Section3) *uint32 { return &s.Subdivisions }),
	uintField(47, 50, "La1", func(s *Section3) *uint32 { return &s.La1 }),
	uintField(51, 54, "Lo1", func(s *Section3) *uint32 { return &s.Lo1 }),
	uintField(55, 55, "resolution flags", func(s *Section3) *uint8 { return &s.ResolutionFlags }),
	uintField(56, 59, "La2", func(s *Section3) *uint32 { return &s.La2 }),
	uintField(60, 63, "Lo2", func(s *Section3) *uint32 { return &s.Lo2 }),
	uintField(64, 67, "Di", func(s *Section3) *uint32 { return &s.Di }),
	uintField(68, 71, "Dj", func(s *Section3) *uint32 { return &s.Dj }),
	uintField(72, 72, "scanning mode", func(s *Section3) *uint8 { return &s.ScanningMode }),
)

var section4Layout = append(headerFields(func(s *Section4) *Header { return &s.Header }),
	uintField(6, 7, "coordinate values", func(s *Section4) *uint16 { return &s.CoordinateValues }),
	uintField(8, 9, "template number", func(s *Section4) *uint16 { return &s.TemplateNumber }),
	uintField(10, 10, "parameter category", func(s *Section4) *uint8 { return &s.ParameterCategory }),
	uintField(11, 11, "parameter number", func(s *Section4) *uint8 { return &s.ParameterNumber }),
	uintField(12, 12, "generating process type", func(s *Section4) *uint8 { return &s.GeneratingProcessType }),
	uintField(13, 13, "background process", func(s *Section4) *uint8 { return &s.BackgroundProcess }),
	uintField(14, 14, "forecast process", func(s *Section4) *uint8 { return &s.ForecastProcess }),
	uintField(15, 16, "cutoff hours", func(s *Section4) *uint16 { return &s.CutoffHours }),
	uintField(17, 17, "cutoff minutes", func(s *Section4) *uint8 { return &s.CutoffMinutes }),
	uintField(18, 18, "time range unit", func(s *Section4) *uint8 { return &s.TimeRangeUnit }),
	uintField(19, 22, "forecast time", func(s *Section4) *uint32 { return &s.ForecastTime }),
	uintField(23, 23, "first surface type", func(s *Section4) *uint8 { return &s.FirstSurfaceType }),
	uintField(24, 24, "first surface scale factor", func(s *Section4) *uint8 { return &s.FirstSurfaceScaleFactor }),
	uintField(25, 28, "first surface scaled value", func(s *Section4) *uint32 { return &s.FirstSurfaceScaledValue }),
	uintField(29, 29, "second surface type", func(s *Section4) *uint8 { return &s.SecondSurfaceType }),
	uintField(30, 30, "second surface scale factor", func(s *Section4) *uint8 { return &s.SecondSurfaceScaleFactor }),
	uintField(31, 34, "second surface scaled value", func(s *Section4) *uint32 { return &s.SecondSurfaceScaledValue }),
	timeField(35, "interval end", func(s *Section4) *time.Time { return &s.IntervalEnd }),
	uintField(42, 42, "time range count", func(s *Section4) *uint8 { return &s.TimeRangeCount }),
	uintField(43, 46, "missing values", func(s *Section4) *uint32 { return &s.MissingValues }),
	uintField(47, 47, "statistical process", func(s *Section4) *uint8 { return &s.StatisticalProcess }),
	uintField(48, 48, "time increment type", func(s *Section4) *uint8 { return &s.TimeIncrementType }),
	uintField(49, 49, "statistical unit", func(s *Section4) *uint8 { return &s.StatisticalUnit }),
	uintField(50, 53, "statistical length", func(s *Section4) *uint32 { return &s.StatisticalLength }),
	uintField(54, 54, "time increment unit", func(s *Section4) *uint8 { return &s.TimeIncrementUnit }),
	uintField(55, 58, "time increment", func(s *Section4) *uint32 { return &s.TimeIncrement }),
	uintField(59, 66, "radar operation", func(s *Section4) *uint64 { return &s.RadarOperation }),
	uintField(67, 74, "radar operation extra", func(s *Section4) *uint64 { return &s.RadarOperationExtra }),
	uintField(75, 82, "rain gauge operation", func(s *Section4) *uint64 { return &s.RainGaugeOperation }),
)

// section5Layout covers the fixed part; level values start at byte 18.
var section5Layout = append(headerFields(func(s *Section5) *Header { return &s.Header }),
	uintField(6, 9, "number of points", func(s *Section5) *uint32 { return &s.NumPoints }),
	uintField(10, 11, "template number", func(s *Section5) *uint16 { return &s.TemplateNumber }),
	uintField(12, 12, "bits per value", func(s *Section5) *uint8 { return &s.BitsPerValue }),
	uintField(13, 14, "max level", func(s *Section5) *uint16 { return &s.MaxLevel }),
	uintField(15, 16, "level count", func(s *Section5) *uint16 { return &s.LevelCount }),
	uintField(17, 17, "decimal scale", func(s *Section5) *uint8 { return &s.DecimalScale }),
)

const section5LevelsStart = 18

var section6Layout = append(headerFields(func(s *Section6) *Header { return &s.Header }),
	uintField(6, 6, "bitmap indicator", func(s *Section6) *uint8 { return &s.BitmapIndicator }),
)

var section7Layout = headerFields(func(s *Section7) *Header { return &s.Header })

func decodeSection0(r *sectionReader) (*Section0, error) {
	s := new(Section0)
	if err := section0Layout.decode(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeFixed decodes a length-prefixed section whose fields are all in l.
func decodeFixed[S any](r *sectionReader, l layout[S], length uint32) (*S, error) {
	if int64(length) < int64(l.minLength()) {
		return nil, newError(ErrOutOfRange, r.section, "length", r.abs(1),
			"declared length %d shorter than layout (%d bytes)", length, l.minLength())
	}
	s := new(S)
	if err := l.decode(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeSection1(r *sectionReader, length uint32) (*Section1, error) {
	return decodeFixed(r, section1Layout, length)
}

func decodeSection3(r *sectionReader, length uint32) (*Section3, error) {
	return decodeFixed(r, section3Layout, length)
}

func decodeSection4(r *sectionReader, length uint32) (*Section4, error) {
	return decodeFixed(r, section4Layout, length)
}

func decodeSection5(r *sectionReader, length uint32) (*Section5, error) {
	s, err := decodeFixed(r, section5Layout, length)
	if err != nil {
		return nil, err
	}
	end := section5LevelsStart + 2*int(s.LevelCount) - 1
	if end > int(length) {
		return nil, newError(ErrOutOfRange, r.section, "levels", r.abs(section5LevelsStart),
			"%d levels need %d bytes, section length %d", s.LevelCount, end, length)
	}
	if s.DecimalScale > maxDecimalScale {
		return nil, newError(ErrInvalidTemplate, r.section, "decimal scale", r.abs(17),
			"10^%d does not fit an integer scale", s.DecimalScale)
	}
	s.RawLevels = make([]uint16, s.LevelCount)
	for k := range s.RawLevels {
		start := section5LevelsStart + 2*k
		v, err := r.uint(start, start+1, fmt.Sprintf("level %d", k+1))
		if err != nil {
			return nil, err
		}
		s.RawLevels[k] = uint16(v)
	}
	s.Levels = scaleLevels(s.RawLevels, s.DecimalScale)
	return s, nil
}

func decodeSection6(r *sectionReader, length uint32) (*Section6, error) {
	s, err := decodeFixed(r, section6Layout, length)
	if err != nil {
		return nil, err
	}
	switch s.BitmapIndicator {
	case noBitmap:
	case bitmapFollows:
		if length > uint32(section6Layout.minLength()) {
			s.Bitmap, err = r.bytes(section6Layout.minLength()+1, int(length), "bitmap")
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, newError(ErrInvalidTemplate, r.section, "bitmap indicator", r.abs(6),
			"unsupported indicator %d", s.BitmapIndicator)
	}
	return s, nil
}

func decodeSection7(r *sectionReader, length uint32) (*Section7, error) {
	s, err := decodeFixed(r, section7Layout, length)
	if err != nil {
		return nil, err
	}
	if length > sectionHeadLen {
		s.Data, err = r.bytes(sectionHeadLen+1, int(length), "data")
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
