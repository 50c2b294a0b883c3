package grib2jma

import (
	"fmt"
	"math"
)

// Scanning modes understood by LatLonGrid. Bit 0x40 set means rows run
// south to north; the other bits must be clear.
const (
	ScanNorthToSouth = 0x00
	ScanSouthToNorth = 0x40
)

const missing32 = 0xFFFFFFFF

// LatLonGrid is a regular latitude/longitude grid in degrees.
type LatLonGrid struct {
	Ni, Nj   int     // columns, rows
	La1, Lo1 float64 // first grid point
	La2, Lo2 float64 // last grid point
	Di, Dj   float64 // increments, always positive
	ScanMode byte
}

// Geometry converts the grid definition to degrees.
func (s *Section3) Geometry() (LatLonGrid, error) {
	if s.ScanningMode != ScanNorthToSouth && s.ScanningMode != ScanSouthToNorth {
		return LatLonGrid{}, fmt.Errorf("section 3: scan mode 0x%02X: %w", s.ScanningMode, ErrInvalidTemplate)
	}
	if s.Ni == 0 || s.Nj == 0 || s.Ni == missing32 || s.Nj == missing32 {
		return LatLonGrid{}, fmt.Errorf("section 3: grid %dx%d: %w", s.Ni, s.Nj, ErrInvalidTemplate)
	}
	unit := 1e-6
	if s.BasicAngle != 0 && s.BasicAngle != missing32 {
		if s.Subdivisions == 0 || s.Subdivisions == missing32 {
			return LatLonGrid{}, fmt.Errorf("section 3: basic angle %d without subdivisions: %w",
				s.BasicAngle, ErrInvalidTemplate)
		}
		unit = float64(s.BasicAngle) / float64(s.Subdivisions)
	}
	g := LatLonGrid{
		Ni:       int(s.Ni),
		Nj:       int(s.Nj),
		La1:      signMagnitude(s.La1) * unit,
		Lo1:      float64(s.Lo1) * unit,
		La2:      signMagnitude(s.La2) * unit,
		Lo2:      float64(s.Lo2) * unit,
		ScanMode: s.ScanningMode,
	}
	// Increments may be left missing; derive them from the corner points.
	if s.Di != missing32 {
		g.Di = float64(s.Di) * unit
	} else if g.Ni > 1 {
		g.Di = math.Abs(g.Lo2-g.Lo1) / float64(g.Ni-1)
	}
	if s.Dj != missing32 {
		g.Dj = float64(s.Dj) * unit
	} else if g.Nj > 1 {
		g.Dj = math.Abs(g.La2-g.La1) / float64(g.Nj-1)
	}
	if g.Di <= 0 || g.Dj <= 0 {
		return LatLonGrid{}, fmt.Errorf("section 3: increments %g/%g: %w", g.Di, g.Dj, ErrInvalidTemplate)
	}
	return g, nil
}

// LatLonToIJ maps (lat°N, lon°E) to the nearest column i and row j. The
// result may lie outside the grid.
func (g *LatLonGrid) LatLonToIJ(lat, lon float64) (i, j int) {
	dLon := math.Mod(lon-g.Lo1, 360)
	if dLon < -180 {
		dLon += 360
	}
	i = int(math.Round(dLon / g.Di))
	if g.ScanMode&ScanSouthToNorth != 0 {
		j = int(math.Round((lat - g.La1) / g.Dj))
	} else {
		j = int(math.Round((g.La1 - lat) / g.Dj))
	}
	return
}

// IJToLatLon returns the centre of cell (i, j).
func (g *LatLonGrid) IJToLatLon(i, j int) (lat, lon float64) {
	lon = g.Lo1 + float64(i)*g.Di
	if g.ScanMode&ScanSouthToNorth != 0 {
		lat = g.La1 + float64(j)*g.Dj
	} else {
		lat = g.La1 - float64(j)*g.Dj
	}
	return
}

// Lookup returns the nearest-neighbour value at (lat, lon) from a row-major
// grid, or NaN when the point is outside it.
func (g *LatLonGrid) Lookup(lat, lon float64, grid *Grid) float64 {
	i, j := g.LatLonToIJ(lat, lon)
	if i < 0 || i >= g.Ni || j < 0 || j >= g.Nj {
		return math.NaN()
	}
	return grid.At(j, i)
}

// signMagnitude decodes a GRIB2 sign-magnitude 32-bit value: the MSB is the
// sign and the remaining 31 bits the magnitude.
func signMagnitude(raw uint32) float64 {
	v := float64(raw & 0x7FFFFFFF)
	if raw&0x80000000 != 0 {
		return -v
	}
	return v
}
