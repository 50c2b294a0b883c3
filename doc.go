// Package grib2jma decodes the JMA 1 km nationwide composite radar GPV
// product: a GRIB2 message of Sections 0, 1, 3, 4, 5, 6 and 7 whose data is
// run-length packed level indices mapped through a per-message level table.
//
// Decoding is a single pass of absolute-offset reads over an io.ReaderAt and
// yields a Product holding every section and a dense Grid of physical values
// (precipitation intensity, mm/h) with missing cells as NaN.
package grib2jma
