package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/geal-ai/grib2jma"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// loadProduct reads src, decompresses it if needed and decodes it.
func (a *app) loadProduct(ctx context.Context, src string) (*grib2jma.Product, error) {
	raw, err := a.readSource(ctx, src)
	if err != nil {
		return nil, err
	}
	raw, err = decompress(raw, a.maxBytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	d, err := a.decoder()
	if err != nil {
		return nil, err
	}
	p, err := d.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", src, err)
	}
	a.log.WithFields(logrus.Fields{
		"source": src,
		"bytes":  len(raw),
		"mode":   d.Mode,
	}).Info("decoded product")
	return p, nil
}

func (a *app) readSource(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(ctx, a.v.GetDuration("timeout"))
		defer cancel()
		return a.client().Fetch(ctx, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return readLimited(f, a.maxBytes(), src)
}

// decompress inflates gzip or zstd input, recognised by magic number.
// Anything else is returned unchanged.
func decompress(raw []byte, limit int64) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return readLimited(zr, limit, "gzip stream")
	case bytes.HasPrefix(raw, zstdMagic):
		zr := zstd.NewReader(bytes.NewReader(raw))
		defer zr.Close()
		return readLimited(zr, limit, "zstd stream")
	}
	return raw, nil
}

// readLimited reads all of r, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64, what string) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", what, limit)
	}
	return b, nil
}
