package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DataDog/zstd"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(b)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecompressPassesThroughPlainInput(t *testing.T) {
	raw := sampleMessage([]byte{5, 195}, 5)
	got, err := decompress(raw, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecompressGzip(t *testing.T) {
	raw := sampleMessage([]byte{5, 195}, 5)
	got, err := decompress(gzipped(t, raw), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecompressZstd(t *testing.T) {
	raw := sampleMessage([]byte{5, 195}, 5)
	packed, err := zstd.Compress(nil, raw)
	require.NoError(t, err)
	got, err := decompress(packed, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecompressLimit(t *testing.T) {
	big := make([]byte, 4096)
	_, err := decompress(gzipped(t, big), 1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 1024 bytes")

	packed, err := zstd.Compress(nil, big)
	require.NoError(t, err)
	_, err = decompress(packed, 1024)
	assert.Error(t, err)
}

func TestDecompressCorruptGzip(t *testing.T) {
	_, err := decompress([]byte{0x1f, 0x8b, 0x00}, 1024)
	assert.Error(t, err)
}

func TestCompressedSourceEndToEnd(t *testing.T) {
	path := writeSample(t, "radar.bin.gz", gzipped(t, sampleMessage([]byte{5, 195}, 5)))
	out, err := run(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Cells    : 4 (0 missing, 4 positive)")
}

func TestURLSource(t *testing.T) {
	raw := sampleMessage([]byte{5, 195}, 5)
	packed, err := zstd.Compress(nil, raw)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(packed)
	}))
	defer srv.Close()

	out, err := run(t, "value", srv.URL+"/radar.bin.zst", "36", "140")
	require.NoError(t, err)
	assert.Contains(t, out, "Value    : 4")
}

func TestReadSourceMissingFile(t *testing.T) {
	a := &app{v: viper.New()}
	_, err := a.readSource(context.Background(), "/nonexistent/radar.bin")
	assert.Error(t, err)
}
