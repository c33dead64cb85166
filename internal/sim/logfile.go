package sim

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const zstdExt = ".zst"

// LogPath derives the path of a sibling log (e.g. "detections") from the
// blip log path, keeping a trailing .zst last.
func LogPath(base, kind string) string {
	if strings.HasSuffix(base, zstdExt) {
		return strings.TrimSuffix(base, zstdExt) + "." + kind + zstdExt
	}
	return base + "." + kind
}

type zstdWriteCloser struct {
	*zstd.Encoder
	f *os.File
}

func (z *zstdWriteCloser) Close() error {
	return errors.Join(z.Encoder.Close(), z.f.Close())
}

type zstdReadCloser struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// CreateLog creates a log file, zstd-compressed when path ends in .zst.
func CreateLog(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, zstdExt) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdWriteCloser{Encoder: enc, f: f}, nil
}

// OpenLog opens a log written by CreateLog.
func OpenLog(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, zstdExt) {
		return f, nil
	}
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdReadCloser{Decoder: dec, f: f}, nil
}
