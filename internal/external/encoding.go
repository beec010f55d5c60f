package external

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decodedBody replaces a compressed response body with its decoder while
// still closing the underlying connection body.
type decodedBody struct {
	io.Reader
	closeDecoder func()
	raw          io.ReadCloser
}

func (b *decodedBody) Close() error {
	b.closeDecoder()
	return b.raw.Close()
}

// decodeBody swaps resp.Body for a decompressing reader according to the
// Content-Encoding header. Identity bodies are left untouched.
func decodeBody(resp *http.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))

	switch encoding {
	case "", "identity":
		return nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		resp.Body = &decodedBody{
			Reader:       zr,
			closeDecoder: func() { zr.Close() },
			raw:          resp.Body,
		}
	case "zstd":
		zd, err := zstd.NewReader(resp.Body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		resp.Body = &decodedBody{
			Reader:       zd,
			closeDecoder: zd.Close,
			raw:          resp.Body,
		}
	default:
		return fmt.Errorf("unsupported content encoding %q", encoding)
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}
