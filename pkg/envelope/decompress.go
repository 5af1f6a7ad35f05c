package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var (
	ErrDecompressionFailed = errors.New("envelope: payload decompression failed")
	ErrPayloadTooLarge     = errors.New("envelope: decompressed payload exceeds limit")
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Decompress inflates the envelope payload. maxSize <= 0 disables the size
// limit.
func (e *Envelope) Decompress(maxSize int64) ([]byte, error) {
	return Decompress(e.Payload, maxSize)
}

// Decompress inflates an .xz stream or a classic LZMA stream, detected by
// magic.
func Decompress(payload []byte, maxSize int64) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)
	if bytes.HasPrefix(payload, xzMagic) {
		r, err = xz.NewReader(bytes.NewReader(payload))
	} else {
		r, err = lzma.NewReader(bytes.NewReader(payload))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressionFailed, err)
	}
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressionFailed, err)
	}
	if maxSize > 0 && int64(buf.Len()) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, maxSize)
	}
	return buf.Bytes(), nil
}
