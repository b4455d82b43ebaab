// Package png encodes rendered boards as PNG images.
package png

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ContentType is the media type of the encoder's output.
const ContentType = "image/png"

// Encoder writes PNG images. The zero value uses the default compression.
type Encoder struct {
	Compression png.CompressionLevel
}

// Encode writes img to w.
func (e Encoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: e.Compression}
	if err := enc.Encode(w, img); err != nil {
		return errors.Wrap(err, "unable to encode png")
	}
	return nil
}

func (Encoder) ContentType() string { return ContentType }

// Bytes encodes img into a new slice.
func (e Encoder) Bytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI wraps an encoded image for embedding in a text document, e.g. data:image/png;base64,iVBOR...
func DataURI(contentType string, b []byte) string {
	prefix := "data:" + contentType + ";base64,"
	out := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(b)))
	copy(out, prefix)
	base64.StdEncoding.Encode(out[len(prefix):], b)
	return string(out)
}

// ParseDataURI reverses DataURI.
func ParseDataURI(uri string) (contentType string, b []byte, err error) {
	const scheme, enc = "data:", ";base64,"
	if !strings.HasPrefix(uri, scheme) {
		return "", nil, errors.Errorf("not a data URI: %.16q", uri)
	}
	rest := uri[len(scheme):]
	i := strings.Index(rest, enc)
	if i < 0 {
		return "", nil, errors.New("data URI is not base64 encoded")
	}
	contentType = rest[:i]
	if b, err = base64.StdEncoding.DecodeString(rest[i+len(enc):]); err != nil {
		return "", nil, errors.Wrap(err, "bad data URI payload")
	}
	return contentType, b, nil
}
