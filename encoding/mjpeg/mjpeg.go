// Package mjpeg streams replays over HTTP as motion JPEG.
package mjpeg

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	"github.com/mattn/go-mjpeg"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ContentType is the media type of a single encoded frame.
const ContentType = "image/jpeg"

// Encoder is a live view of a replay. Every call to Update replaces the frame sent to connected clients.
type Encoder struct {
	Quality int // JPEG quality, 1 to 100; 0 uses the library default

	stream *mjpeg.Stream
	log    *zap.Logger
	frames int
}

// NewEncoder returns an encoder with an empty stream. A nil logger disables logging.
func NewEncoder(quality int, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{
		Quality: quality,
		stream:  mjpeg.NewStream(),
		log:     log,
	}
}

func (enc *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	enc.stream.ServeHTTP(w, r)
}

// Update pushes img to the stream.
func (enc *Encoder) Update(img image.Image) error {
	var b bytes.Buffer
	if err := enc.Encode(&b, img); err != nil {
		enc.log.Error("encode frame", zap.Int("frame", enc.frames), zap.Error(err))
		return err
	}
	if err := enc.stream.Update(b.Bytes()); err != nil {
		enc.log.Error("update stream", zap.Int("frame", enc.frames), zap.Error(err))
		return errors.Wrap(err, "unable to update stream")
	}
	enc.frames++
	return nil
}

// Frames returns the number of frames pushed to the stream.
func (enc *Encoder) Frames() int { return enc.frames }

// Encode writes img to w as a single JPEG.
func (enc *Encoder) Encode(w io.Writer, img image.Image) error {
	var opts *jpeg.Options
	if enc.Quality > 0 {
		opts = &jpeg.Options{Quality: enc.Quality}
	}
	if err := jpeg.Encode(w, img, opts); err != nil {
		return errors.Wrap(err, "unable to encode jpeg")
	}
	return nil
}

func (enc *Encoder) ContentType() string { return ContentType }
