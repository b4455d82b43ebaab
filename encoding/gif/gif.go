package gif

import (
	"image"
	"image/color"
	"image/gif"
	"io"
	"strconv"

	"github.com/gorgonia/kifu/render"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// ContentType is the media type of the encoder's output.
	ContentType = "image/gif"

	defaultDelay = 50  // half a second per ply
	defaultHold  = 300 // the final position stays up for three seconds
	fontsize     = 12.0
)

// Encoder builds an animated GIF of a replay, one frame per ply.
type Encoder struct {
	Delay    int  // delay between frames, in 100ths of a second
	Hold     int  // delay of the final frame
	Captions bool // write the ply number in the top left corner

	maxH, maxW int // frames larger than this are scaled down
	palette    color.Palette
	ink        image.Image
	out        *gif.GIF
}

// NewEncoder returns an encoder whose frames use the colours of p and fit in w×h pixels.
// A non-positive w or h means no limit.
func NewEncoder(p render.Palette, w, h int) *Encoder {
	return &Encoder{
		Delay: defaultDelay,
		Hold:  defaultHold,

		maxW:    w,
		maxH:    h,
		palette: color.Palette{p.Background, p.Line, p.Black, p.White},
		ink:     image.NewUniform(p.Line),
		out:     &gif.GIF{LoopCount: 0},
	}
}

// Add appends a frame showing the position after the given ply.
func (enc *Encoder) Add(img image.Image, ply int) error {
	if img.Bounds().Empty() {
		return errors.Errorf("empty frame at ply %d", ply)
	}
	im := enc.frame(img)
	if enc.Captions {
		enc.caption(im, "move "+strconv.Itoa(ply))
	}
	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, enc.Delay)
	return nil
}

// Len returns the number of frames added so far.
func (enc *Encoder) Len() int { return len(enc.out.Image) }

// Flush writes the animation into w and resets the encoder.
func (enc *Encoder) Flush(w io.Writer) error {
	if len(enc.out.Image) == 0 {
		return errors.New("no frames to encode")
	}
	enc.out.Delay[len(enc.out.Delay)-1] = enc.Hold
	err := gif.EncodeAll(w, enc.out)
	enc.Reset()
	if err != nil {
		return errors.Wrap(err, "unable to encode gif")
	}
	return nil
}

// Reset drops every frame.
func (enc *Encoder) Reset() { enc.out = &gif.GIF{LoopCount: enc.out.LoopCount} }

// Encode writes img to w as a single frame GIF.
func (enc *Encoder) Encode(w io.Writer, img image.Image) error {
	one := &gif.GIF{
		Image: []*image.Paletted{enc.frame(img)},
		Delay: []int{0},
	}
	if err := gif.EncodeAll(w, one); err != nil {
		return errors.Wrap(err, "unable to encode gif")
	}
	return nil
}

func (enc *Encoder) ContentType() string { return ContentType }

// frame converts img to the encoder's palette, scaling it down if needed.
func (enc *Encoder) frame(img image.Image) *image.Paletted {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if enc.maxW > 0 && w > enc.maxW {
		h = h * enc.maxW / w
		w = enc.maxW
	}
	if enc.maxH > 0 && h > enc.maxH {
		w = w * enc.maxH / h
		h = enc.maxH
	}
	w, h = maxInt(w, 1), maxInt(h, 1)

	im := image.NewPaletted(image.Rect(0, 0, w, h), enc.palette)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(im, im.Bounds(), img, src.Min, draw.Src)
		return im
	}
	draw.NearestNeighbor.Scale(im, im.Bounds(), img, src, draw.Src, nil)
	return im
}

func (enc *Encoder) caption(im *image.Paletted, s string) {
	face := render.NewFace(fontsize)
	defer face.Close()
	d := font.Drawer{
		Dst:  im,
		Src:  enc.ink,
		Face: face,
	}
	m := face.Metrics()
	d.Dot = fixed.Point26_6{X: fixed.I(2), Y: fixed.I(2) + m.Ascent}
	d.DrawString(s)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
