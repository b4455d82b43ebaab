// Package render draws board positions into RGBA pixel buffers.
//
// The output depends only on the position and the options, so two renders of the same position
// are identical byte for byte. Grid and stones are drawn without anti-aliasing; only the optional
// coordinate labels are smoothed.
package render

import (
	"image"
	"image/color"

	"github.com/gorgonia/kifu/game"
	"github.com/pkg/errors"
)

// ErrInvalidOptions is returned when a position cannot be drawn with the given options.
var ErrInvalidOptions = errors.New("invalid render options")

// Position is anything that can be drawn: a square grid of intersections.
type Position interface {
	Size() int
	StoneAt(game.Coord) game.Colour
}

// Palette holds the colours of a rendered board.
type Palette struct {
	Background color.RGBA
	Line       color.RGBA
	Black      color.RGBA
	White      color.RGBA
}

// DefaultPalette is a wooden board with black lines.
var DefaultPalette = Palette{
	Background: color.RGBA{0xdc, 0xb3, 0x5c, 0xff},
	Line:       color.RGBA{0x00, 0x00, 0x00, 0xff},
	Black:      color.RGBA{0x00, 0x00, 0x00, 0xff},
	White:      color.RGBA{0xff, 0xff, 0xff, 0xff},
}

// Options configures a render.
type Options struct {
	CellSize int     // distance between grid lines in pixels
	Padding  int     // margin between the outermost lines and the image edge
	Palette  Palette // colours of the board, the lines and the stones
	Labels   bool    // draw coordinate labels in the margin
}

// DefaultOptions returns 40px cells with a 40px margin and the default palette.
func DefaultOptions() Options {
	return Options{
		CellSize: 40,
		Padding:  40,
		Palette:  DefaultPalette,
	}
}

// Validate checks that a board of the given size can be drawn.
func (o Options) Validate(size int) error {
	switch {
	case size <= 0:
		return errors.WithMessagef(ErrInvalidOptions, "board size %d", size)
	case o.CellSize < 1:
		return errors.WithMessagef(ErrInvalidOptions, "cell size %d", o.CellSize)
	case o.Padding < 0:
		return errors.WithMessagef(ErrInvalidOptions, "padding %d", o.Padding)
	}
	return nil
}

// Dimensions returns the width and height of the image of a board of the given size.
func (o Options) Dimensions(size int) (w, h int) {
	w = size*o.CellSize + 2*o.Padding
	return w, w
}

// Radius returns the radius of a stone in pixels. It is negative when the cells are too small to hold stones.
func (o Options) Radius() int { return o.CellSize/2 - 2 }

// Render draws the position into a new buffer.
func Render(pos Position, o Options) (*image.RGBA, error) {
	if err := o.Validate(pos.Size()); err != nil {
		return nil, err
	}
	w, h := o.Dimensions(pos.Size())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw(dst, pos, o)
	return dst, nil
}

// RenderInto draws the position into dst, which must have exactly the bounds Render would produce.
// Every pixel of dst is overwritten.
func RenderInto(dst *image.RGBA, pos Position, o Options) error {
	if err := o.Validate(pos.Size()); err != nil {
		return err
	}
	w, h := o.Dimensions(pos.Size())
	if want := image.Rect(0, 0, w, h); dst.Bounds() != want {
		return errors.WithMessagef(ErrInvalidOptions, "buffer bounds %v, need %v", dst.Bounds(), want)
	}
	draw(dst, pos, o)
	return nil
}

func draw(dst *image.RGBA, pos Position, o Options) {
	size := pos.Size()
	fill(dst, o.Palette.Background)

	// grid
	from, to := o.Padding, o.Padding+(size-1)*o.CellSize
	for i := 0; i < size; i++ {
		p := o.Padding + i*o.CellSize
		for j := from; j <= to; j++ {
			set(dst, j, p, o.Palette.Line) // horizontal
			set(dst, p, j, o.Palette.Line) // vertical
		}
	}

	// stones
	r := o.Radius()
	if r >= 0 {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				var c color.RGBA
				switch pos.StoneAt(game.Coord{X: x, Y: y}) {
				case game.Black:
					c = o.Palette.Black
				case game.White:
					c = o.Palette.White
				default:
					continue
				}
				disc(dst, o.Padding+x*o.CellSize, o.Padding+y*o.CellSize, r, c)
			}
		}
	}

	if o.Labels {
		labels(dst, size, o)
	}
}

func fill(dst *image.RGBA, c color.RGBA) {
	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

// set writes a single pixel. Pixels outside the buffer are dropped.
func set(dst *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(dst.Rect)) {
		return
	}
	i := dst.PixOffset(x, y)
	dst.Pix[i+0] = c.R
	dst.Pix[i+1] = c.G
	dst.Pix[i+2] = c.B
	dst.Pix[i+3] = c.A
}

// disc fills every pixel within r of (cx, cy).
func disc(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	rr := r * r
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= rr {
				set(dst, cx+dx, cy+dy, c)
			}
		}
	}
}
