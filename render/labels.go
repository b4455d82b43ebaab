package render

import (
	"image"
	"strconv"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// columns are named with letters, skipping I.
const columns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// ColumnLabel returns the conventional name of column x.
func ColumnLabel(x int) string {
	if x >= 0 && x < len(columns) {
		return columns[x : x+1]
	}
	return strconv.Itoa(x + 1)
}

// RowLabel returns the conventional name of row y. Rows are counted from the bottom.
func RowLabel(y, size int) string { return strconv.Itoa(size - y) }

// NewFace returns a Go Mono face of the given size in pixels. The caller must close it.
func NewFace(px float64) font.Face {
	return truetype.NewFace(regular, &truetype.Options{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// labels writes the column names above and below the grid and the row numbers on either side of it.
// They are kept in the strip of margin that edge stones do not reach.
func labels(dst *image.RGBA, size int, o Options) {
	reach := o.Radius()
	if reach < 0 {
		reach = 0
	}
	free := o.Padding - reach - 1
	px := float64(free) * 0.6
	if px < 4 {
		return // no room
	}
	face := NewFace(px)
	defer face.Close()

	w, h := o.Dimensions(size)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.Palette.Line),
		Face: face,
	}
	for i := 0; i < size; i++ {
		p := o.Padding + i*o.CellSize
		col, row := ColumnLabel(i), RowLabel(i, size)
		centred(&d, col, p, free/2)
		centred(&d, col, p, h-1-free/2)
		centred(&d, row, free/2, p)
		centred(&d, row, w-1-free/2, p)
	}
}

// centred draws s so that the middle of its ink box sits on (x, y).
func centred(d *font.Drawer, s string, x, y int) {
	m := d.Face.Metrics()
	d.Dot = fixed.Point26_6{
		X: fixed.I(x) - d.MeasureString(s)/2,
		Y: fixed.I(y) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(s)
}
