package kifu

import (
	"image"
	"sync"
)

// rgbaPool holds render buffers keyed by their dimensions.
var rgbaPool = struct {
	sync.Mutex
	m map[image.Point]*sync.Pool
}{m: make(map[image.Point]*sync.Pool)}

func poolFor(w, h int) *sync.Pool {
	k := image.Point{w, h}
	rgbaPool.Lock()
	defer rgbaPool.Unlock()
	p, ok := rgbaPool.m[k]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				return image.NewRGBA(image.Rect(0, 0, w, h))
			},
		}
		rgbaPool.m[k] = p
	}
	return p
}

// borrowRGBA returns a w×h buffer. Its contents are undefined.
func borrowRGBA(w, h int) *image.RGBA { return poolFor(w, h).Get().(*image.RGBA) }

// returnRGBA gives a buffer obtained from borrowRGBA back. It must not be used afterwards.
func returnRGBA(img *image.RGBA) {
	b := img.Bounds()
	poolFor(b.Dx(), b.Dy()).Put(img)
}
