package kifu

import (
	"image"
	"io"

	"github.com/gorgonia/kifu/cache"
	"github.com/gorgonia/kifu/game"
	"github.com/gorgonia/kifu/render"
	"go.uber.org/zap"
)

// Config configures a Pipeline.
type Config struct {
	Render render.Options

	// extensions
	Encoder Encoder     // PNG when nil
	Logger  *zap.Logger // discards everything when nil
	Cache   cache.Cache // optional
}

// Encoder turns a rendered board into bytes of some image format.
//
// The encoders in encoding/png, encoding/gif and encoding/mjpeg all satisfy it.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	ContentType() string
}

// Job is one render of a Batch. A negative Ply renders the final position.
type Job struct {
	Record game.Record `json:"record"`
	Ply    int         `json:"ply"`
}

// Result is the outcome of a Job.
type Result struct {
	Data    []byte // encoded image
	Plies   int    // plies replayed
	Skipped int    // records that could not be applied
	Cached  bool   // served from the cache without replaying
	Err     error
}
