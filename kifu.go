// Package kifu replays Go game records and renders the resulting positions as images.
//
// A Pipeline ties the pieces together: a game.Record is replayed onto a board (package game/wq),
// the board is drawn into an RGBA buffer (package render) and the buffer is handed to an Encoder.
package kifu

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"image"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/gorgonia/kifu/encoding/gif"
	"github.com/gorgonia/kifu/encoding/mjpeg"
	"github.com/gorgonia/kifu/encoding/png"
	"github.com/gorgonia/kifu/game"
	wq "github.com/gorgonia/kifu/game/wq"
	"github.com/gorgonia/kifu/render"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEncoding is returned when the encoder fails to produce an image.
var ErrEncoding = errors.New("unable to encode image")

// Pipeline renders game records. It holds no board between calls and is safe for concurrent use.
type Pipeline struct {
	conf Config
	enc  Encoder
	log  *zap.Logger

	sync.Mutex
	stats Statistics
}

// New creates a pipeline.
func New(conf Config) *Pipeline {
	p := &Pipeline{
		conf: conf,
		enc:  conf.Encoder,
		log:  conf.Logger,
	}
	if p.enc == nil {
		p.enc = png.Encoder{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Options returns the render options of the pipeline.
func (p *Pipeline) Options() render.Options { return p.conf.Render }

// ContentType returns the media type of the images Encode produces.
func (p *Pipeline) ContentType() string { return p.enc.ContentType() }

// Replay replays rec up to ply. A negative ply replays every move.
func (p *Pipeline) Replay(rec game.Record, ply int, opts ...wq.ReplayOption) (*wq.Game, error) {
	opts = append([]wq.ReplayOption{wq.UpTo(ply), wq.WithLogger(p.log)}, opts...)
	return wq.Replay(rec, opts...)
}

// Image replays rec up to ply and renders the position into a new buffer.
func (p *Pipeline) Image(rec game.Record, ply int) (*image.RGBA, error) {
	g, err := p.Replay(rec, ply)
	if err != nil {
		return nil, err
	}
	return render.Render(g.Board(), p.conf.Render)
}

// Encode replays rec up to ply, renders the position and encodes it.
func (p *Pipeline) Encode(ctx context.Context, rec game.Record, ply int) ([]byte, error) {
	r := p.do(ctx, Job{Record: rec, Ply: ply})
	p.record(r)
	return r.Data, r.Err
}

// DataURI is Encode wrapped as a data URI, e.g. data:image/png;base64,....
func (p *Pipeline) DataURI(ctx context.Context, rec game.Record, ply int) (string, error) {
	b, err := p.Encode(ctx, rec, ply)
	if err != nil {
		return "", err
	}
	return png.DataURI(p.enc.ContentType(), b), nil
}

// Batch runs independent jobs on at most workers goroutines. A non-positive workers uses GOMAXPROCS.
//
// Failed jobs report their error in their Result. The returned error is only set when ctx is done
// before every job has run.
func (p *Pipeline) Batch(ctx context.Context, jobs []Job, workers int) ([]Result, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		g.Go(func() error {
			results[i] = p.do(gctx, jobs[i])
			if results[i].Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()
	p.record(results...)
	return results, err
}

// Animate writes an animated GIF of rec up to ply into w, one frame for the setup and one per ply.
// A nil enc uses the pipeline's palette with unlimited frame size.
func (p *Pipeline) Animate(ctx context.Context, w io.Writer, rec game.Record, ply int, enc *gif.Encoder) error {
	if enc == nil {
		enc = gif.NewEncoder(p.conf.Render.Palette, 0, 0)
	}
	err := p.Frames(ctx, rec, ply, func(ply int, img *image.RGBA) error {
		return enc.Add(img, ply)
	})
	if err != nil {
		return err
	}
	if err := enc.Flush(w); err != nil {
		return errors.Wrap(ErrEncoding, err.Error())
	}
	return nil
}

// Stream pushes a frame per ply of rec to enc, waiting interval between frames.
func (p *Pipeline) Stream(ctx context.Context, enc *mjpeg.Encoder, rec game.Record, ply int, interval time.Duration) error {
	return p.Frames(ctx, rec, ply, func(ply int, img *image.RGBA) error {
		if err := enc.Update(img); err != nil {
			return errors.Wrap(ErrEncoding, err.Error())
		}
		if interval <= 0 {
			return nil
		}
		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}

// Frames calls f with the rendered position after the setup (ply 0) and after every ply up to ply.
// The image is reused between calls and must not be retained.
func (p *Pipeline) Frames(ctx context.Context, rec game.Record, ply int, f func(ply int, img *image.RGBA) error) error {
	var buf *image.RGBA
	defer func() {
		if buf != nil {
			returnRGBA(buf)
		}
	}()

	var ferr error
	onPly := func(ply int, b *wq.Board) {
		if ferr != nil {
			return
		}
		if ferr = ctx.Err(); ferr != nil {
			return
		}
		if buf == nil {
			if ferr = p.conf.Render.Validate(b.Size()); ferr != nil {
				return
			}
			buf = borrowRGBA(p.conf.Render.Dimensions(b.Size()))
		}
		if ferr = render.RenderInto(buf, b, p.conf.Render); ferr != nil {
			return
		}
		ferr = f(ply, buf)
	}
	if _, err := p.Replay(rec, ply, wq.WithContext(ctx), wq.OnPly(onPly)); err != nil {
		return err
	}
	return ferr
}

// Stats returns a snapshot of the statistics of every render so far.
func (p *Pipeline) Stats() Statistics {
	p.Lock()
	defer p.Unlock()
	s := p.stats
	s.rows = append([][]string(nil), p.stats.rows...)
	return s
}

// DumpStatistics writes the statistics as CSV.
func (p *Pipeline) DumpStatistics(w io.Writer) error {
	s := p.Stats()
	return s.Dump(w)
}

func (p *Pipeline) record(results ...Result) {
	p.Lock()
	p.stats.update(results)
	p.Unlock()
}

// do runs a single job through the cache, the replay, the rasterizer and the encoder.
func (p *Pipeline) do(ctx context.Context, j Job) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	var key string
	if p.conf.Cache != nil {
		key = p.key(j)
		b, ok, err := p.conf.Cache.Get(ctx, key)
		switch {
		case err != nil:
			p.log.Warn("cache get", zap.String("key", key), zap.Error(err))
		case ok:
			p.log.Debug("cache hit", zap.String("key", key))
			return Result{Data: b, Plies: target(j), Cached: true}
		}
	}

	g, err := p.Replay(j.Record, j.Ply, wq.WithContext(ctx))
	if err != nil {
		return Result{Err: err}
	}
	res := Result{Plies: g.MoveNumber(), Skipped: len(g.Skipped())}

	size := g.Board().Size()
	if res.Err = p.conf.Render.Validate(size); res.Err != nil {
		return res
	}
	buf := borrowRGBA(p.conf.Render.Dimensions(size))
	defer returnRGBA(buf)
	if res.Err = render.RenderInto(buf, g.Board(), p.conf.Render); res.Err != nil {
		return res
	}

	var out bytes.Buffer
	if err := p.enc.Encode(&out, buf); err != nil {
		res.Err = errors.Wrap(ErrEncoding, err.Error())
		return res
	}
	res.Data = out.Bytes()

	if key != "" {
		if err := p.conf.Cache.Set(ctx, key, res.Data); err != nil {
			p.log.Warn("cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return res
}

// key identifies the encoded output of a job. Plies past the end of the record collapse onto the final position.
func (p *Pipeline) key(j Job) string {
	b, _ := json.Marshal(struct {
		Record      game.Record    `json:"record"`
		Ply         int            `json:"ply"`
		Render      render.Options `json:"render"`
		ContentType string         `json:"contentType"`
	}{j.Record, target(j), p.conf.Render, p.enc.ContentType()})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// target is the number of plies a job replays.
func target(j Job) int {
	if j.Ply < 0 || j.Ply > len(j.Record.Moves) {
		return len(j.Record.Moves)
	}
	return j.Ply
}
