package kifu

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	stdpng "image/png"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorgonia/kifu/cache"
	"github.com/gorgonia/kifu/game"
	wq "github.com/gorgonia/kifu/game/wq"
	"github.com/gorgonia/kifu/render"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func mv(c game.Colour, x, y int) game.Move { return game.Move{Colour: c, Coord: game.Coord{X: x, Y: y}} }

var shortGame = game.Record{
	Size: 9,
	Moves: []game.Move{
		mv(game.Black, 0, 0), mv(game.White, 0, 1), mv(game.Black, 4, 4), mv(game.White, 1, 0),
	},
}

func TestPipeline_EmptyBoard(t *testing.T) {
	p := New(Config{Render: render.DefaultOptions(), Logger: zaptest.NewLogger(t)})
	b, err := p.Encode(context.Background(), game.Record{Size: 19}, -1)
	require.NoError(t, err)

	img, err := stdpng.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 840, 840), img.Bounds())
	assert.Equal(t, "image/png", p.ContentType())
}

func TestPipeline_Image(t *testing.T) {
	p := New(Config{Render: render.DefaultOptions()})
	rec := game.Record{Size: 19, SetupBlack: []game.Coord{{X: 0, Y: 0}, {X: 18, Y: 18}}}
	img, err := p.Image(rec, -1)
	require.NoError(t, err)
	assert.Equal(t, render.DefaultPalette.Black, img.RGBAAt(40+10, 40+10))
	assert.Equal(t, render.DefaultPalette.Black, img.RGBAAt(760-10, 760-10))
	assert.Equal(t, render.DefaultPalette.Background, img.RGBAAt(400+10, 400+10))

	// the capture in the corner has happened by the end of the game but not before it
	full, err := p.Image(shortGame, -1)
	require.NoError(t, err)
	partial, err := p.Image(shortGame, 3)
	require.NoError(t, err)
	assert.Equal(t, render.DefaultPalette.Background, full.RGBAAt(40+5, 40+5))
	assert.Equal(t, render.DefaultPalette.Black, partial.RGBAAt(40+5, 40+5))
}

func TestPipeline_Deterministic(t *testing.T) {
	p := New(Config{Render: render.DefaultOptions()})
	ctx := context.Background()
	a, err := p.Encode(ctx, shortGame, -1)
	require.NoError(t, err)
	b, err := p.Encode(ctx, shortGame, 100)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPipeline_Errors(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Render: render.DefaultOptions()})

	_, err := p.Encode(ctx, game.Record{Size: 0}, -1)
	assert.Equal(t, wq.ErrInvalidSize, errors.Cause(err))

	bad := New(Config{Render: render.Options{CellSize: 0}})
	_, err = bad.Encode(ctx, shortGame, -1)
	assert.Equal(t, render.ErrInvalidOptions, errors.Cause(err))

	failing := New(Config{Render: render.DefaultOptions(), Encoder: brokenEncoder{}})
	b, err := failing.Encode(ctx, shortGame, -1)
	assert.Nil(t, b)
	assert.Equal(t, ErrEncoding, errors.Cause(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Encode(cancelled, shortGame, -1)
	assert.Equal(t, context.Canceled, err)
}

type brokenEncoder struct{}

func (brokenEncoder) Encode(io.Writer, image.Image) error { return errors.New("disk full") }
func (brokenEncoder) ContentType() string                 { return "image/broken" }

// countingCache counts the calls that reach the underlying cache.
type countingCache struct {
	cache.Cache
	gets, hits int32
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	atomic.AddInt32(&c.gets, 1)
	b, ok, err := c.Cache.Get(ctx, key)
	if ok {
		atomic.AddInt32(&c.hits, 1)
	}
	return b, ok, err
}

func TestPipeline_Cache(t *testing.T) {
	c := &countingCache{Cache: cache.NewMemory(8)}
	p := New(Config{Render: render.DefaultOptions(), Cache: c})
	ctx := context.Background()

	a, err := p.Encode(ctx, shortGame, -1)
	require.NoError(t, err)
	b, err := p.Encode(ctx, shortGame, len(shortGame.Moves)+3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, int32(2), c.gets)
	assert.Equal(t, int32(1), c.hits)

	_, err = p.Encode(ctx, shortGame, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), c.hits)

	s := p.Stats()
	assert.Equal(t, 3, s.Renders)
	assert.Equal(t, 1, s.Hits)

	// the hit reports the clamped ply and no skipped count
	var csv bytes.Buffer
	require.NoError(t, p.DumpStatistics(&csv))
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "0,4,0,"+strconv.Itoa(len(a))+",false,", lines[1])
	assert.Equal(t, "1,4,,"+strconv.Itoa(len(b))+",true,", lines[2])
}

func TestPipeline_Batch(t *testing.T) {
	p := New(Config{Render: render.Options{CellSize: 10, Padding: 5, Palette: render.DefaultPalette}})
	jobs := []Job{
		{Record: shortGame, Ply: -1},
		{Record: game.Record{Size: -3}, Ply: -1},
		{Record: game.Record{Size: 5, Moves: []game.Move{mv(game.Black, 9, 9)}}, Ply: -1},
	}
	for i := 0; i < 10; i++ {
		jobs = append(jobs, Job{Record: shortGame, Ply: i % 5})
	}

	results, err := p.Batch(context.Background(), jobs, 3)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 4, results[0].Plies)
	assert.Equal(t, wq.ErrInvalidSize, errors.Cause(results[1].Err))
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, results[2].Skipped)
	for i, r := range results[3:] {
		require.NoError(t, r.Err)
		img, err := stdpng.Decode(bytes.NewReader(r.Data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
		assert.Equal(t, i%5, r.Plies)
	}

	s := p.Stats()
	assert.Equal(t, len(jobs), s.Renders)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)

	var csv bytes.Buffer
	require.NoError(t, p.DumpStatistics(&csv))
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	assert.Len(t, lines, len(jobs)+1)
	assert.Equal(t, "job,plies,skipped,bytes,cached,error", lines[0])
}

func TestPipeline_BatchCancelled(t *testing.T) {
	p := New(Config{Render: render.DefaultOptions()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := p.Batch(ctx, []Job{{Record: shortGame, Ply: -1}}, 0)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, context.Canceled, results[0].Err)
}

func TestPipeline_DataURI(t *testing.T) {
	p := New(Config{Render: render.DefaultOptions()})
	uri, err := p.DataURI(context.Background(), shortGame, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestPipeline_Animate(t *testing.T) {
	p := New(Config{Render: render.Options{CellSize: 12, Padding: 6, Palette: render.DefaultPalette}})
	var buf bytes.Buffer
	require.NoError(t, p.Animate(context.Background(), &buf, shortGame, -1, nil))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, len(shortGame.Moves)+1)
	assert.Equal(t, image.Rect(0, 0, 120, 120), g.Image[0].Bounds())

	buf.Reset()
	require.NoError(t, p.Animate(context.Background(), &buf, shortGame, 2, nil))
	g, err = gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)

	err = p.Animate(context.Background(), &buf, game.Record{}, -1, nil)
	assert.Equal(t, wq.ErrInvalidSize, errors.Cause(err))
}

func TestPipeline_Frames(t *testing.T) {
	p := New(Config{Render: render.Options{CellSize: 4, Padding: 2}})
	var plies []int
	err := p.Frames(context.Background(), shortGame, -1, func(ply int, img *image.RGBA) error {
		plies = append(plies, ply)
		assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, plies)

	stop := errors.New("stop")
	calls := 0
	err = p.Frames(context.Background(), shortGame, -1, func(int, *image.RGBA) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}

func TestPool(t *testing.T) {
	a := borrowRGBA(7, 3)
	assert.Equal(t, image.Rect(0, 0, 7, 3), a.Bounds())
	returnRGBA(a)
	b := borrowRGBA(3, 7)
	assert.Equal(t, image.Rect(0, 0, 3, 7), b.Bounds())
	returnRGBA(b)
}
