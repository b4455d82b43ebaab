package 围碁

import (
	"context"

	"github.com/gorgonia/kifu/game"
	"go.uber.org/zap"
)

// Skipped is a record that could not be applied during a replay.
// Ply is the 1-indexed move number, or 0 for a setup stone.
type Skipped struct {
	Ply  int
	Move game.Move
	Err  error
}

// Game is the result of replaying a record: the board it produced along with what happened on the way.
type Game struct {
	board    *Board
	history  []game.Move
	skipped  []Skipped
	captures [2]int // number of stones captured by black and white

	moveCount int // move number, 1 indexed
}

type replayConfig struct {
	ctx   context.Context
	ply   int
	log   *zap.Logger
	onPly func(ply int, b *Board)
}

// ReplayOption configures Replay.
type ReplayOption func(*replayConfig)

// UpTo stops the replay after n moves. A negative n replays every move, and an n past the end is clamped.
func UpTo(n int) ReplayOption { return func(c *replayConfig) { c.ply = n } }

// WithLogger sets the logger that skipped records are reported to.
func WithLogger(l *zap.Logger) ReplayOption {
	return func(c *replayConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// OnPly registers a function called with the board after the setup stones (ply 0) and after every ply.
// The board must not be retained or modified.
func OnPly(f func(ply int, b *Board)) ReplayOption { return func(c *replayConfig) { c.onPly = f } }

// WithContext aborts the replay with ctx.Err() once ctx is done. It is checked before every ply.
func WithContext(ctx context.Context) ReplayOption {
	return func(c *replayConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// Replay builds a board of the record's size, puts down the setup stones and plays the moves in order.
//
// Moves that cannot be made are skipped and the replay carries on. Only an invalid board size
// or a done context is fatal.
func Replay(rec game.Record, opts ...ReplayOption) (*Game, error) {
	conf := replayConfig{ctx: context.Background(), ply: -1, log: zap.NewNop()}
	for _, o := range opts {
		o(&conf)
	}

	b, err := NewBoard(rec.Size)
	if err != nil {
		return nil, err
	}

	limit := len(rec.Moves)
	if conf.ply >= 0 && conf.ply < limit {
		limit = conf.ply
	}

	g := &Game{
		board:   b,
		history: make([]game.Move, 0, limit),
	}
	g.setup(rec.SetupBlack, game.Black, conf.log)
	g.setup(rec.SetupWhite, game.White, conf.log)
	if conf.onPly != nil {
		conf.onPly(0, b)
	}

	for i := 0; i < limit; i++ {
		if err := conf.ctx.Err(); err != nil {
			conf.log.Debug("replay cancelled", zap.Int("ply", g.moveCount), zap.Error(err))
			return nil, err
		}
		g.apply(rec.Moves[i], conf.log)
		if conf.onPly != nil {
			conf.onPly(g.moveCount, b)
		}
	}
	conf.log.Debug("replayed",
		zap.Int("size", rec.Size),
		zap.Int("plies", g.moveCount),
		zap.Int("skipped", len(g.skipped)),
		zap.Uint64("hash", b.Hash()))
	return g, nil
}

func (g *Game) setup(stones []game.Coord, colour game.Colour, log *zap.Logger) {
	for _, c := range stones {
		if err := g.board.Setup(c, colour); err != nil {
			g.skip(0, game.Move{Colour: colour, Coord: c}, err, log)
		}
	}
}

func (g *Game) apply(m game.Move, log *zap.Logger) {
	g.moveCount++
	g.history = append(g.history, m)
	if m.IsPass() {
		return
	}
	outcome, err := g.board.Place(m.Coord, m.Colour)
	if err != nil {
		g.skip(g.moveCount, m, err, log)
		return
	}
	g.captures[m.Colour-1] += len(outcome.Captured)
}

func (g *Game) skip(ply int, m game.Move, err error, log *zap.Logger) {
	g.skipped = append(g.skipped, Skipped{Ply: ply, Move: m, Err: err})
	log.Warn("skipping record",
		zap.Int("ply", ply),
		zap.String("colour", m.Colour.String()),
		zap.Int("x", m.X),
		zap.Int("y", m.Y),
		zap.Error(err))
}

// Board returns the board of the replayed position. Ownership passes to the caller.
func (g *Game) Board() *Board { return g.board }

// BoardSize returns the dimensions of the board.
func (g *Game) BoardSize() (int, int) { return g.board.size, g.board.size }

// MoveNumber returns the number of plies consumed, skipped ones included.
func (g *Game) MoveNumber() int { return g.moveCount }

// History returns the moves consumed so far in order.
func (g *Game) History() []game.Move { return g.history }

// Skipped returns the records that could not be applied.
func (g *Game) Skipped() []Skipped { return g.skipped }

// Captures returns the number of stones captured by the given colour.
func (g *Game) Captures(c game.Colour) int {
	if !c.IsValid() {
		return 0
	}
	return g.captures[c-1]
}

func (g *Game) LastMove() game.Move {
	if len(g.history) > 0 {
		return g.history[len(g.history)-1]
	}
	return game.Move{Colour: game.None, Coord: game.Pass}
}
