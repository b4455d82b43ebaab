// Package sgf reads game records out of an already parsed SGF property tree.
//
// Only the main line is followed: at every branch the first child is taken and the
// other variations are never visited.
package sgf

import (
	"strconv"
	"strings"

	"github.com/gorgonia/kifu/game"
	"github.com/pkg/errors"
)

const (
	defaultSize = 19

	// MaxSize is the largest board a point can address. Each axis is one letter, a-z then A-Z.
	MaxSize = 52
)

var (
	ErrNoGame          = errors.New("no game found")
	ErrUnsupportedSize = errors.New("unsupported board size")
)

// Node is one node of a game tree. Properties may repeat, e.g. AB[aa][bb].
type Node struct {
	Properties map[string][]string `json:"properties"`
	Children   []*Node             `json:"children,omitempty"`
}

// First returns the first value of a property.
func (n *Node) First(prop string) (string, bool) {
	if n == nil {
		return "", false
	}
	vs := n.Properties[prop]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// MainLine returns the nodes after root, following the first child at every branch.
func MainLine(root *Node) []*Node {
	var line []*Node
	for n := root; n != nil && len(n.Children) > 0; {
		n = n.Children[0]
		line = append(line, n)
	}
	return line
}

// Size reads the SZ property of root. A missing or unreadable value means 19.
func Size(root *Node) (int, error) {
	v, ok := root.First("SZ")
	if !ok {
		return defaultSize, nil
	}
	v = strings.TrimSpace(v)
	cols, rows := v, v
	if i := strings.IndexByte(v, ':'); i >= 0 {
		cols, rows = v[:i], v[i+1:]
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(cols))
	h, err2 := strconv.Atoi(strings.TrimSpace(rows))
	switch {
	case err1 != nil || err2 != nil:
		return defaultSize, nil
	case w != h:
		return 0, errors.Wrapf(ErrUnsupportedSize, "%dx%d", w, h)
	case w > MaxSize:
		return 0, errors.Wrapf(ErrUnsupportedSize, "%d", w)
	}
	return w, nil
}

// Extract reads the board size, the setup stones and the main line moves from a game tree.
//
// Points that cannot be decoded are kept as coordinates off the board so that the move still
// counts as a ply and is skipped during the replay. Nodes whose move value is empty are ignored.
func Extract(root *Node) (game.Record, error) {
	if root == nil {
		return game.Record{}, ErrNoGame
	}
	size, err := Size(root)
	if err != nil {
		return game.Record{}, err
	}
	rec := game.Record{
		Size:       size,
		SetupBlack: setup(root.Properties["AB"], size),
		SetupWhite: setup(root.Properties["AW"], size),
	}
	for _, n := range MainLine(root) {
		m, ok := move(n, size)
		if !ok {
			continue
		}
		rec.Moves = append(rec.Moves, m)
	}
	return rec, nil
}

func move(n *Node, size int) (game.Move, bool) {
	colour := game.Black
	v, ok := n.First("B")
	if !ok {
		colour = game.White
		if v, ok = n.First("W"); !ok {
			return game.Move{}, false
		}
	}
	if v == "" {
		return game.Move{}, false
	}
	return game.Move{Colour: colour, Coord: point(v, size)}, true
}

func point(v string, size int) game.Coord {
	c, err := game.DecodePoint(v, size)
	if err != nil {
		return offBoard(size)
	}
	return c
}

// offBoard is a coordinate that is never on a board of the given size and is not a pass.
func offBoard(size int) game.Coord { return game.Coord{X: size, Y: size} }

// setup decodes a list of setup points. Compressed rectangles such as "aa:cc" are expanded.
func setup(vs []string, size int) []game.Coord {
	var retVal []game.Coord
	for _, v := range vs {
		if i := strings.IndexByte(v, ':'); i >= 0 {
			from, err1 := game.DecodePoint(v[:i], size)
			to, err2 := game.DecodePoint(v[i+1:], size)
			if err1 != nil || err2 != nil || from.IsPass() || to.IsPass() {
				retVal = append(retVal, offBoard(size))
				continue
			}
			for y := minInt(from.Y, to.Y); y <= maxInt(from.Y, to.Y); y++ {
				for x := minInt(from.X, to.X); x <= maxInt(from.X, to.X); x++ {
					retVal = append(retVal, game.Coord{X: x, Y: y})
				}
			}
			continue
		}
		c := point(v, size)
		if c.IsPass() {
			continue
		}
		retVal = append(retVal, c)
	}
	return retVal
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
