// package 围碁 implements Go (the board game) related code
//
// 围碁 is a bastardized word.
// The first character is read "wei" in Chinese. The second is read "qi" in Chinese.
// However, the charcter 碁 is no longer actively used in Chinese.
// It is however, actively used in Japanese. Specifically, it's read "go" in Japanese.
//
// The main reason why this package is named with unicode characters instead of `package go`
// is because the standard library of the Go language have the prefix "go"
package 围碁

import (
	"fmt"

	"github.com/gorgonia/kifu/game"
)

const (
	None  = game.None
	Black = game.Black
	White = game.White
)

// Board represents a square Go board.
//
// The board owns a flat row-major backing slice. it is a row iterator over the same
// backing so that a cell can be read as b.it[y][x]. A Board is not safe for concurrent use;
// each replay owns exactly one.
type Board struct {
	size    int
	data    []game.Colour   // backing data
	it      [][]game.Colour // iterator for quick access
	zobrist                 // hashing of the board
}

// Outcome describes the effect of a successful placement.
type Outcome struct {
	Captured []game.Coord
}

// NewBoard creates an empty board of size x size.
func NewBoard(size int) (*Board, error) {
	if size <= 0 {
		return nil, invalidSize(size)
	}
	data, it := makeBoard(size)
	return &Board{
		size:    size,
		data:    data,
		it:      it,
		zobrist: makeZobrist(size),
	}, nil
}

// makeBoard makes a board of NxN. Additionally, it also returns a 2D iterator
func makeBoard(size int) (board []game.Colour, iterator [][]game.Colour) {
	board = make([]game.Colour, size*size)
	iterator = make([][]game.Colour, size)
	for i := range iterator {
		start := i * size
		iterator[i] = board[start : start+size : start+size]
	}
	return
}

// Size returns the length of a side of the board.
func (b *Board) Size() int { return b.size }

// Clone clones the board
func (b *Board) Clone() *Board {
	data, it := makeBoard(b.size)
	copy(data, b.data)
	return &Board{
		size:    b.size,
		data:    data,
		it:      it,
		zobrist: b.zobrist.clone(),
	}
}

// Eq checks that both are equal
func (b *Board) Eq(other *Board) bool {
	if b == other {
		return true
	}
	// easy to check stuff
	if b.size != other.size ||
		b.hash != other.hash ||
		len(b.data) != len(other.data) {
		return false
	}

	for i, c := range b.data {
		if c != other.data[i] {
			return false
		}
	}
	return true
}

// Format implements fmt.Formatter
func (b *Board) Format(s fmt.State, c rune) {
	switch c {
	case 's', 'v':
		for _, row := range b.it {
			fmt.Fprint(s, "⎢ ")
			for _, col := range row {
				fmt.Fprintf(s, "%s ", col)
			}
			fmt.Fprint(s, "⎥\n")
		}
	}
}

// Reset resets the board state
func (b *Board) Reset() {
	for i := range b.data {
		b.data[i] = game.None
	}
	b.zobrist.hash = 0
}

// Hash returns the calculated hash of the board
func (b *Board) Hash() uint64 { return b.hash }

// Cells returns a copy of the board contents in row-major order.
func (b *Board) Cells() []game.Colour {
	retVal := make([]game.Colour, len(b.data))
	copy(retVal, b.data)
	return retVal
}

// Stones counts the stones of each colour on the board.
func (b *Board) Stones() (black, white int) {
	for _, c := range b.data {
		switch c {
		case game.Black:
			black++
		case game.White:
			white++
		}
	}
	return
}

// StoneAt returns the content of an intersection. Coordinates off the board are empty.
func (b *Board) StoneAt(c game.Coord) game.Colour {
	if !c.In(b.size) {
		return game.None
	}
	return b.it[c.Y][c.X]
}

// Setup puts a stone on the board unconditionally. Captures and suicide are not checked
// and an existing stone is replaced. This is how handicap and other setup stones are recorded.
func (b *Board) Setup(c game.Coord, colour game.Colour) error {
	m := game.Move{Colour: colour, Coord: c}
	if !colour.IsValid() {
		return moveError{m, ErrInvalidColour}
	}
	if !c.In(b.size) {
		return moveError{m, ErrOutOfBounds}
	}
	if prev := b.it[c.Y][c.X]; prev != game.None {
		b.zobrist.update(b.ltoi(c), prev)
	}
	b.it[c.Y][c.X] = colour
	b.zobrist.update(b.ltoi(c), colour)
	return nil
}

// Place plays a stone, removing every opposing group left without liberties.
//
// A placement that leaves its own group without liberties while capturing nothing is suicide.
// It fails with ErrSuicide and the board is left exactly as it was.
func (b *Board) Place(c game.Coord, colour game.Colour) (Outcome, error) {
	m := game.Move{Colour: colour, Coord: c}
	if !colour.IsValid() {
		return Outcome{}, moveError{m, ErrInvalidColour}
	}
	if !c.In(b.size) {
		return Outcome{}, moveError{m, ErrOutOfBounds}
	}

	// if the board location is not empty, then clearly we can't apply
	if b.it[c.Y][c.X] != game.None {
		return Outcome{}, moveError{m, ErrOccupied}
	}

	b.it[c.Y][c.X] = colour
	captures := b.captures(c, colour)
	if len(captures) == 0 && b.Liberties(c) == 0 {
		b.it[c.Y][c.X] = game.None
		return Outcome{}, moveError{m, ErrSuicide}
	}

	// the move is valid. update the hash then remove prisoners
	b.zobrist.update(b.ltoi(c), colour)
	opp := colour.Opponent()
	for _, prisoner := range captures {
		b.it[prisoner.Y][prisoner.X] = game.None
		b.zobrist.update(b.ltoi(prisoner), opp) // Xoring the original colour
	}
	return Outcome{Captured: captures}, nil
}

// captures finds the stones of every opposing group adjacent to c that has no liberties left.
func (b *Board) captures(c game.Coord, colour game.Colour) (retVal []game.Coord) {
	opp := colour.Opponent()
	var seen []bool
	for _, a := range b.adjacentsCoord(c) {
		if !a.In(b.size) || b.it[a.Y][a.X] != opp {
			continue
		}
		if seen == nil {
			seen = make([]bool, len(b.data))
		}
		if seen[b.ltoi(a)] {
			continue
		}
		group, libs := b.group(a)
		for _, g := range group {
			seen[b.ltoi(g)] = true
		}
		if libs == 0 {
			retVal = append(retVal, group...)
		}
	}
	return retVal
}

// Group returns the stones connected to the stone at c. It is empty if there is no stone at c.
func (b *Board) Group(c game.Coord) []game.Coord {
	group, _ := b.group(c)
	return group
}

// Liberties returns the number of distinct empty intersections adjacent to the group at c.
func (b *Board) Liberties(c game.Coord) int {
	_, libs := b.group(c)
	return libs
}

// group flood fills the group at c, counting its liberties along the way.
func (b *Board) group(c game.Coord) (group []game.Coord, liberties int) {
	if !c.In(b.size) {
		return nil, 0
	}
	colour := b.it[c.Y][c.X]
	if colour == game.None {
		return nil, 0
	}

	seen := make([]bool, len(b.data))
	libs := make([]bool, len(b.data))
	seen[b.ltoi(c)] = true
	stack := []game.Coord{c}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group = append(group, f)

		for _, a := range b.adjacentsCoord(f) {
			if !a.In(b.size) {
				continue
			}
			i := b.ltoi(a)
			switch b.it[a.Y][a.X] {
			case game.None:
				if !libs[i] {
					libs[i] = true
					liberties++
				}
			case colour:
				if !seen[i] {
					seen[i] = true
					stack = append(stack, a)
				}
			}
		}
	}
	return group, liberties
}

// ltoi takes a coordinate and return its index in the backing data
func (b *Board) ltoi(c game.Coord) int { return c.Y*b.size + c.X }

// adjacentsCoord returns the adjacent positions given a coord
func (b *Board) adjacentsCoord(c game.Coord) (retVal [4]game.Coord) {
	for i := range retVal {
		retVal[i] = c.Add(adjacents[i])
	}
	return retVal
}

var adjacents = [4]game.Coord{
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
}
