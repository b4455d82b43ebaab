package game

import (
	"fmt"
)

// Colour is the content of a single intersection. None is an empty intersection.
type Colour int32

const (
	None Colour = iota
	Black
	White
)

// Opponent returns the colour of the other player. None has no opponent.
func (cl Colour) Opponent() Colour {
	switch cl {
	case Black:
		return White
	case White:
		return Black
	}
	return None
}

// IsValid checks that a colour is one that can be played.
func (cl Colour) IsValid() bool { return cl == Black || cl == White }

func (cl Colour) String() string {
	switch cl {
	case Black:
		return "Black"
	case White:
		return "White"
	}
	return "None"
}

func (cl Colour) Format(s fmt.State, c rune) {
	switch c {
	case 'v': // used in debug
		fmt.Fprint(s, cl.String())
	case 's': // used in board diagrams
		switch cl {
		case None:
			fmt.Fprint(s, "·")
		case Black:
			fmt.Fprint(s, "X")
		case White:
			fmt.Fprint(s, "O")
		}
	case 'd':
		fmt.Fprintf(s, "%d", int32(cl))
	}
}

// Coord represents a (column, row) coordinate.
//
// The Coord uses standard computer cartesian coordinates
//		- (0, 0) represents the top left
//		- (18, 18) represents the bottom right of a 19x19 board
//		- (-1, -1) represents a "pass" move
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pass is the coordinate of a pass move.
var Pass = Coord{-1, -1}

func (c Coord) Add(other Coord) Coord { return Coord{c.X + other.X, c.Y + other.Y} }

func (c Coord) Eq(other Coord) bool { return c.X == other.X && c.Y == other.Y }

// IsPass returns true when the coordinate represents a "pass" move
func (c Coord) IsPass() bool { return c == Pass }

// In reports whether c lies on a board of the given size.
func (c Coord) In(size int) bool { return c.X >= 0 && c.X < size && c.Y >= 0 && c.Y < size }

func (c Coord) String() string {
	if c.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Move is a tuple indicating the colour and the coordinate of a placement.
type Move struct {
	Colour Colour `json:"colour"`
	Coord
}

// Eq returns true if both are equal
func (m Move) Eq(other Move) bool { return m.Colour == other.Colour && m.Coord.Eq(other.Coord) }

func (m Move) Format(s fmt.State, c rune) { fmt.Fprintf(s, "%v@%v", m.Colour, m.Coord) }

// Record is a game as handed over by a move source: the board size, the setup
// (handicap) stones of both colours, and the main line in chronological order.
type Record struct {
	Size       int     `json:"size"`
	SetupBlack []Coord `json:"setupBlack,omitempty"`
	SetupWhite []Coord `json:"setupWhite,omitempty"`
	Moves      []Move  `json:"moves,omitempty"`
}

// Plies returns the number of moves in the record.
func (r Record) Plies() int { return len(r.Moves) }
