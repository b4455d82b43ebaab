package 围碁

import (
	"fmt"

	"github.com/gorgonia/kifu/game"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidSize is returned when a board is declared with a non positive size.
	ErrInvalidSize = errors.New("invalid board size")
	// ErrOutOfBounds is returned when a coordinate lies outside the board.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrOccupied is returned when a stone is played on an occupied intersection.
	ErrOccupied = errors.New("board location not empty")
	// ErrSuicide is returned when a stone would leave its own group without liberties while capturing nothing.
	ErrSuicide = errors.New("suicide is not a valid option")
	// ErrInvalidColour is returned when a move is made by neither Black nor White.
	ErrInvalidColour = errors.New("impossible colour")
)

// moveError is the error of a single move that could not be made. Its cause is one of the sentinels above.
type moveError struct {
	move   game.Move
	reason error
}

func (err moveError) Error() string {
	return fmt.Sprintf("Unable to make %v: %v", err.move, err.reason)
}

func (err moveError) Cause() error  { return err.reason }
func (err moveError) Unwrap() error { return err.reason }

func invalidSize(size int) error { return errors.WithMessagef(ErrInvalidSize, "size %d", size) }

// MoveOf returns the move that caused err, if err was produced by a board operation.
func MoveOf(err error) (game.Move, bool) {
	var me moveError
	if errors.As(err, &me) {
		return me.move, true
	}
	return game.Move{}, false
}
