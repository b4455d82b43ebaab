package game

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrBadCoord is returned when a point cannot be decoded.
var ErrBadCoord = errors.New("malformed point")

// axis decodes a single SGF axis letter: 'a'..'z' map to 0..25 and 'A'..'Z' to 26..51.
func axis(b byte) int {
	switch {
	case b >= 'a' && b <= 'z':
		return int(b - 'a')
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 26
	}
	return -1
}

func letter(i int) byte {
	if i < 26 {
		return 'a' + byte(i)
	}
	return 'A' + byte(i-26)
}

// DecodePoint decodes a two letter SGF point such as "pd" into a Coord.
// The first letter is the column and the second the row.
//
// An empty value, and "tt" on boards up to 19x19, denote a pass.
func DecodePoint(s string, size int) (Coord, error) {
	if s == "" || (s == "tt" && size <= 19) {
		return Pass, nil
	}
	if len(s) != 2 {
		return Coord{}, errors.Wrapf(ErrBadCoord, "%q", s)
	}
	x, y := axis(s[0]), axis(s[1])
	if x < 0 || y < 0 {
		return Coord{}, errors.Wrapf(ErrBadCoord, "%q", s)
	}
	return Coord{x, y}, nil
}

// EncodePoint is the inverse of DecodePoint. Passes encode as the empty string.
func EncodePoint(c Coord) string {
	if c.IsPass() || c.X < 0 || c.Y < 0 || c.X > 51 || c.Y > 51 {
		return ""
	}
	return string([]byte{letter(c.X), letter(c.Y)})
}

// MarshalText encodes a colour as the SGF property name of its moves.
func (cl Colour) MarshalText() ([]byte, error) {
	switch cl {
	case Black:
		return []byte("B"), nil
	case White:
		return []byte("W"), nil
	}
	return []byte{}, nil
}

func (cl *Colour) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "b", "black":
		*cl = Black
	case "w", "white":
		*cl = White
	case "":
		*cl = None
	default:
		return errors.Errorf("Unknown colour %q", text)
	}
	return nil
}
