package sgf

import "github.com/gorgonia/kifu/game"

// previewLen is the number of moves listed in Summary.Moves.
const previewLen = 20

// GameInfo is the metadata of a game. Missing properties read as "Unknown".
type GameInfo struct {
	BlackPlayer string `json:"blackPlayer"`
	WhitePlayer string `json:"whitePlayer"`
	Result      string `json:"result"`
	Komi        string `json:"komi"`
	Size        string `json:"size"`
	Handicap    string `json:"handicap"`
	Comment     string `json:"comment"`
}

// MoveInfo is a main line move as written in the record.
type MoveInfo struct {
	Colour  game.Colour `json:"color"`
	Move    string      `json:"move"`
	Comment string      `json:"comment,omitempty"`
}

// Summary describes a game: its metadata, the first moves and the whole main line.
type Summary struct {
	GameInfo   GameInfo   `json:"gameInfo"`
	MovesCount int        `json:"movesCount"`
	Moves      []MoveInfo `json:"moves"`
	AllMoves   []MoveInfo `json:"allMoves"`
}

// Info summarises the game rooted at root.
func Info(root *Node) (Summary, error) {
	if root == nil {
		return Summary{}, ErrNoGame
	}
	or := func(prop, def string) string {
		if v, ok := root.First(prop); ok {
			return v
		}
		return def
	}
	s := Summary{
		GameInfo: GameInfo{
			BlackPlayer: or("PB", "Unknown"),
			WhitePlayer: or("PW", "Unknown"),
			Result:      or("RE", "Unknown"),
			Komi:        or("KM", "Unknown"),
			Size:        or("SZ", "Unknown"),
			Handicap:    or("HA", "0"),
			Comment:     or("C", ""),
		},
		AllMoves: []MoveInfo{},
	}
	for _, n := range MainLine(root) {
		m := MoveInfo{Colour: game.Black}
		v, ok := n.First("B")
		if !ok {
			if v, ok = n.First("W"); !ok {
				continue
			}
			m.Colour = game.White
		}
		m.Move = v
		m.Comment, _ = n.First("C")
		s.AllMoves = append(s.AllMoves, m)
	}
	s.MovesCount = len(s.AllMoves)
	s.Moves = s.AllMoves[:minInt(previewLen, len(s.AllMoves))]
	return s, nil
}
