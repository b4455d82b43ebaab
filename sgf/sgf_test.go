package sgf

import (
	"encoding/json"
	"testing"

	"github.com/gorgonia/kifu/game"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type props = map[string][]string

// chain links nodes so that each is the first child of the one before it.
func chain(root *Node, nodes ...*Node) *Node {
	n := root
	for _, c := range nodes {
		n.Children = append([]*Node{c}, n.Children...)
		n = c
	}
	return root
}

func TestExtract(t *testing.T) {
	root := chain(
		&Node{Properties: props{"SZ": {"9"}, "AB": {"cc", "gg"}, "AW": {"ee"}, "PB": {"Honinbo"}}},
		&Node{Properties: props{"W": {"ac"}, "C": {"first"}}},
		&Node{Properties: props{"B": {"bd"}}},
		&Node{Properties: props{"W": {"tt"}}},
		&Node{Properties: props{"B": {""}}},
		&Node{Properties: props{"C": {"no move here"}}},
		&Node{Properties: props{"B": {"zz"}}},
		&Node{Properties: props{"B": {"a"}}},
	)
	rec, err := Extract(root)
	require.NoError(t, err)

	assert.Equal(t, 9, rec.Size)
	assert.Equal(t, []game.Coord{{X: 2, Y: 2}, {X: 6, Y: 6}}, rec.SetupBlack)
	assert.Equal(t, []game.Coord{{X: 4, Y: 4}}, rec.SetupWhite)
	assert.Equal(t, []game.Move{
		{Colour: game.White, Coord: game.Coord{X: 0, Y: 2}},
		{Colour: game.Black, Coord: game.Coord{X: 1, Y: 3}},
		{Colour: game.White, Coord: game.Pass},
		{Colour: game.Black, Coord: game.Coord{X: 25, Y: 25}},
		{Colour: game.Black, Coord: game.Coord{X: 9, Y: 9}},
	}, rec.Moves)
}

func TestExtract_MainLineOnly(t *testing.T) {
	root := &Node{
		Properties: props{},
		Children: []*Node{
			{Properties: props{"B": {"aa"}}, Children: []*Node{
				{Properties: props{"W": {"bb"}}},
				{Properties: props{"W": {"cc"}}, Children: []*Node{{Properties: props{"B": {"dd"}}}}},
			}},
			{Properties: props{"B": {"ss"}}},
		},
	}
	rec, err := Extract(root)
	require.NoError(t, err)
	assert.Equal(t, 19, rec.Size)
	assert.Equal(t, []game.Move{
		{Colour: game.Black, Coord: game.Coord{X: 0, Y: 0}},
		{Colour: game.White, Coord: game.Coord{X: 1, Y: 1}},
	}, rec.Moves)
}

func TestExtract_BlackWins(t *testing.T) {
	root := chain(&Node{}, &Node{Properties: props{"B": {"aa"}, "W": {"bb"}}})
	rec, err := Extract(root)
	require.NoError(t, err)
	assert.Equal(t, []game.Move{{Colour: game.Black, Coord: game.Coord{}}}, rec.Moves)
}

func TestExtract_Setup(t *testing.T) {
	root := &Node{Properties: props{"SZ": {"5"}, "AB": {"aa:bc", "", "tt", "?x"}}}
	rec, err := Extract(root)
	require.NoError(t, err)
	assert.Equal(t, []game.Coord{
		{X: 0, Y: 0}, {X: 1, Y: 0},
		{X: 0, Y: 1}, {X: 1, Y: 1},
		{X: 0, Y: 2}, {X: 1, Y: 2},
		{X: 5, Y: 5},
	}, rec.SetupBlack)
	assert.Empty(t, rec.Moves)
}

func TestSize(t *testing.T) {
	cases := []struct {
		sz   []string
		want int
		err  error
	}{
		{nil, 19, nil},
		{[]string{"13"}, 13, nil},
		{[]string{" 9 "}, 9, nil},
		{[]string{"7:7"}, 7, nil},
		{[]string{"big"}, 19, nil},
		{[]string{"9:13"}, 0, ErrUnsupportedSize},
		{[]string{"60"}, 0, ErrUnsupportedSize},
	}
	for _, c := range cases {
		n := &Node{Properties: props{}}
		if c.sz != nil {
			n.Properties["SZ"] = c.sz
		}
		got, err := Size(n)
		if c.err != nil {
			assert.Equal(t, c.err, errors.Cause(err), "%v", c.sz)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%v", c.sz)
	}
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract(nil)
	assert.Equal(t, ErrNoGame, err)

	_, err = Extract(&Node{Properties: props{"SZ": {"19:9"}}})
	assert.Equal(t, ErrUnsupportedSize, errors.Cause(err))
}

func TestInfo(t *testing.T) {
	nodes := []*Node{}
	for i := 0; i < 25; i++ {
		p := "B"
		if i%2 == 1 {
			p = "W"
		}
		nodes = append(nodes, &Node{Properties: props{p: {game.EncodePoint(game.Coord{X: i % 19, Y: i / 19})}}})
	}
	nodes[0].Properties["C"] = []string{"opening"}
	root := chain(&Node{Properties: props{"PB": {"Shusaku"}, "KM": {"0"}, "SZ": {"19"}}}, nodes...)

	s, err := Info(root)
	require.NoError(t, err)
	assert.Equal(t, GameInfo{
		BlackPlayer: "Shusaku",
		WhitePlayer: "Unknown",
		Result:      "Unknown",
		Komi:        "0",
		Size:        "19",
		Handicap:    "0",
	}, s.GameInfo)
	assert.Equal(t, 25, s.MovesCount)
	assert.Len(t, s.Moves, 20)
	assert.Len(t, s.AllMoves, 25)
	assert.Equal(t, MoveInfo{Colour: game.Black, Move: "aa", Comment: "opening"}, s.AllMoves[0])
	assert.Equal(t, MoveInfo{Colour: game.White, Move: "ba"}, s.AllMoves[1])

	b, err := json.Marshal(s.AllMoves[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"B","move":"aa","comment":"opening"}`, string(b))

	_, err = Info(nil)
	assert.Equal(t, ErrNoGame, err)
}

func TestNode_JSON(t *testing.T) {
	const doc = `{"properties":{"SZ":["9"]},"children":[{"properties":{"B":["ee"]}}]}`
	var root Node
	require.NoError(t, json.Unmarshal([]byte(doc), &root))
	rec, err := Extract(&root)
	require.NoError(t, err)
	assert.Equal(t, game.Record{
		Size:  9,
		Moves: []game.Move{{Colour: game.Black, Coord: game.Coord{X: 4, Y: 4}}},
	}, rec)
}
