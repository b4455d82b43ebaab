package 围碁

import (
	"math/rand"

	"github.com/gorgonia/kifu/game"
)

// zobrist is a data structure for calculating Zobrist hashes.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// The table is a (BOARDSIZE * BOARDSIZE, 2) matrix stored flat, one random key per colour per
// intersection. The keys are drawn from a source seeded with the board size, so the same
// position hashes to the same value in every process.
type zobrist struct {
	table []uint64 // backing storage
	hash  uint64
}

func makeZobrist(size int) zobrist {
	r := rand.New(rand.NewSource(int64(size)*0x9E3779B1 + 1))
	table := make([]uint64, size*size*2)
	for i := range table {
		table[i] = r.Uint64()
	}
	return zobrist{table: table}
}

// clone shares the table, which is never written after creation.
func (z zobrist) clone() zobrist { return zobrist{table: z.table, hash: z.hash} }

// update toggles the key of a colour at the given index. Calling it twice with the same arguments
// restores the previous hash.
func (z *zobrist) update(i int, c game.Colour) {
	switch c {
	case game.Black:
		z.hash ^= z.table[2*i]
	case game.White:
		z.hash ^= z.table[2*i+1]
	}
}
