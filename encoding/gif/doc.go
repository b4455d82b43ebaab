// Package gif encodes replays as animated GIFs: one paletted frame per ply, with an optional caption.
package gif
