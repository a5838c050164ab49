package vobsub

import (
	"image"
	"time"
)

type Coordinate struct {
	X, Y int
}

func (c Coordinate) IsZero() bool {
	return c.X == 0 && c.Y == 0
}

// Subtitle is a fully decoded, renderable caption: the image produced by an
// RleCodec from a SubPicture's palette/alpha/RLE data, with its display
// window expressed as a pair of durations relative to the .sub stream start.
type Subtitle struct {
	Start time.Duration
	Stop  time.Duration
	Image image.Image
}
