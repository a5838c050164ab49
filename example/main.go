package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/hekmon/vobsubcodec"
	"github.com/hekmon/vobsubcodec/rle"
)

const (
	subFile = "/path/to/your/subtitle.sub"
	idxFile = "/path/to/your/subtitle.idx"
)

func main() {
	stream, err := vobsub.Open(subFile, idxFile, rle.New())
	if err != nil {
		panic(err)
	}
	defer stream.Close()

	for i := 0; i < stream.FrameCount(); i++ {
		warnings, err := stream.Decode(i)
		for _, w := range warnings {
			fmt.Printf("\t%s\n", w)
		}
		if err != nil {
			fmt.Printf("skipping subtitle #%d: %v\n", i, err)
			continue
		}

		sub, err := stream.Subtitle(i)
		if err != nil {
			panic(err)
		}

		filename := fmt.Sprintf("sub-%04d.png", i+1)
		fmt.Printf("Subtitle #%d: %s --> %s\n", i+1, sub.Start, sub.Stop)
		if err := writePNG(filename, sub.Image); err != nil {
			panic(err)
		}
	}
}

func writePNG(filename string, img image.Image) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return
	}
	defer file.Close()
	return png.Encode(file, img)
}
