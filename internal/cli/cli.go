// Package cli implements the subcommands of vobsubdump, kept separate from
// cmd/vobsubdump/main.go so it can be exercised by tests without going
// through an os.Exit-driven main.
package cli

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hekmon/vobsubcodec"
	"github.com/hekmon/vobsubcodec/rle"
)

// Info prints idxPath's header and caption seed table to w.
func Info(w io.Writer, idxPath string) error {
	f, err := os.Open(idxPath)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr, subs, err := vobsub.ParseIdx(f)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "screen:   %dx%d\n", hdr.ScreenWidth, hdr.ScreenHeight)
	fmt.Fprintf(w, "origin:   %d,%d\n", hdr.OrgX, hdr.OrgY)
	fmt.Fprintf(w, "language: %s (index %d)\n", hdr.LanguageCode, hdr.LanguageIdx)
	fmt.Fprintf(w, "captions: %d\n", len(subs))
	for i, sp := range subs {
		fmt.Fprintf(w, "  #%04d  offset=0x%08x  start=%d\n", i, sp.FileOffset, sp.StartPTS)
	}
	return nil
}

// Extract decodes every subpicture referenced by idxPath (assumed to sit
// alongside a same-named .sub file) and writes one PNG per caption into
// outDir.
func Extract(w io.Writer, idxPath, outDir string) error {
	subPath := subPathFor(idxPath)

	stream, err := vobsub.Open(subPath, idxPath, rle.New())
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for i := 0; i < stream.FrameCount(); i++ {
		if _, err := stream.Decode(i); err != nil {
			fmt.Fprintf(w, "caption %d: %v\n", i, err)
			continue
		}
		sub, err := stream.Subtitle(i)
		if err != nil {
			return err
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("%04d.png", i))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		err = png.Encode(f, sub.Image)
		f.Close()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "wrote %d captions to %s\n", stream.FrameCount(), outDir)
	return nil
}

func subPathFor(idxPath string) string {
	ext := filepath.Ext(idxPath)
	return idxPath[:len(idxPath)-len(ext)] + ".sub"
}

// Mux reads every *.png in dir (sorted by name) and writes it back out as a
// .sub/.idx pair, assigning each caption a 1-second display window starting
// where the previous one ended since bare PNGs carry no timing metadata.
func Mux(w io.Writer, dir, idxOut, subOut string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return err
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return fmt.Errorf("no PNG files found in %s", dir)
	}

	var subs []*vobsub.SubPicture
	var bitmaps []vobsub.Bitmap
	var screenW, screenH int
	var masterPalette [16]uint32
	var startTick int64

	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}

		paletted, ok := img.(*image.Paletted)
		if !ok {
			return fmt.Errorf("%s is not a paletted PNG", path)
		}

		bounds := paletted.Bounds()
		imgW, imgH := bounds.Dx(), bounds.Dy()
		if screenW == 0 {
			screenW, screenH = imgW, imgH
		}

		bm := vobsub.Bitmap{Width: imgW, Height: imgH, Indices: make([]uint8, imgW*imgH)}
		var sp vobsub.SubPicture
		sp.Width, sp.Height = screenW, screenH
		sp.ImageWidth, sp.ImageHeight = imgW, imgH

		for i, c := range paletted.Palette {
			if i >= 4 {
				break
			}
			r, g, b, a := c.RGBA()
			masterPalette[i] = uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(b>>8)
			sp.PaletteIndices[i] = uint8(i)
			sp.AlphaIndices[i] = uint8(a >> 12) // 16-bit alpha -> 4 bits
		}
		for y := 0; y < imgH; y++ {
			for x := 0; x < imgW; x++ {
				bm.Indices[y*imgW+x] = paletted.ColorIndexAt(x, y)
			}
		}

		sp.StartPTS = startTick
		sp.EndPTS = startTick + 90000 // 1 second at 90kHz
		startTick = sp.EndPTS

		subs = append(subs, &sp)
		bitmaps = append(bitmaps, bm)
	}

	writer := vobsub.NewSubpictureWriter(rle.New(), 0)
	written, err := writer.WriteAll(subOut, screenH, subs, bitmaps)
	if err != nil {
		return err
	}

	idxFile, err := os.Create(idxOut)
	if err != nil {
		return err
	}
	defer idxFile.Close()

	hdr := &vobsub.IdxHeader{ScreenWidth: screenW, ScreenHeight: screenH, Palette: masterPalette}
	if err := vobsub.WriteIdx(idxFile, hdr, written, 0); err != nil {
		return err
	}

	fmt.Fprintf(w, "wrote %d captions to %s / %s\n", len(matches), subOut, idxOut)
	return nil
}
