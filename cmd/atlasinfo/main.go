// Command atlasinfo inspects an already-built binary font atlas (§6.2) and
// prints a human-readable summary, or a msgpack-encoded one for tooling.
// It is not the font-atlas generator — building an atlas from a font file
// is explicitly out of scope (§1); this only reads one.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mmp/vtrender/pkg/atlas"
)

var asMsgpack = flag.Bool("msgpack", false, "emit the summary as msgpack instead of text")

func main() {
	flag.Parse()

	usage := func() {
		fmt.Fprintf(os.Stderr, "usage: atlasinfo [-msgpack] atlas-file\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "atlasinfo: %v\n", err)
		os.Exit(1)
	}

	data, err := atlas.Decode(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "atlasinfo: %v\n", err)
		os.Exit(1)
	}

	summary := summarize(data)

	if *asMsgpack {
		enc, err := msgpack.Marshal(&summary)
		if err != nil {
			fmt.Fprintf(os.Stderr, "atlasinfo: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(enc)
		return
	}

	printSummary(summary)
}

// Summary is the inspector's output shape, named (not anonymous) so both
// the text and msgpack paths render the same fields.
type Summary struct {
	FontName                 string
	FontSize                 float32
	TexWidth                 int32
	TexHeight                int32
	TexLayers                int32
	CellWidth, CellHeight    int32
	GlyphCount               int
	EmojiCount               int
	Underline, Strikethrough atlas.LineDecoration
}

func summarize(d *atlas.Data) Summary {
	s := Summary{
		FontName:      d.FontName,
		FontSize:      d.FontSize,
		TexWidth:      d.TexWidth,
		TexHeight:     d.TexHeight,
		TexLayers:     d.TexLayers,
		CellWidth:     d.CellWidth,
		CellHeight:    d.CellHeight,
		GlyphCount:    len(d.Glyphs),
		Underline:     d.Underline,
		Strikethrough: d.Strikethrough,
	}
	for _, g := range d.Glyphs {
		if g.IsEmoji {
			s.EmojiCount++
		}
	}
	return s
}

func printSummary(s Summary) {
	fmt.Printf("font:          %s (%.1fpx)\n", s.FontName, s.FontSize)
	fmt.Printf("texture:       %dx%d x %d layers\n", s.TexWidth, s.TexHeight, s.TexLayers)
	fmt.Printf("cell size:     %dx%d\n", s.CellWidth, s.CellHeight)
	fmt.Printf("glyphs:        %d (%d emoji)\n", s.GlyphCount, s.EmojiCount)
	fmt.Printf("underline:     pos=%.3f thickness=%.3f\n", s.Underline.Position, s.Underline.Thickness)
	fmt.Printf("strikethrough: pos=%.3f thickness=%.3f\n", s.Strikethrough.Position, s.Strikethrough.Thickness)
}
