// Command shapeinfo shapes a line of text against a font and prints the
// resulting glyph ids, clusters, and positions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/glyphkit/shaper/ot"
)

func main() {
	fontPath := flag.String("font", "", "path to an OpenType/TrueType font file (required)")
	text := flag.String("text", "", "text to shape (required)")
	script := flag.String("script", "", "four-letter OpenType script tag, e.g. Deva, Arab, Latn (guessed from text if empty)")
	language := flag.String("language", "dflt", "four-letter OpenType language tag")
	direction := flag.String("direction", "", "ltr, rtl, ttb, or btt (guessed from script if empty)")
	features := flag.String("features", "", "comma-separated feature list, e.g. -liga,+smcp=1")
	flag.Parse()

	if *fontPath == "" || *text == "" {
		fmt.Fprintln(os.Stderr, "usage: shapeinfo -font <path> -text <string> [-script TAG] [-language TAG] [-direction ltr|rtl|ttb|btt] [-features f1,f2]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*fontPath)
	if err != nil {
		log.Fatalf("shapeinfo: reading font: %v", err)
	}

	shaper, err := ot.NewShaperFromFace(data)
	if err != nil {
		log.Fatalf("shapeinfo: parsing font: %v", err)
	}

	buf := ot.NewBuffer()
	cps := make([]ot.Codepoint, 0, len(*text))
	for _, r := range *text {
		cps = append(cps, ot.Codepoint(r))
	}
	buf.AddCodepoints(cps)

	if *script != "" {
		buf.Script = tagFromString(*script)
	}
	if *language != "" {
		buf.Language = tagFromString(*language)
	}
	if *direction != "" {
		d, err := directionFromString(*direction)
		if err != nil {
			log.Fatalf("shapeinfo: %v", err)
		}
		buf.Direction = d
	}

	shaper.Shape(buf, parseFeatures(*features))

	for i, info := range buf.Info {
		pos := buf.Pos[i]
		fmt.Printf("glyph=%-6d cluster=%-4d xadv=%-5d yadv=%-5d xoff=%-5d yoff=%-5d\n",
			info.GlyphID, info.Cluster, pos.XAdvance, pos.YAdvance, pos.XOffset, pos.YOffset)
	}
}

func tagFromString(s string) ot.Tag {
	var b [4]byte
	for i := range b {
		b[i] = ' '
	}
	copy(b[:], s)
	return ot.MakeTag(b[0], b[1], b[2], b[3])
}

func directionFromString(s string) (ot.Direction, error) {
	switch s {
	case "ltr":
		return ot.DirectionLTR, nil
	case "rtl":
		return ot.DirectionRTL, nil
	case "ttb":
		return ot.DirectionTTB, nil
	case "btt":
		return ot.DirectionBTT, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func parseFeatures(s string) []ot.Feature {
	if s == "" {
		return nil
	}
	var out []ot.Feature
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				if feat, ok := ot.FeatureFromString(s[start:i]); ok {
					out = append(out, feat)
				}
			}
			start = i + 1
		}
	}
	return out
}
