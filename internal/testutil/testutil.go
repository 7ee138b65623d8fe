// Package testutil holds font-discovery helpers shared by the ot and
// harfbuzz-tests test suites.
package testutil

import (
	"os"
	"path/filepath"
)

// searchDirs are checked in order for a named test font, falling back to
// common system font locations so the suite degrades gracefully on a
// machine without the bundled test corpus installed.
var searchDirs = []string{
	"testdata",
	filepath.Join("..", "testdata"),
	"/usr/share/fonts/truetype/roboto",
	"/usr/share/fonts/truetype/dejavu",
	"/System/Library/Fonts",
	"/System/Library/Fonts/Supplemental",
}

// FindTestFont locates a font file by base name (e.g. "Roboto-Regular.ttf")
// across the known test-data and system font directories. It returns "" if
// the font cannot be found, in which case callers should skip the test
// rather than fail the suite on an environment missing optional corpora.
func FindTestFont(name string) string {
	if env := os.Getenv("SHAPER_TEST_FONT_DIR"); env != "" {
		searchDirs = append([]string{env}, searchDirs...)
	}
	for _, dir := range searchDirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
