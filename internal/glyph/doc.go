// Package glyph wraps golang.org/x/image/font/sfnt (outlines, cmap, glyph
// names, name table) and seehuhn.de/go/sfnt (OS/2 typo metrics) behind the
// small surface the glyph endpoint needs: parse a font, resolve a selector to
// one glyph and extract its outline as SVG path data.
//
// Resolution never panics or throws: Resolve returns a Resolution whose Err
// distinguishes a recoverable selector miss from a fatal fault elsewhere.
package glyph
