// Package proxy implements the glyph request flow: decode the path segments,
// check the font origin against the allow-list, fetch the font (through the
// optional disk cache and a singleflight group), resolve the glyph and write
// the SVG response.
package proxy
