package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/suikawiki/deno-swdata-objects/internal/glyph"
)

func strPtr(s string) *string { return &s }

func TestNewLayout(t *testing.T) {
	tests := []struct {
		name            string
		upem, asc, desc int
		wantH, wantBase int
	}{
		{name: "span exceeds em", upem: 1000, asc: 880, desc: -320, wantH: 1200, wantBase: 880},
		{name: "em exceeds span", upem: 2048, asc: 1000, desc: -200, wantH: 2048, wantBase: 1848},
		{name: "equal", upem: 1000, asc: 800, desc: -200, wantH: 1000, wantBase: 800},
	}
	for _, tt := range tests {
		got := NewLayout(tt.upem, tt.asc, tt.desc)
		want := Layout{Height: tt.wantH, Baseline: tt.wantBase}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: layout mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestDescriptionOrderingAndOmission(t *testing.T) {
	lic := glyph.License{
		Copyright:  strPtr("(c) A & B"),
		LicenseURL: strPtr("https://example.com/<license>"),
		Trademark:  strPtr(""),
	}
	got := Description("https://fonts.suikawiki.org/a.ttf", 36, lic)
	want := "&lt;https://fonts.suikawiki.org/a.ttf>\n\n36\n\n(c) A &amp; B\n\nhttps://example.com/&lt;license>\n\n"
	if got != want {
		t.Fatalf("description mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestEscapeTextIsNarrow(t *testing.T) {
	got := EscapeText(`a&b<c>d"e'f`)
	if got != `a&amp;b&lt;c>d"e'f` {
		t.Fatalf("unexpected escape result: %s", got)
	}
}

func TestDocumentString(t *testing.T) {
	doc := Document{UnitsPerEm: 1000, PathData: "M0 0L10 10Z", Description: "x"}
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1000 1000"><path d="M0 0L10 10Z"/><desc>x</desc></svg>`
	if got := doc.String(); got != want {
		t.Fatalf("document mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestGlyphSVGGoRegular(t *testing.T) {
	f, err := glyph.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := f.Resolve(glyph.Selector{Kind: glyph.KindChar, Value: "41"})
	if !res.Found() {
		t.Fatalf("resolve error: %v", res.Err)
	}

	svg, err := GlyphSVG(f, res.Glyph, "https://fonts.suikawiki.org/go.ttf")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(svg, `viewBox="0 0 2048 2048"`) {
		t.Fatalf("viewBox 应使用 unitsPerEm: %s", svg)
	}
	if strings.Contains(svg, `<path d=""`) {
		t.Fatalf("A 的路径不应为空")
	}
	if !strings.Contains(svg, "<desc>&lt;https://fonts.suikawiki.org/go.ttf>") {
		t.Fatalf("desc 应以字体地址开头: %s", svg)
	}
	if lic := f.License(); lic.Copyright != nil && strings.Contains(*lic.Copyright, "&") {
		if !strings.Contains(svg, EscapeText(*lic.Copyright)) {
			t.Fatalf("版权声明中的 & 应被转义")
		}
	}
}
