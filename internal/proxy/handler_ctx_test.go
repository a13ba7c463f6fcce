package proxy

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/suikawiki/deno-swdata-objects/internal/config"
	"github.com/suikawiki/deno-swdata-objects/internal/server"
)

const requestIDKey = "_glyphsvg_request_id"

const allowedFont = "https%3A%2F%2Ffonts.suikawiki.org%2Fgo.ttf"

type stubFonts struct {
	data  []byte
	err   error
	calls int
}

func (s *stubFonts) Fetch(_ context.Context, _ *url.URL) (*FetchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &FetchResult{Data: s.data}, nil
}

type handlerFixture struct {
	app     *fiber.App
	ctx     fiber.Ctx
	logBuf  *bytes.Buffer
	fonts   *stubFonts
	handler *Handler
}

func newHandlerFixture(t *testing.T, fonts *stubFonts) *handlerFixture {
	t.Helper()
	app := fiber.New()
	t.Cleanup(func() { app.Shutdown() })

	ctx := app.AcquireCtx(new(fasthttp.RequestCtx))
	t.Cleanup(func() { app.ReleaseCtx(ctx) })
	ctx.Locals(requestIDKey, "req-123")

	origins, err := server.NewOriginRegistry(&config.Config{AllowedOrigins: []string{config.DefaultOrigin}})
	if err != nil {
		t.Fatalf("origin registry error: %v", err)
	}

	logger := logrus.New()
	logBuf := &bytes.Buffer{}
	logger.SetOutput(logBuf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &handlerFixture{
		app:     app,
		ctx:     ctx,
		logBuf:  logBuf,
		fonts:   fonts,
		handler: NewHandler(fonts, origins, logger, "public, max-age=60"),
	}
}

func TestHandlerRejectsOriginBeforeFetching(t *testing.T) {
	fx := newHandlerFixture(t, &stubFonts{data: goregular.TTF})

	route := &server.GlyphRoute{RawFont: "https%3A%2F%2Fevil.example%2Fgo.ttf", Type: "id", RawValue: "0"}
	if err := fx.handler.Handle(fx.ctx, route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status := fx.ctx.Response().StatusCode(); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body := string(fx.ctx.Response().Body()); body != "Not Found" {
		t.Fatalf("unexpected body: %s", body)
	}
	if fx.fonts.calls != 0 {
		t.Fatalf("disallowed origin must not be fetched")
	}
	logs := fx.logBuf.String()
	if !strings.Contains(logs, "origin_denied") || !strings.Contains(logs, "req-123") {
		t.Fatalf("expected origin_denied log with request id, got %s", logs)
	}
}

func TestHandlerPropagatesUpstreamStatus(t *testing.T) {
	fx := newHandlerFixture(t, &stubFonts{err: &UpstreamStatusError{StatusCode: fiber.StatusBadGateway, Status: "502 Bad Gateway"}})

	route := &server.GlyphRoute{RawFont: allowedFont, Type: "id", RawValue: "0"}
	if err := fx.handler.Handle(fx.ctx, route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status := fx.ctx.Response().StatusCode(); status != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if body := string(fx.ctx.Response().Body()); body != "502 Bad Gateway" {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHandlerReturnsFetchErrors(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	fx := newHandlerFixture(t, &stubFonts{err: boom})

	route := &server.GlyphRoute{RawFont: allowedFont, Type: "id", RawValue: "0"}
	err := fx.handler.Handle(fx.ctx, route)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestHandlerLogsGlyphMiss(t *testing.T) {
	fx := newHandlerFixture(t, &stubFonts{data: goregular.TTF})

	route := &server.GlyphRoute{RawFont: allowedFont, Type: "char", RawValue: "10FFFD"}
	if err := fx.handler.Handle(fx.ctx, route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := string(fx.ctx.Response().Body()); body != GlyphNotFoundBody {
		t.Fatalf("unexpected body: %s", body)
	}
	logs := fx.logBuf.String()
	for _, want := range []string{`"msg":"glyph_failed"`, `"reason":"glyph_not_found"`, `"selector_kind":"char"`, `"request_id":"req-123"`} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected log to contain %s, got %s", want, logs)
		}
	}
}

func TestHandlerWritesSVGHeaders(t *testing.T) {
	fx := newHandlerFixture(t, &stubFonts{data: goregular.TTF})

	route := &server.GlyphRoute{RawFont: allowedFont, Type: "char", RawValue: "61"}
	if err := fx.handler.Handle(fx.ctx, route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp := fx.ctx.Response()
	if resp.StatusCode() != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode())
	}
	if got := string(resp.Header.Peek(fiber.HeaderCacheControl)); got != "public, max-age=60" {
		t.Fatalf("unexpected cache-control: %s", got)
	}
	if got := string(resp.Header.ContentType()); got != "image/svg+xml; charset=utf-8" {
		t.Fatalf("unexpected content-type: %s", got)
	}
	logs := fx.logBuf.String()
	for _, want := range []string{`"msg":"glyph_complete"`, `"metrics_source":"os2"`} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected log to contain %s, got %s", want, logs)
		}
	}
}

func TestDecodeComponent(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "https%3A%2F%2Ffonts.suikawiki.org%2Fa%20b.ttf", want: "https://fonts.suikawiki.org/a b.ttf"},
		{raw: "a+b", want: "a+b"},
		{raw: "%E3%81%82", want: "あ"},
		{raw: "%", wantErr: true},
		{raw: "%E3%81", wantErr: true},
		{raw: "%zz", wantErr: true},
	}
	for _, tt := range tests {
		got, err := decodeComponent(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("decodeComponent(%q) should fail, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("decodeComponent(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}
