package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/suikawiki/deno-swdata-objects/internal/glyph"
	"github.com/suikawiki/deno-swdata-objects/internal/logging"
	"github.com/suikawiki/deno-swdata-objects/internal/render"
	"github.com/suikawiki/deno-swdata-objects/internal/server"
	"github.com/suikawiki/deno-swdata-objects/internal/server/routes"
)

// GlyphNotFoundBody 是字形解析失败时的响应体，与通用 "Not Found" 区分。
const GlyphNotFoundBody = "404 Glyph not found"

// Handler 负责 "解码 → 来源校验 → 抓取 → 解析 → 选字形 → 输出 SVG" 的全流程。
// 返回的 error 交由 server 的错误边界统一转成 500。
type Handler struct {
	fonts        FontSource
	origins      *server.OriginRegistry
	logger       *logrus.Logger
	cacheControl string
}

// NewHandler constructs a glyph handler with a shared font source, allow-list and logger.
func NewHandler(fonts FontSource, origins *server.OriginRegistry, logger *logrus.Logger, cacheControl string) *Handler {
	return &Handler{
		fonts:        fonts,
		origins:      origins,
		logger:       logger,
		cacheControl: cacheControl,
	}
}

// Handle 实现 server.GlyphHandler。
func (h *Handler) Handle(c fiber.Ctx, route *server.GlyphRoute) error {
	started := time.Now()
	requestID := server.RequestID(c)

	fontText, err := decodeComponent(route.RawFont)
	if err != nil {
		return fmt.Errorf("解码字体地址失败: %w", err)
	}
	value, err := decodeComponent(route.RawValue)
	if err != nil {
		return fmt.Errorf("解码选择器取值失败: %w", err)
	}
	fontURL, err := parseAbsoluteURL(fontText)
	if err != nil {
		return err
	}

	entry := logEntry{
		fontURL:   fontText,
		kind:      route.Type,
		value:     value,
		requestID: requestID,
		started:   started,
	}

	if !h.origins.Allows(fontURL) {
		h.logResult(entry, fiber.StatusNotFound, "origin_denied", nil)
		return routes.NotFound(c)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fetched, err := h.fonts.Fetch(ctx, fontURL)
	if err != nil {
		var statusErr *UpstreamStatusError
		if errors.As(err, &statusErr) {
			h.logResult(entry, statusErr.StatusCode, "upstream_status", nil)
			return c.Status(statusErr.StatusCode).SendString(statusErr.Status)
		}
		return fmt.Errorf("抓取字体失败: %w", err)
	}
	entry.cacheHit = fetched.CacheHit

	font, err := glyph.Parse(fetched.Data)
	if err != nil {
		return err
	}
	entry.metricsSource = font.MetricsSource()

	kind, ok := glyph.ParseKind(route.Type)
	if !ok {
		h.logResult(entry, fiber.StatusNotFound, "unknown_type", nil)
		return routes.NotFound(c)
	}

	res := font.Resolve(glyph.Selector{Kind: kind, Value: value})
	if !res.Found() {
		h.logResult(entry, fiber.StatusNotFound, "glyph_not_found", res.Err)
		return c.Status(fiber.StatusNotFound).SendString(GlyphNotFoundBody)
	}

	svg, err := render.GlyphSVG(font, res.Glyph, fontText)
	if err != nil {
		return fmt.Errorf("渲染字形 %d 失败: %w", res.Glyph.ID, err)
	}

	c.Set(fiber.HeaderContentType, render.ContentType)
	c.Set(fiber.HeaderCacheControl, h.cacheControl)
	h.logResult(entry, fiber.StatusOK, "", nil)
	return c.Status(fiber.StatusOK).SendString(svg)
}

// decodeComponent 对单个路径段做百分号解码，结果必须是合法 UTF-8。
func decodeComponent(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("invalid UTF-8 in %q", raw)
	}
	return decoded, nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("字体地址无法解析: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("字体地址不是绝对地址: %q", raw)
	}
	return parsed, nil
}

type logEntry struct {
	fontURL   string
	kind      string
	value     string
	requestID string
	cacheHit  bool
	started   time.Time
	// metricsSource 在字体解析成功后才有值。
	metricsSource string
}

func (h *Handler) logResult(entry logEntry, status int, reason string, err error) {
	fields := logging.RequestFields(entry.fontURL, entry.kind, entry.value, entry.cacheHit)
	fields["action"] = "glyph"
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(entry.started).Milliseconds()
	if entry.requestID != "" {
		fields["request_id"] = entry.requestID
	}
	if reason != "" {
		fields["reason"] = reason
	}
	if entry.metricsSource != "" {
		fields["metrics_source"] = entry.metricsSource
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if status >= 400 {
		h.logger.WithFields(fields).Warn("glyph_failed")
		return
	}
	h.logger.WithFields(fields).Info("glyph_complete")
}
