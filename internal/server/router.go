package server

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/suikawiki/deno-swdata-objects/internal/server/routes"
)

// GlyphRoute 是 /ot/{font}/{type}/{value}/glyph.svg 中尚未解码的三个段。
type GlyphRoute struct {
	RawFont  string
	Type     string
	RawValue string
}

// GlyphHandler describes the component that renders glyph requests. It allows
// injecting fake handlers during tests.
type GlyphHandler interface {
	Handle(fiber.Ctx, *GlyphRoute) error
}

// GlyphHandlerFunc adapts a function to the GlyphHandler interface.
type GlyphHandlerFunc func(fiber.Ctx, *GlyphRoute) error

// Handle makes GlyphHandlerFunc satisfy GlyphHandler.
func (f GlyphHandlerFunc) Handle(c fiber.Ctx, route *GlyphRoute) error {
	return f(c, route)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger *logrus.Logger
	Glyphs GlyphHandler
}

// RouteKind 是路径分类结果。
type RouteKind int

const (
	RouteNotFound RouteKind = iota
	RouteLanding
	RouteRobots
	RouteFavicon
	RouteGlyph
)

// Route 是 Classify 的结果，仅 Kind == RouteGlyph 时 Glyph 非空。
type Route struct {
	Kind  RouteKind
	Glyph *GlyphRoute
}

const contextKeyRequestID = "_glyphsvg_request_id"

const glyphPrefix = "ot"

// NewApp builds a Fiber application with request-id middleware, panic
// recovery and an error boundary that hides failure details from callers.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Glyphs == nil {
		return nil, errors.New("glyph handler is required")
	}

	app := fiber.New(fiber.Config{
		AppName:       "glyphsvg",
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.All("/*", func(c fiber.Ctx) error {
		route := Classify(RawPath(c))
		switch route.Kind {
		case RouteLanding:
			return routes.Landing(c)
		case RouteRobots:
			return routes.Robots(c)
		case RouteFavicon:
			return routes.Favicon(c)
		case RouteGlyph:
			return opts.Glyphs.Handle(c, route.Glyph)
		default:
			return routes.NotFound(c)
		}
	})

	return app, nil
}

// Classify 按段拆分原始（未解码）路径：空路径、robots.txt、favicon.ico，
// 或恰好 5 段且形如 ot/{font}/{type}/{value}/glyph.svg 的字形请求；其余均为 404。
func Classify(rawPath string) Route {
	trimmed := strings.TrimPrefix(rawPath, "/")
	if trimmed == "" {
		return Route{Kind: RouteLanding}
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) == 1 {
		switch parts[0] {
		case "robots.txt":
			return Route{Kind: RouteRobots}
		case "favicon.ico":
			return Route{Kind: RouteFavicon}
		}
	}

	if parts[0] != glyphPrefix || len(parts) != 5 || parts[4] != "glyph.svg" {
		return Route{Kind: RouteNotFound}
	}
	return Route{
		Kind: RouteGlyph,
		Glyph: &GlyphRoute{
			RawFont:  parts[1],
			Type:     parts[2],
			RawValue: parts[3],
		},
	}
}

// RawPath 返回请求行中的原始路径（不含查询串）；fasthttp 的 Path() 已解码，不能用于拆段。
func RawPath(c fiber.Ctx) string {
	raw := c.OriginalURL()
	if !strings.HasPrefix(raw, "/") {
		if parsed, err := url.ParseRequestURI(raw); err == nil {
			raw = parsed.EscapedPath()
			if parsed.RawQuery != "" {
				raw += "?" + parsed.RawQuery
			}
		}
	}
	if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

// requestIDMiddleware 为每个请求生成 ID 并写入 X-Request-ID。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// errorHandler 是最外层错误边界：记录日志，对外只返回 "Internal Server Error"。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return c.Status(fiberErr.Code).SendString(fiberErr.Message)
		}

		fields := logrus.Fields{
			"action": "request",
			"method": c.Method(),
			"path":   RawPath(c),
		}
		if reqID := RequestID(c); reqID != "" {
			fields["request_id"] = reqID
		}
		logger.WithFields(fields).WithError(err).Error("request_failed")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
