// Package routes holds the fixed responses served next to the glyph endpoint.
package routes

import "github.com/gofiber/fiber/v3"

const (
	// LandingBody 是根路径返回的 HTML。
	LandingBody = `<!DOCTYPE HTML><title>SuikaWiki</title><a href=https://suikawiki.org>SuikaWiki</a>`
	// FaviconURL 是 /favicon.ico 的重定向目标。
	FaviconURL = "https://data.suikawiki.org/favicon.ico"
)

// Landing 返回根路径的静态页面。
func Landing(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/html")
	return c.Status(fiber.StatusOK).SendString(LandingBody)
}

// Robots 返回空的 robots.txt。
func Robots(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("")
}

// Favicon 以 302 跳转到共享图标，响应体为空。
func Favicon(c fiber.Ctx) error {
	c.Set(fiber.HeaderLocation, FaviconURL)
	return c.Status(fiber.StatusFound).SendString("")
}

// NotFound 是所有未匹配路径以及被拒绝来源共用的响应，两者不可区分。
func NotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).SendString("Not Found")
}
