package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别")
	}
	switch strings.ToLower(strings.TrimSpace(g.LogFormat)) {
	case "", "json", "text":
	default:
		return newFieldError("Global.LogFormat", "仅支持 json/text")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.MaxFontSize <= 0 {
		return newFieldError("Global.MaxFontSize", "必须大于 0")
	}
	if g.CacheMaxAge.DurationValue() <= 0 {
		return newFieldError("Global.CacheMaxAge", "必须大于 0")
	}
	if c.FontCacheEnabled() && g.FontCacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.FontCacheTTL", "启用字体缓存时必须大于 0")
	}

	if len(c.AllowedOrigins) == 0 {
		return errors.New("至少需要配置一个 AllowedOrigins")
	}
	seen := map[string]struct{}{}
	for _, origin := range c.AllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			return fmt.Errorf("%s: %w", originField(origin), err)
		}
		key := strings.ToLower(origin)
		if _, exists := seen[key]; exists {
			return newFieldError(originField(origin), "重复")
		}
		seen[key] = struct{}{}
	}

	return nil
}

// validateOrigin 要求 origin 只包含协议与主机（可带端口），不允许路径、查询或凭证。
func validateOrigin(raw string) error {
	if raw == "" {
		return errors.New("origin 不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，origin: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("origin 缺少 Host: %s", raw)
	}
	if parsed.User != nil {
		return fmt.Errorf("origin 不允许包含凭证: %s", raw)
	}
	if (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("origin 不允许包含路径或查询: %s", raw)
	}
	return nil
}
