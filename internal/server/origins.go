package server

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/suikawiki/deno-swdata-objects/internal/config"
)

// OriginRegistry 保存允许抓取字体的来源集合，启动阶段构建一次后只读。
type OriginRegistry struct {
	allowed map[string]struct{}
	ordered []string
}

// NewOriginRegistry 根据配置构建来源集合。调用方应在启动阶段创建一次并复用。
func NewOriginRegistry(cfg *config.Config) (*OriginRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, errors.New("no allowed origins configured")
	}

	registry := &OriginRegistry{
		allowed: make(map[string]struct{}, len(cfg.AllowedOrigins)),
	}
	for _, raw := range cfg.AllowedOrigins {
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid origin %s: %w", raw, err)
		}
		origin := Origin(parsed)
		if origin == "" {
			return nil, fmt.Errorf("invalid origin %s", raw)
		}
		if _, exists := registry.allowed[origin]; exists {
			return nil, fmt.Errorf("duplicate origin detected for %s", origin)
		}
		registry.allowed[origin] = struct{}{}
		registry.ordered = append(registry.ordered, origin)
	}
	return registry, nil
}

// Allows 报告 URL 的 origin 是否在允许列表中。
func (r *OriginRegistry) Allows(u *url.URL) bool {
	if r == nil || u == nil {
		return false
	}
	origin := Origin(u)
	if origin == "" {
		return false
	}
	_, ok := r.allowed[origin]
	return ok
}

// List 按配置顺序返回规范化后的来源，用于启动日志。
func (r *OriginRegistry) List() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.ordered...)
}

// Origin 返回 scheme://host[:port]，协议与主机小写，省略默认端口。
// 非 http/https 或缺少主机时返回空串。
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		return scheme + "://" + host + ":" + port
	}
	return scheme + "://" + host
}
