package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级运行参数，启动后只读。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFormat       string   `mapstructure:"LogFormat"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	MaxFontSize     int64    `mapstructure:"MaxFontSize"`
	CacheMaxAge     Duration `mapstructure:"CacheMaxAge"`
	FontCachePath   string   `mapstructure:"FontCachePath"`
	FontCacheTTL    Duration `mapstructure:"FontCacheTTL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global         GlobalConfig `mapstructure:",squash"`
	AllowedOrigins []string     `mapstructure:"AllowedOrigins"`
}

// FontCacheEnabled 表示是否启用上游字体的磁盘缓存。
func (c *Config) FontCacheEnabled() bool {
	return c != nil && strings.TrimSpace(c.Global.FontCachePath) != ""
}

// CacheControl 返回成功响应使用的 cache-control 头。
func (c *Config) CacheControl() string {
	maxAge := DefaultCacheMaxAge
	if c != nil && c.Global.CacheMaxAge.DurationValue() > 0 {
		maxAge = c.Global.CacheMaxAge.DurationValue()
	}
	return fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second))
}
