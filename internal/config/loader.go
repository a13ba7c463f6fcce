package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultOrigin 是唯一内置的可信字体来源。
	DefaultOrigin = "https://fonts.suikawiki.org"
	// DefaultCacheMaxAge 对应 10 天的客户端缓存。
	DefaultCacheMaxAge = 10 * 24 * time.Hour

	envPrefix = "GLYPHSVG"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。path 为空时仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.FontCacheEnabled() {
		abs, err := filepath.Abs(cfg.Global.FontCachePath)
		if err != nil {
			return nil, fmt.Errorf("无法解析字体缓存目录: %w", err)
		}
		cfg.Global.FontCachePath = abs
	}

	return &cfg, nil
}

// Default 返回不读取任何文件的默认配置，供 render 子命令与测试使用。
func Default() *Config {
	cfg := &Config{AllowedOrigins: []string{DefaultOrigin}}
	cfg.Global.LogLevel = "info"
	applyGlobalDefaults(&cfg.Global)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("MaxFontSize", 32*1024*1024)
	v.SetDefault("CacheMaxAge", int64(DefaultCacheMaxAge/time.Second))
	v.SetDefault("FontCachePath", "")
	v.SetDefault("FontCacheTTL", "24h")
	v.SetDefault("AllowedOrigins", []string{DefaultOrigin})
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8000
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	if g.MaxFontSize == 0 {
		g.MaxFontSize = 32 * 1024 * 1024
	}
	if g.CacheMaxAge.DurationValue() == 0 {
		g.CacheMaxAge = Duration(DefaultCacheMaxAge)
	}
	if g.FontCacheTTL.DurationValue() == 0 {
		g.FontCacheTTL = Duration(24 * time.Hour)
	}
}

func normalizeOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
